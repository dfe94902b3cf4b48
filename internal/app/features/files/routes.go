// internal/app/features/files/routes.go
package files

import "github.com/go-chi/chi/v5"

// Routes returns the file tree router, mounted under /rooms/{roomID}/files.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeTree)
	r.Post("/", h.ServeCreate)

	r.Route("/{nodeID}", func(r chi.Router) {
		r.Patch("/", h.ServeRename)
		r.Delete("/", h.ServeDelete)
		r.Get("/content", h.ServeGetContent)
		r.Put("/content", h.ServeSaveContent)
		r.Post("/execution", h.ServeRecordExecution)
	})

	return r
}
