// internal/app/features/rooms/routes.go
package rooms

import "github.com/go-chi/chi/v5"

// Routes returns the router for room endpoints. Mounted behind the
// signed-in middleware. attach hooks let sibling features (access,
// messages, files) register their room-scoped endpoints under {roomID}
// without a second conflicting mount.
func Routes(h *Handler, attach ...func(chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)

	r.Route("/{roomID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Patch("/", h.ServePatch)
		r.Delete("/", h.ServeDelete)
		r.Get("/members", h.ServeMembers)
		r.Get("/content", h.ServeContent)

		for _, fn := range attach {
			fn(r)
		}
	})

	return r
}
