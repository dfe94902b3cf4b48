// internal/app/features/messages/routes.go
package messages

import "github.com/go-chi/chi/v5"

// Routes returns the chat router, mounted under /rooms/{roomID}/messages.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.ServePost)
	r.Patch("/{messageID}", h.ServeEdit)
	r.Delete("/{messageID}", h.ServeDelete)
	return r
}
