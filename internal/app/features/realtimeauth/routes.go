// internal/app/features/realtimeauth/routes.go
package realtimeauth

import "github.com/go-chi/chi/v5"

// Routes returns the router for realtime session tokens. Mounted behind the
// signed-in middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Serve)
	return r
}
