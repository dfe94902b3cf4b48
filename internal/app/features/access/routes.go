// internal/app/features/access/routes.go
package access

import "github.com/go-chi/chi/v5"

// Attach registers the access endpoints on a room-scoped router (one already
// carrying the {roomID} parameter).
func Attach(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/access", h.ServeRequestAccess)
		r.Post("/invitations", h.ServeInvite)
	}
}
