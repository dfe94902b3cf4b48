// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/codesync-app/codesync/internal/app/system/auth"
	"github.com/codesync-app/codesync/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// Handler clears the caller's session.
type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, Log: logger}
}

// Serve handles POST /auth/logout. Always succeeds; signing out a session
// that does not exist is not an error.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign-out failed", zap.Error(err))
	}
	httpjson.OK(w, map[string]any{"success": true})
}
