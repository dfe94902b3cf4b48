// internal/app/features/logout/handler_test.go
package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	logoutfeature "github.com/codesync-app/codesync/internal/app/features/logout"
	"github.com/codesync-app/codesync/internal/app/system/auth"
	"go.uber.org/zap"
)

func TestServe(t *testing.T) {
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-0123456789ABCDEFGH", "codesync-session", "", false, logger)
	if err != nil {
		t.Fatal(err)
	}
	h := logoutfeature.NewHandler(sessionMgr, logger)

	// Signing out without a session is still a success.
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	// The response must expire the session cookie.
	expired := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "codesync-session" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("session cookie not expired")
	}
}
