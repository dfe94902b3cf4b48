// internal/app/features/realtimeauth/handler.go

// Package realtimeauth mints the short-lived tokens clients present to the
// realtime collaboration backend. A token is only ever minted from the
// caller's stored membership, so the backend can trust its claims without a
// callback.
package realtimeauth

import (
	"net/http"
	"time"

	"github.com/codesync-app/codesync/internal/app/system/apierrors"
	"github.com/codesync-app/codesync/internal/app/system/authz"
	"github.com/codesync-app/codesync/internal/app/system/httpjson"
	"github.com/codesync-app/codesync/internal/app/system/realtime"
	"github.com/codesync-app/codesync/internal/app/system/roomaccess"
	"github.com/codesync-app/codesync/internal/app/system/timeouts"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TokenTTL bounds a session token's life. Clients re-authenticate on expiry;
// a revoked membership therefore takes effect within this window even if the
// access projection lagged.
const TokenTTL = time.Hour

type Handler struct {
	Lifecycle *roomaccess.Manager
	SignKey   []byte
	Log       *zap.Logger

	// now is stubbed in tests.
	now func() time.Time
}

func NewHandler(lifecycle *roomaccess.Manager, signKey []byte, logger *zap.Logger) *Handler {
	return &Handler{
		Lifecycle: lifecycle,
		SignKey:   signKey,
		Log:       logger,
		now:       time.Now,
	}
}

// SessionClaims is the token payload the realtime backend verifies.
type SessionClaims struct {
	RoomID      string   `json:"roomId"`
	Name        string   `json:"name,omitempty"`
	Accesses    []string `json:"accesses"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

type authRequest struct {
	RoomID string `json:"roomId"`
}

// Serve handles POST /realtime/auth. The caller must already hold a
// membership in the room; the minted token carries the access level derived
// from it.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, _, name, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, apierrors.ReasonUnauthorized, "sign in required")
		return
	}

	var req authRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
		return
	}
	roomID, err := primitive.ObjectIDFromHex(req.RoomID)
	if err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed room id")
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	membership, err := h.Lifecycle.RequireMember(ctx, roomID, userID)
	if err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}

	now := h.now().UTC()
	claims := SessionClaims{
		RoomID:      roomID.Hex(),
		Name:        name,
		Accesses:    realtime.GrantFor(membership.Permissions),
		Permissions: membership.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.SignKey)
	if err != nil {
		h.Log.Error("sign realtime token failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	httpjson.OK(w, map[string]any{
		"success":   true,
		"token":     token,
		"expiresAt": now.Add(TokenTTL).UnixMilli(),
	})
}
