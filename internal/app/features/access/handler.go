// internal/app/features/access/handler.go

// Package access exposes the join and invitation endpoints. The join
// endpoint is the single gate into a room: every client session, whatever
// its origin (owner, public link, invitation), goes through it before the
// realtime token endpoint will mint anything for the room.
package access

import (
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/codesync-app/codesync/internal/app/policy/roompolicy"
	invitationstore "github.com/codesync-app/codesync/internal/app/store/invitations"
	userstore "github.com/codesync-app/codesync/internal/app/store/users"
	"github.com/codesync-app/codesync/internal/app/system/apierrors"
	"github.com/codesync-app/codesync/internal/app/system/authz"
	"github.com/codesync-app/codesync/internal/app/system/httpjson"
	"github.com/codesync-app/codesync/internal/app/system/roomaccess"
	"github.com/codesync-app/codesync/internal/app/system/timeouts"
	"github.com/codesync-app/codesync/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Access    *roomaccess.Controller
	Lifecycle *roomaccess.Manager
	Invites   *invitationstore.Store
	Users     *userstore.Store
	BaseURL   string
	InviteTTL time.Duration
	Log       *zap.Logger
}

func NewHandler(access *roomaccess.Controller, lifecycle *roomaccess.Manager, invites *invitationstore.Store, users *userstore.Store, baseURL string, inviteTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		Access:    access,
		Lifecycle: lifecycle,
		Invites:   invites,
		Users:     users,
		BaseURL:   baseURL,
		InviteTTL: inviteTTL,
		Log:       logger,
	}
}

func roomIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "roomID"))
	return id, err == nil
}

type accessRequest struct {
	InviteToken string `json:"inviteToken"`
}

// ServeRequestAccess handles POST /rooms/{roomID}/access. The acting user is
// always the session identity; the optional body carries an invite token
// from a share link.
func (h *Handler) ServeRequestAccess(w http.ResponseWriter, r *http.Request) {
	userID, email, _, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, apierrors.ReasonUnauthorized, "sign in required")
		return
	}
	roomID, ok := roomIDParam(r)
	if !ok {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed room id")
		return
	}

	var req accessRequest
	if r.ContentLength > 0 {
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
			return
		}
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	grant, err := h.Access.RequestAccess(ctx, roomaccess.Identity{UserID: userID, Email: email}, roomID, req.InviteToken)
	if err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}

	h.Log.Info("room access granted",
		zap.String("room_id", roomID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("role", grant.Role),
		zap.Bool("already_member", grant.AlreadyMember))

	resp := map[string]any{
		"success":       true,
		"role":          grant.Role,
		"permissions":   grant.Permissions,
		"alreadyMember": grant.AlreadyMember,
	}
	if grant.Degraded {
		resp["warning"] = "realtime access is out of sync"
	}
	httpjson.OK(w, resp)
}

type inviteRequest struct {
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// ServeInvite handles POST /rooms/{roomID}/invitations, the owner's share
// action. A public room shared with an email that already has an account adds
// the member directly; every other case issues an invitation redeemed through
// the access endpoint. The response carries the share link; delivery of it
// (email or copy-paste) is the client's concern.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		httpjson.Error(w, apierrors.ReasonUnauthorized, "sign in required")
		return
	}
	roomID, ok := roomIDParam(r)
	if !ok {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed room id")
		return
	}

	var req inviteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "valid email required")
		return
	}
	// The owner role is never shareable; there is exactly one owner per room.
	if req.Role == models.RoleOwner || (req.Role != "" && !models.IsValidRole(req.Role)) {
		httpjson.Error(w, apierrors.ReasonInvalid, "unknown role")
		return
	}
	perms := roompolicy.NormalizePermissions(req.Permissions)
	role := req.Role
	if role == "" {
		role = roompolicy.JoinRole(perms)
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	room, err := h.Lifecycle.RequireOwner(ctx, userID, roomID)
	if err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}

	// Public room, known account: add the member directly. An invitation
	// would never be consulted, since the public join path admits before
	// invitation evaluation.
	if room.IsPublic {
		target, err := h.Users.GetByEmail(ctx, req.Email)
		switch {
		case err == nil:
			h.directAdd(w, r, roomID, target.ID, role, perms)
			return
		case errors.Is(err, userstore.ErrNotFound):
		default:
			h.Log.Error("lookup invitee failed", zap.Error(err))
			httpjson.Error(w, apierrors.ReasonInternal, "")
			return
		}
	}

	inv, err := h.Invites.CreateOrRefresh(ctx, roomID, req.Email, role, perms, h.InviteTTL)
	if err != nil {
		h.Log.Error("create invitation failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	h.Log.Info("invitation issued",
		zap.String("room_id", roomID.Hex()),
		zap.String("invited_by", userID.Hex()),
		zap.String("role", role))

	httpjson.Created(w, map[string]any{
		"success": true,
		"invitation": map[string]any{
			"email":       inv.Email,
			"role":        inv.Role,
			"permissions": inv.Permissions,
			"expiresAt":   inv.ExpiresAt.UnixMilli(),
		},
		"shareLink": h.BaseURL + "/rooms/" + roomID.Hex() + "?invite=" + inv.Token,
	})
}

// directAdd upserts the shared-with user's membership and projects it. The
// share link needs no token: the target is already a member when they follow
// it.
func (h *Handler) directAdd(w http.ResponseWriter, r *http.Request, roomID, targetID primitive.ObjectID, role string, perms []string) {
	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	grant, err := h.Access.AddMember(ctx, roomID, targetID, role, perms)
	if err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}

	h.Log.Info("member added by share",
		zap.String("room_id", roomID.Hex()),
		zap.String("user_id", targetID.Hex()),
		zap.String("role", grant.Role))

	resp := map[string]any{
		"success": true,
		"member": map[string]any{
			"userId":      targetID.Hex(),
			"role":        grant.Role,
			"permissions": grant.Permissions,
		},
		"shareLink": h.BaseURL + "/rooms/" + roomID.Hex(),
	}
	if grant.Degraded {
		resp["warning"] = "realtime access is out of sync"
	}
	httpjson.OK(w, resp)
}
