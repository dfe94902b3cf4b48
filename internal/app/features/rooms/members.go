// internal/app/features/rooms/members.go
package rooms

import (
	"net/http"

	"github.com/codesync-app/codesync/internal/app/system/apierrors"
	"github.com/codesync-app/codesync/internal/app/system/authz"
	"github.com/codesync-app/codesync/internal/app/system/httpjson"
	"github.com/codesync-app/codesync/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// memberView joins a membership with the member's profile.
type memberView struct {
	UserID       string   `json:"userId"`
	DisplayName  string   `json:"displayName"`
	Email        string   `json:"email"`
	AvatarURL    string   `json:"avatarUrl,omitempty"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	JoinedAt     int64    `json:"joinedAt"`
	LastActiveAt int64    `json:"lastActiveAt"`
}

// ServeMembers handles GET /rooms/{roomID}/members. Members only.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	if _, err := h.Lifecycle.RequireMember(ctx, roomID, userID); err != nil {
		writeAccessError(w, err)
		return
	}

	memberships, err := h.Members.ListByRoom(ctx, roomID)
	if err != nil {
		h.Log.Error("list memberships failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	profiles, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		h.Log.Error("load member profiles failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	views := make([]memberView, 0, len(memberships))
	for _, m := range memberships {
		v := memberView{
			UserID:       m.UserID.Hex(),
			Role:         m.Role,
			Permissions:  m.Permissions,
			JoinedAt:     m.JoinedAt.UnixMilli(),
			LastActiveAt: m.LastActiveAt.UnixMilli(),
		}
		if u, ok := profiles[m.UserID]; ok {
			v.DisplayName = u.DisplayName
			v.Email = u.Email
			v.AvatarURL = u.AvatarURL
		}
		views = append(views, v)
	}
	httpjson.OK(w, map[string]any{"success": true, "members": views})
}
