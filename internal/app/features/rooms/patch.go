// internal/app/features/rooms/patch.go
package rooms

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codesync-app/codesync/internal/app/policy/roompolicy"
	contentstore "github.com/codesync-app/codesync/internal/app/store/roomcontent"
	roomstore "github.com/codesync-app/codesync/internal/app/store/rooms"
	"github.com/codesync-app/codesync/internal/app/system/apierrors"
	"github.com/codesync-app/codesync/internal/app/system/authz"
	"github.com/codesync-app/codesync/internal/app/system/httpjson"
	"github.com/codesync-app/codesync/internal/app/system/roomaccess"
	"github.com/codesync-app/codesync/internal/app/system/timeouts"
	"github.com/codesync-app/codesync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// patchEnvelope is the discriminated-union body of PATCH /rooms/{roomID}.
// Type picks the variant; the remaining fields belong to exactly one of them.
type patchEnvelope struct {
	Type string `json:"type"`

	// roomInfo
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	RoomType    *string `json:"roomType,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
	MaxUsers    *int    `json:"maxUsers,omitempty"`

	// roomContent
	ActiveFileID    *string                `json:"activeFileId,omitempty"`
	Settings        *models.EditorSettings `json:"settings,omitempty"`
	AutoSaveEnabled *bool                  `json:"autoSaveEnabled,omitempty"`

	// roomUser
	UserID      *string  `json:"userId,omitempty"`
	Role        *string  `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// ServePatch handles PATCH /rooms/{roomID}. The body's type field selects
// which slice of room state is being updated: metadata, editor content
// state, or a member's grant.
func (h *Handler) ServePatch(w http.ResponseWriter, r *http.Request) {
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

	var env patchEnvelope
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
		return
	}

	switch env.Type {
	case "roomInfo":
		h.patchInfo(w, r, userID, roomID, env)
	case "roomContent":
		h.patchContent(w, r, userID, roomID, env)
	case "roomUser":
		h.patchUser(w, r, userID, roomID, env)
	default:
		httpjson.Error(w, apierrors.ReasonInvalid, "unknown patch type")
	}
}

// patchInfo updates room metadata. Owner only; enforced by the lifecycle
// manager, which also re-pushes the realtime defaults when visibility or
// type change.
func (h *Handler) patchInfo(w http.ResponseWriter, r *http.Request, userID, roomID primitive.ObjectID, env patchEnvelope) {
	if env.Name != nil {
		clean := h.sanitize.Sanitize(*env.Name)
		if clean == "" {
			httpjson.Error(w, apierrors.ReasonInvalid, "room name cannot be empty")
			return
		}
		env.Name = &clean
	}
	if env.Description != nil {
		clean := h.sanitize.Sanitize(*env.Description)
		env.Description = &clean
	}
	if env.MaxUsers != nil && *env.MaxUsers < 0 {
		httpjson.Error(w, apierrors.ReasonInvalid, "maxUsers must be non-negative")
		return
	}
	if env.RoomType != nil && !models.IsValidRoomType(*env.RoomType) {
		httpjson.Error(w, apierrors.ReasonInvalid, "unknown room type")
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	room, degraded, err := h.Lifecycle.UpdateRoomInfo(ctx, userID, roomID, roomstore.InfoPatch{
		Name:        env.Name,
		Description: env.Description,
		RoomType:    env.RoomType,
		IsPublic:    env.IsPublic,
		MaxUsers:    env.MaxUsers,
	})
	if err != nil {
		if errors.Is(err, roomaccess.ErrRoomNotFound) || errors.Is(err, roomaccess.ErrNotOwner) {
			writeAccessError(w, err)
			return
		}
		h.Log.Error("patch room info failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	resp := map[string]any{"success": true, "room": viewOf(room)}
	if degraded {
		resp["warning"] = "realtime room settings are out of sync"
	}
	httpjson.OK(w, resp)
}

// patchContent saves editor state. Any member with write access may save.
func (h *Handler) patchContent(w http.ResponseWriter, r *http.Request, userID, roomID primitive.ObjectID, env patchEnvelope) {
	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	membership, err := h.Lifecycle.RequireMember(ctx, roomID, userID)
	if err != nil {
		writeAccessError(w, err)
		return
	}
	if !membership.CanWrite() {
		httpjson.Error(w, apierrors.ReasonForbidden, "write access required")
		return
	}

	patch := contentstore.SavePatch{
		Settings:        env.Settings,
		AutoSaveEnabled: env.AutoSaveEnabled,
	}
	if env.ActiveFileID != nil {
		fileID, err := primitive.ObjectIDFromHex(*env.ActiveFileID)
		if err != nil {
			httpjson.Error(w, apierrors.ReasonInvalid, "malformed active file id")
			return
		}
		patch.ActiveFileID = &fileID
	}

	rc, err := h.Content.Save(ctx, roomID, patch)
	if err != nil {
		h.Log.Error("save room content failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	if err := h.Rooms.TouchLastAccessed(ctx, roomID); err != nil {
		h.Log.Warn("touch last_accessed failed", zap.Error(err))
	}
	httpjson.OK(w, map[string]any{"success": true, "content": contentViewOf(roomID, rc)})
}

// patchUser changes another member's role or permissions. Owner only;
// enforced by the access controller, which also projects the new grant.
func (h *Handler) patchUser(w http.ResponseWriter, r *http.Request, userID, roomID primitive.ObjectID, env patchEnvelope) {
	if env.UserID == nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "userId required")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(*env.UserID)
	if err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed user id")
		return
	}
	if env.Role != nil && !models.IsValidRole(*env.Role) {
		httpjson.Error(w, apierrors.ReasonInvalid, "unknown role")
		return
	}
	perms := env.Permissions
	if perms != nil {
		perms = roompolicy.NormalizePermissions(perms)
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	membership, degraded, err := h.Access.UpdateMembership(ctx, userID, roomID, targetID, env.Role, perms)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	resp := map[string]any{
		"success": true,
		"membership": map[string]any{
			"userId":      membership.UserID.Hex(),
			"role":        membership.Role,
			"permissions": membership.Permissions,
		},
	}
	if degraded {
		resp["warning"] = "realtime access is out of sync"
	}
	httpjson.OK(w, resp)
}
