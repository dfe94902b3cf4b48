// internal/app/features/rooms/handler.go

// Package rooms exposes room CRUD: listing, creation, detail, the typed
// PATCH endpoint, deletion, and the member roster. Creation and deletion
// delegate to the lifecycle manager so the realtime backend stays in step
// with the durable records.
package rooms

import (
	"errors"
	"net/http"

	membershipstore "github.com/codesync-app/codesync/internal/app/store/memberships"
	contentstore "github.com/codesync-app/codesync/internal/app/store/roomcontent"
	roomstore "github.com/codesync-app/codesync/internal/app/store/rooms"
	userstore "github.com/codesync-app/codesync/internal/app/store/users"
	"github.com/codesync-app/codesync/internal/app/system/apierrors"
	"github.com/codesync-app/codesync/internal/app/system/authz"
	"github.com/codesync-app/codesync/internal/app/system/httpjson"
	"github.com/codesync-app/codesync/internal/app/system/roomaccess"
	"github.com/codesync-app/codesync/internal/app/system/timeouts"
	"github.com/codesync-app/codesync/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Lifecycle *roomaccess.Manager
	Access    *roomaccess.Controller
	Rooms     *roomstore.Store
	Members   *membershipstore.Store
	Content   *contentstore.Store
	Users     *userstore.Store
	Log       *zap.Logger

	sanitize *bluemonday.Policy
}

func NewHandler(lifecycle *roomaccess.Manager, access *roomaccess.Controller, rooms *roomstore.Store, members *membershipstore.Store, content *contentstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Lifecycle: lifecycle,
		Access:    access,
		Rooms:     rooms,
		Members:   members,
		Content:   content,
		Users:     users,
		Log:       logger,
		sanitize:  bluemonday.StrictPolicy(),
	}
}

// roomView is the JSON shape of a room.
type roomView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	OwnerID      string `json:"ownerId"`
	RoomType     string `json:"roomType"`
	IsPublic     bool   `json:"isPublic"`
	MaxUsers     int    `json:"maxUsers,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	LastAccessed int64  `json:"lastAccessed"`
}

func viewOf(room models.Room) roomView {
	return roomView{
		ID:           room.ID.Hex(),
		Name:         room.Name,
		Description:  room.Description,
		OwnerID:      room.OwnerID.Hex(),
		RoomType:     room.RoomType,
		IsPublic:     room.IsPublic,
		MaxUsers:     room.MaxUsers,
		CreatedAt:    room.CreatedAt.UnixMilli(),
		LastAccessed: room.LastAccessed.UnixMilli(),
	}
}

// roomIDParam parses the {roomID} route parameter.
func roomIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "roomID"))
	return id, err == nil
}

// writeAccessError translates a roomaccess error into the JSON envelope.
func writeAccessError(w http.ResponseWriter, err error) {
	httpjson.Error(w, roomaccess.Reason(err), err.Error())
}

// ServeList handles GET /rooms: the caller's owned rooms, most recent first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		httpjson.Error(w, apierrors.ReasonUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	rooms, err := h.Rooms.ListByOwner(ctx, userID)
	if err != nil {
		h.Log.Error("list rooms failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	views := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, viewOf(room))
	}
	httpjson.OK(w, map[string]any{"success": true, "rooms": views})
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RoomType    string `json:"roomType"`
	IsPublic    bool   `json:"isPublic"`
	MaxUsers    int    `json:"maxUsers"`
}

// ServeCreate handles POST /rooms.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		httpjson.Error(w, apierrors.ReasonUnauthorized, "sign in required")
		return
	}

	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
		return
	}
	req.Name = h.sanitize.Sanitize(req.Name)
	if req.Name == "" {
		httpjson.Error(w, apierrors.ReasonInvalid, "room name required")
		return
	}
	if req.RoomType != "" && !models.IsValidRoomType(req.RoomType) {
		httpjson.Error(w, apierrors.ReasonInvalid, "unknown room type")
		return
	}
	if req.MaxUsers < 0 {
		httpjson.Error(w, apierrors.ReasonInvalid, "maxUsers must be non-negative")
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	room, err := h.Lifecycle.CreateRoom(ctx, roomaccess.CreateRoomParams{
		Name:        req.Name,
		Description: h.sanitize.Sanitize(req.Description),
		OwnerID:     userID,
		RoomType:    req.RoomType,
		IsPublic:    req.IsPublic,
		MaxUsers:    req.MaxUsers,
	})
	if err != nil {
		if errors.Is(err, roomaccess.ErrRealtimeProvision) {
			writeAccessError(w, err)
			return
		}
		h.Log.Error("create room failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	h.Log.Info("room created",
		zap.String("room_id", room.ID.Hex()),
		zap.String("owner_id", userID.Hex()))
	httpjson.Created(w, map[string]any{"success": true, "room": viewOf(room)})
}

// ServeGet handles GET /rooms/{roomID}. Members only; the response includes
// the caller's own membership so clients can gate UI affordances.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomstore.ErrNotFound) {
			httpjson.Error(w, apierrors.ReasonRoomNotFound, "room not found")
			return
		}
		h.Log.Error("load room failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	membership, err := h.Lifecycle.RequireMember(ctx, roomID, userID)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	httpjson.OK(w, map[string]any{
		"success": true,
		"room":    viewOf(room),
		"membership": map[string]any{
			"role":        membership.Role,
			"permissions": membership.Permissions,
		},
	})
}

// ServeDelete handles DELETE /rooms/{roomID}. Owner only.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
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

	degraded, err := h.Lifecycle.DeleteRoom(ctx, userID, roomID)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	resp := map[string]any{"success": true}
	if degraded {
		resp["warning"] = "realtime room removal is pending"
	}
	httpjson.OK(w, resp)
}

// ServeContent handles GET /rooms/{roomID}/content. Members only. A room
// that has never been saved returns an empty content object rather than 404.
func (h *Handler) ServeContent(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if _, err := h.Lifecycle.RequireMember(ctx, roomID, userID); err != nil {
		writeAccessError(w, err)
		return
	}

	rc, err := h.Content.Get(ctx, roomID)
	if err != nil && !errors.Is(err, contentstore.ErrNotFound) {
		h.Log.Error("load room content failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.OK(w, map[string]any{"success": true, "content": contentViewOf(roomID, rc)})
}

type contentView struct {
	RoomID          string                `json:"roomId"`
	ActiveFileID    string                `json:"activeFileId,omitempty"`
	Settings        models.EditorSettings `json:"settings"`
	AutoSaveEnabled bool                  `json:"autoSaveEnabled"`
	Version         int                   `json:"version"`
	SavedAt         int64                 `json:"savedAt,omitempty"`
}

func contentViewOf(roomID primitive.ObjectID, rc models.RoomContent) contentView {
	v := contentView{
		RoomID:          roomID.Hex(),
		Settings:        rc.Settings,
		AutoSaveEnabled: rc.AutoSaveEnabled,
		Version:         rc.Version,
	}
	if rc.ActiveFileID != nil {
		v.ActiveFileID = rc.ActiveFileID.Hex()
	}
	if !rc.SavedAt.IsZero() {
		v.SavedAt = rc.SavedAt.UnixMilli()
	}
	return v
}
