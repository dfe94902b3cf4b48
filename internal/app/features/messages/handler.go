// internal/app/features/messages/handler.go

// Package messages exposes room chat. Message text is sanitized on the way
// in; the store enforces author-only edits and deletes at the document level.
package messages

import (
	"errors"
	"net/http"
	"strconv"

	messagestore "github.com/codesync-app/codesync/internal/app/store/messages"
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
	Messages  *messagestore.Store
	Log       *zap.Logger

	sanitize *bluemonday.Policy
}

func NewHandler(lifecycle *roomaccess.Manager, messages *messagestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Lifecycle: lifecycle,
		Messages:  messages,
		Log:       logger,
		sanitize:  bluemonday.StrictPolicy(),
	}
}

func roomIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "roomID"))
	return id, err == nil
}

type messageView struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"userId,omitempty"`
	Segments  []models.MessageSegment `json:"segments"`
	IsAI      bool                    `json:"isAi"`
	ReplyToID string                  `json:"replyToId,omitempty"`
	CreatedAt int64                   `json:"createdAt"`
	EditedAt  int64                   `json:"editedAt,omitempty"`
}

func viewOf(m models.Message) messageView {
	v := messageView{
		ID:        m.ID.Hex(),
		Segments:  m.Segments,
		IsAI:      m.IsAI,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
	if m.UserID != nil {
		v.UserID = m.UserID.Hex()
	}
	if m.ReplyToID != nil {
		v.ReplyToID = m.ReplyToID.Hex()
	}
	if m.EditedAt != nil {
		v.EditedAt = m.EditedAt.UnixMilli()
	}
	return v
}

// cleanSegments sanitizes segment content and drops empty segments. Code
// segments keep their text verbatim apart from HTML stripping; rendering is
// the client's job.
func (h *Handler) cleanSegments(segments []models.MessageSegment) []models.MessageSegment {
	out := make([]models.MessageSegment, 0, len(segments))
	for _, seg := range segments {
		seg.Content = h.sanitize.Sanitize(seg.Content)
		if seg.Content == "" {
			continue
		}
		if seg.Type != "text" && seg.Type != "code" {
			seg.Type = "text"
		}
		out = append(out, seg)
	}
	return out
}

// ServeList handles GET /rooms/{roomID}/messages?limit=n. Members only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
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

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			httpjson.Error(w, apierrors.ReasonInvalid, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if _, err := h.Lifecycle.RequireMember(ctx, roomID, userID); err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}

	msgs, err := h.Messages.ListByRoom(ctx, roomID, limit)
	if err != nil {
		h.Log.Error("list messages failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, viewOf(m))
	}
	httpjson.OK(w, map[string]any{"success": true, "messages": views})
}

type postRequest struct {
	Segments  []models.MessageSegment `json:"segments"`
	ReplyToID string                  `json:"replyToId"`
}

// ServePost handles POST /rooms/{roomID}/messages. Members only.
func (h *Handler) ServePost(w http.ResponseWriter, r *http.Request) {
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

	var req postRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
		return
	}
	segments := h.cleanSegments(req.Segments)
	if len(segments) == 0 {
		httpjson.Error(w, apierrors.ReasonInvalid, "message is empty")
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if _, err := h.Lifecycle.RequireMember(ctx, roomID, userID); err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}

	msg := models.Message{
		RoomID:   roomID,
		UserID:   &userID,
		Segments: segments,
	}
	if req.ReplyToID != "" {
		replyID, err := primitive.ObjectIDFromHex(req.ReplyToID)
		if err != nil {
			httpjson.Error(w, apierrors.ReasonInvalid, "malformed replyToId")
			return
		}
		msg.ReplyToID = &replyID
	}

	saved, err := h.Messages.Insert(ctx, msg)
	if err != nil {
		h.Log.Error("insert message failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.Created(w, map[string]any{"success": true, "message": viewOf(saved)})
}

type editRequest struct {
	Segments []models.MessageSegment `json:"segments"`
}

// ServeEdit handles PATCH /rooms/{roomID}/messages/{messageID}. Author only.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
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
	msgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "messageID"))
	if err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed message id")
		return
	}

	var req editRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
		return
	}
	segments := h.cleanSegments(req.Segments)
	if len(segments) == 0 {
		httpjson.Error(w, apierrors.ReasonInvalid, "message is empty")
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if _, err := h.Lifecycle.RequireMember(ctx, roomID, userID); err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}

	if err := h.Messages.Edit(ctx, msgID, userID, segments); err != nil {
		if errors.Is(err, messagestore.ErrNotFound) {
			// Not found or not the author; the store cannot tell them apart
			// and neither should the response.
			httpjson.Error(w, apierrors.ReasonNotFound, "message not found")
			return
		}
		h.Log.Error("edit message failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.OK(w, map[string]any{"success": true})
}

// ServeDelete handles DELETE /rooms/{roomID}/messages/{messageID}. Author only.
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
	msgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "messageID"))
	if err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed message id")
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if _, err := h.Lifecycle.RequireMember(ctx, roomID, userID); err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}

	if err := h.Messages.Delete(ctx, msgID, userID); err != nil {
		if errors.Is(err, messagestore.ErrNotFound) {
			httpjson.Error(w, apierrors.ReasonNotFound, "message not found")
			return
		}
		h.Log.Error("delete message failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.OK(w, map[string]any{"success": true})
}
