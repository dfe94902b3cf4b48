// internal/app/features/files/handler.go

// Package files exposes the room file tree and file contents. Reads need
// membership; anything that mutates the tree or a file body needs write
// access.
package files

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	filestore "github.com/codesync-app/codesync/internal/app/store/files"
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
	Lifecycle *roomaccess.Manager
	Files     *filestore.Store
	Log       *zap.Logger
}

func NewHandler(lifecycle *roomaccess.Manager, files *filestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Lifecycle: lifecycle, Files: files, Log: logger}
}

func roomIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "roomID"))
	return id, err == nil
}

func nodeIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "nodeID"))
	return id, err == nil
}

// requireWriter loads the caller's membership and checks write access.
func (h *Handler) requireWriter(w http.ResponseWriter, r *http.Request, roomID, userID primitive.ObjectID) bool {
	membership, err := h.Lifecycle.RequireMember(r.Context(), roomID, userID)
	if err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return false
	}
	if !membership.CanWrite() {
		httpjson.Error(w, apierrors.ReasonForbidden, "write access required")
		return false
	}
	return true
}

type nodeView struct {
	ID        string `json:"id"`
	ParentID  string `json:"parentId,omitempty"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Extension string `json:"extension,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

func viewOf(n models.FileNode) nodeView {
	v := nodeView{
		ID:        n.ID.Hex(),
		Name:      n.Name,
		Type:      n.Type,
		Extension: n.Extension,
		CreatedAt: n.CreatedAt.UnixMilli(),
		UpdatedAt: n.UpdatedAt.UnixMilli(),
	}
	if n.ParentID != nil {
		v.ParentID = n.ParentID.Hex()
	}
	return v
}

// ServeTree handles GET /rooms/{roomID}/files. Members only.
func (h *Handler) ServeTree(w http.ResponseWriter, r *http.Request) {
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
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}

	nodes, err := h.Files.ListByRoom(ctx, roomID)
	if err != nil {
		h.Log.Error("list file tree failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}

	views := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, viewOf(n))
	}
	httpjson.OK(w, map[string]any{"success": true, "nodes": views})
}

type createRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID string `json:"parentId"`
}

// ServeCreate handles POST /rooms/{roomID}/files. Write access required.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
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

	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.ContainsAny(req.Name, "/\\") {
		httpjson.Error(w, apierrors.ReasonInvalid, "invalid node name")
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if !h.requireWriter(w, r.WithContext(ctx), roomID, userID) {
		return
	}

	node := models.FileNode{
		RoomID:    roomID,
		Name:      req.Name,
		Type:      req.Type,
		CreatedBy: userID,
	}
	if req.Type == models.NodeFile {
		node.Extension = strings.TrimPrefix(filepath.Ext(req.Name), ".")
	}
	if req.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			httpjson.Error(w, apierrors.ReasonInvalid, "malformed parent id")
			return
		}
		parent, err := h.Files.GetNode(ctx, parentID)
		if err != nil || parent.RoomID != roomID || parent.Type != models.NodeFolder {
			httpjson.Error(w, apierrors.ReasonInvalid, "parent must be a folder in this room")
			return
		}
		node.ParentID = &parentID
	}

	created, err := h.Files.CreateNode(ctx, node)
	if err != nil {
		if errors.Is(err, filestore.ErrBadType) {
			httpjson.Error(w, apierrors.ReasonInvalid, err.Error())
			return
		}
		h.Log.Error("create file node failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.Created(w, map[string]any{"success": true, "node": viewOf(created)})
}

type renameRequest struct {
	Name string `json:"name"`
}

// ServeRename handles PATCH /rooms/{roomID}/files/{nodeID}. Write access.
func (h *Handler) ServeRename(w http.ResponseWriter, r *http.Request) {
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
	nodeID, ok := nodeIDParam(r)
	if !ok {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed node id")
		return
	}

	var req renameRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.ContainsAny(req.Name, "/\\") {
		httpjson.Error(w, apierrors.ReasonInvalid, "invalid node name")
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if !h.requireWriter(w, r.WithContext(ctx), roomID, userID) {
		return
	}
	if !h.nodeInRoom(ctx, w, roomID, nodeID) {
		return
	}

	if err := h.Files.RenameNode(ctx, nodeID, req.Name, userID); err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			httpjson.Error(w, apierrors.ReasonNotFound, "node not found")
			return
		}
		h.Log.Error("rename node failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.OK(w, map[string]any{"success": true})
}

// ServeDelete handles DELETE /rooms/{roomID}/files/{nodeID}. Write access.
// Deleting a folder removes its whole subtree.
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
	nodeID, ok := nodeIDParam(r)
	if !ok {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed node id")
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	if !h.requireWriter(w, r.WithContext(ctx), roomID, userID) {
		return
	}

	deleted, err := h.Files.DeleteNode(ctx, roomID, nodeID)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			httpjson.Error(w, apierrors.ReasonNotFound, "node not found")
			return
		}
		h.Log.Error("delete node failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.OK(w, map[string]any{"success": true, "deleted": deleted})
}

// nodeInRoom verifies the node belongs to the room, writing the error reply
// if not.
func (h *Handler) nodeInRoom(ctx context.Context, w http.ResponseWriter, roomID, nodeID primitive.ObjectID) bool {
	node, err := h.Files.GetNode(ctx, nodeID)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			httpjson.Error(w, apierrors.ReasonNotFound, "node not found")
			return false
		}
		h.Log.Error("load node failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return false
	}
	if node.RoomID != roomID {
		httpjson.Error(w, apierrors.ReasonNotFound, "node not found")
		return false
	}
	return true
}
