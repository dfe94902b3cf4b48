// internal/app/features/files/content.go
package files

import (
	"errors"
	"net/http"

	filestore "github.com/codesync-app/codesync/internal/app/store/files"
	"github.com/codesync-app/codesync/internal/app/system/apierrors"
	"github.com/codesync-app/codesync/internal/app/system/authz"
	"github.com/codesync-app/codesync/internal/app/system/httpjson"
	"github.com/codesync-app/codesync/internal/app/system/roomaccess"
	"github.com/codesync-app/codesync/internal/app/system/timeouts"
	"github.com/codesync-app/codesync/internal/domain/models"
	"go.uber.org/zap"
)

type contentView struct {
	FileID          string `json:"fileId"`
	Content         string `json:"content"`
	Language        string `json:"language,omitempty"`
	Output          string `json:"output,omitempty"`
	ExecError       string `json:"execError,omitempty"`
	ExecutionTimeMS int64  `json:"executionTimeMs,omitempty"`
	UpdatedAt       int64  `json:"updatedAt"`
}

func contentViewOf(fc models.FileContent) contentView {
	return contentView{
		FileID:          fc.FileID.Hex(),
		Content:         fc.Content,
		Language:        fc.Language,
		Output:          fc.Output,
		ExecError:       fc.ExecError,
		ExecutionTimeMS: fc.ExecutionTimeMS,
		UpdatedAt:       fc.UpdatedAt.UnixMilli(),
	}
}

// ServeGetContent handles GET /rooms/{roomID}/files/{nodeID}/content.
// Members only.
func (h *Handler) ServeGetContent(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if _, err := h.Lifecycle.RequireMember(ctx, roomID, userID); err != nil {
		httpjson.Error(w, roomaccess.Reason(err), err.Error())
		return
	}
	if !h.nodeInRoom(ctx, w, roomID, nodeID) {
		return
	}

	fc, err := h.Files.GetContent(ctx, nodeID)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			httpjson.Error(w, apierrors.ReasonNotFound, "file content not found")
			return
		}
		h.Log.Error("load file content failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.OK(w, map[string]any{"success": true, "content": contentViewOf(fc)})
}

type saveContentRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

// ServeSaveContent handles PUT /rooms/{roomID}/files/{nodeID}/content.
// Write access required. The body is stored verbatim; it is source code,
// not HTML.
func (h *Handler) ServeSaveContent(w http.ResponseWriter, r *http.Request) {
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

	var req saveContentRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
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

	if err := h.Files.SaveContent(ctx, nodeID, req.Content, req.Language, userID); err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			httpjson.Error(w, apierrors.ReasonNotFound, "file content not found")
			return
		}
		h.Log.Error("save file content failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.OK(w, map[string]any{"success": true})
}

type executionRequest struct {
	Output          string `json:"output"`
	Error           string `json:"error"`
	ExecutionTimeMS int64  `json:"executionTimeMs"`
}

// ServeRecordExecution handles POST /rooms/{roomID}/files/{nodeID}/execution.
// Stores the runner's result next to the file body. Write access required.
func (h *Handler) ServeRecordExecution(w http.ResponseWriter, r *http.Request) {
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

	var req executionRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, apierrors.ReasonInvalid, "malformed request body")
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

	if err := h.Files.RecordExecution(ctx, nodeID, req.Output, req.Error, req.ExecutionTimeMS); err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			httpjson.Error(w, apierrors.ReasonNotFound, "file content not found")
			return
		}
		h.Log.Error("record execution failed", zap.Error(err))
		httpjson.Error(w, apierrors.ReasonInternal, "")
		return
	}
	httpjson.OK(w, map[string]any{"success": true})
}
