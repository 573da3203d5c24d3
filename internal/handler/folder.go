package handler

import (
	"net/http"

	"github.com/rentdesk/rentdesk/internal/httputil"
	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/service"
)

type folderHandler struct {
	folderService *service.FolderService
}

func NewFolderHandler(folderService *service.FolderService) *folderHandler {
	return &folderHandler{
		folderService: folderService,
	}
}

type folderResponse struct {
	Message string        `json:"message"`
	Folder  *model.Folder `json:"folder"`
}

// Create adds a folder to a property; repeating it is harmless
// POST /api/folders
func (h *folderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	folder, err := h.folderService.Create(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folderResponse{Message: "folder created", Folder: folder})
}

// Rename
// POST /api/folders/rename
func (h *folderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req service.RenameFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	folder, err := h.folderService.Rename(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folderResponse{Message: "folder renamed", Folder: folder})
}

// Delete removes folders together with their files
// POST /api/folders/delete
func (h *folderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req service.DeleteFoldersRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	result, err := h.folderService.DeleteMany(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "folders deleted",
		"folders": result.Folders,
		"files":   result.Files,
		"blobs":   result.Blobs,
	})
}

// List
// GET /api/properties/{id}/folders
func (h *folderHandler) List(w http.ResponseWriter, r *http.Request) {
	propertyID, err := httputil.PathID(r, "id")
	if err != nil {
		badRequest(w, err.Error(), nil)
		return
	}

	folders, err := h.folderService.Folders(r.Context(), tokenCredentials(r), propertyID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"folders": folders})
}
