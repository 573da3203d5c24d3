package handler

import (
	"net/http"
	"strconv"

	"github.com/rentdesk/rentdesk/internal/httputil"
	"github.com/rentdesk/rentdesk/internal/service"
	"github.com/rentdesk/rentdesk/internal/validation"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to disk.
const multipartMemory = 8 << 20

type fileHandler struct {
	fileService    *service.FileService
	uploadMaxBytes int64
}

func NewFileHandler(fileService *service.FileService, uploadMaxBytes int64) *fileHandler {
	return &fileHandler{
		fileService:    fileService,
		uploadMaxBytes: uploadMaxBytes,
	}
}

// Upload stores a file for a property, optionally inside a folder
// POST /api/files (multipart: file, property_id, folder_id?, username, password)
func (h *fileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes+(1<<20))

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		badRequest(w, "invalid upload", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required", err)
		return
	}
	defer func() { _ = file.Close() }()

	mimeType, err := validation.UploadMimeType(header, h.uploadMaxBytes)
	if err != nil {
		badRequest(w, err.Error(), nil)
		return
	}

	propertyID, _ := strconv.ParseInt(r.FormValue("property_id"), 10, 64)

	req := service.UploadFileRequest{
		Credentials: service.Credentials{
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
		},
		PropertyID: propertyID,
		FolderID:   r.FormValue("folder_id"),
		Filename:   header.Filename,
		MimeType:   mimeType,
	}
	withToken(r, &req.Credentials)

	uploaded, err := h.fileService.Upload(r.Context(), req, file)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "file uploaded",
		"file":    uploaded,
	})
}

// Move
// POST /api/files/move
func (h *fileHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req service.MoveFilesRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	moved, err := h.fileService.Move(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "files moved",
		"files":   moved,
	})
}

// Delete
// POST /api/files/delete
func (h *fileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req service.DeleteFilesRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	result, err := h.fileService.DeleteMany(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "files deleted",
		"files":   result.Files,
		"blobs":   result.Blobs,
	})
}

// List returns a property's files. With folder_id present (even empty) only
// that folder is listed; an empty value lists unfiled files.
// GET /api/properties/{id}/files?folder_id=
func (h *fileHandler) List(w http.ResponseWriter, r *http.Request) {
	propertyID, err := httputil.PathID(r, "id")
	if err != nil {
		badRequest(w, err.Error(), nil)
		return
	}

	var folderID *string
	if query := r.URL.Query(); query.Has("folder_id") {
		id := query.Get("folder_id")
		folderID = &id
	}

	files, err := h.fileService.Files(r.Context(), tokenCredentials(r), propertyID, folderID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"files": files})
}
