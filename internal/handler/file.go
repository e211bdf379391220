package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"sharedrive/internal/domain"
	driveSvc "sharedrive/internal/domain/services/drive"
	"sharedrive/internal/httputil"
)

// multipartOverhead leaves room for boundaries and form fields around the file part
const multipartOverhead = 1 << 20

// FileHandler handles file HTTP requests
type FileHandler struct {
	fileService    driveSvc.FileService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService driveSvc.FileService, maxUploadBytes int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ListFiles returns the requested files the caller can view, in request order
// GET /api/files?ids=a,b
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.UserID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	ids := httputil.ParseIDList(r.URL.Query().Get("ids"))
	files, err := h.fileService.ListFilesByIDs(r.Context(), userID, ids)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nonNil(files))
}

// GetFile returns a file record
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.UserID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	file, err := h.fileService.GetFile(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// DownloadFile streams the file's content
// GET /api/files/{id}/content
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.UserID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	file, content, err := h.fileService.DownloadFile(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	defer content.Close()

	contentType := mime.TypeByExtension(filepath.Ext(file.Content))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		// headers are sent, nothing left to report to the client
		h.logger.Warn("download interrupted", "file_id", file.ID, "error", err)
	}
}

// UploadFile stores the multipart field "file" in the folder. An optional
// "last_modified" field carries the client's modification time in Unix milliseconds.
// POST /api/folders/{id}/files
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, folderID, err := folderRoute(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	part, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, h.logger, uploadFormError(err))
		return
	}
	defer part.Close()

	if header.Size > h.maxUploadBytes {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
		return
	}

	content, err := io.ReadAll(part)
	if err != nil {
		handleError(w, h.logger, fmt.Errorf("read upload: %w", err))
		return
	}

	lastModified, err := parseLastModified(r.FormValue("last_modified"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	file, err := h.fileService.UploadFile(r.Context(), &driveSvc.UploadFileRequest{
		UserID:       userID,
		ParentID:     folderID,
		Name:         header.Filename,
		LastModified: lastModified,
		Content:      content,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// ShareFile grants view access on the file to the account with the given email
// POST /api/files/{id}/share
func (h *FileHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.UserID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req driveSvc.ShareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.UserID = userID
	req.ObjectID = r.PathValue("id")

	if err := h.fileService.ShareFile(r.Context(), &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListShared returns files other users shared with the caller
// GET /api/shared/files
func (h *FileHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.UserID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	files, err := h.fileService.ListSharedFiles(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nonNil(files))
}

// uploadFormError keeps body-size failures distinguishable and reports
// everything else as a malformed request.
func uploadFormError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("multipart field \"file\" is required: %w", domain.ErrValidation)
}

func parseLastModified(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil || ms < 0 {
		return time.Time{}, fmt.Errorf("last_modified must be Unix milliseconds: %w", domain.ErrValidation)
	}
	return time.UnixMilli(ms).UTC(), nil
}
