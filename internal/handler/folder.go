package handler

import (
	"log/slog"
	"net/http"

	"sharedrive/internal/domain/models/drive"
	driveSvc "sharedrive/internal/domain/services/drive"
	"sharedrive/internal/httputil"
)

// rootAlias stands for the caller's root folder in folder routes
const rootAlias = "root"

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService driveSvc.FolderService
	fileService   driveSvc.FileService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService driveSvc.FolderService, fileService driveSvc.FileService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		fileService:   fileService,
		logger:        logger,
	}
}

// folderRoute returns the caller and the folder named by the {id} path value
func folderRoute(r *http.Request) (userID, folderID string, err error) {
	userID, err = httputil.UserID(r)
	if err != nil {
		return "", "", err
	}
	folderID = r.PathValue("id")
	if folderID == rootAlias {
		folderID = userID
	}
	return userID, folderID, nil
}

// GetFolder returns a folder record
// GET /api/folders/{id}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	userID, folderID, err := folderRoute(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	folder, err := h.folderService.GetFolder(r.Context(), userID, folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// ListFolders returns the child folders the caller can view
// GET /api/folders/{id}/folders
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, folderID, err := folderRoute(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	folders, err := h.folderService.ListFoldersForParent(r.Context(), userID, folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nonNil(folders))
}

// ListFiles returns the child files the caller can view
// GET /api/folders/{id}/files
func (h *FolderHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID, folderID, err := folderRoute(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	files, err := h.fileService.ListFilesForParent(r.Context(), userID, folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nonNil(files))
}

// GetContents returns the folder with its visible children
// GET /api/folders/{id}/contents
func (h *FolderHandler) GetContents(w http.ResponseWriter, r *http.Request) {
	userID, folderID, err := folderRoute(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	contents, err := h.folderService.ListFolderContents(r.Context(), userID, folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	contents.Folders = nonNil(contents.Folders)
	contents.Files = nonNil(contents.Files)
	httputil.RespondJSON(w, http.StatusOK, contents)
}

// CreateFolder creates a child folder
// POST /api/folders/{id}/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, folderID, err := folderRoute(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req driveSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.UserID = userID
	req.ParentID = folderID

	folder, err := h.folderService.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// ShareFolder grants view access on the folder to the account with the given email
// POST /api/folders/{id}/share
func (h *FolderHandler) ShareFolder(w http.ResponseWriter, r *http.Request) {
	userID, folderID, err := folderRoute(r)
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
	req.ObjectID = folderID

	if err := h.folderService.ShareFolder(r.Context(), &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListShared returns folders other users shared with the caller
// GET /api/shared/folders
func (h *FolderHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.UserID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	folders, err := h.folderService.ListSharedFolders(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nonNil(folders))
}

// nonNil makes empty lists encode as [] rather than null
func nonNil[T drive.File | drive.Folder](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
