package handler

import (
	"log/slog"
	"net/http"

	driveSvc "sharedrive/internal/domain/services/drive"
	"sharedrive/internal/httputil"
)

// SessionHandler bootstraps a signed-in user's drive
type SessionHandler struct {
	folderService driveSvc.FolderService
	logger        *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(folderService driveSvc.FolderService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		folderService: folderService,
		logger:        logger,
	}
}

// SessionResponse identifies the caller and their root folder
type SessionResponse struct {
	UserID       string `json:"user_id"`
	RootFolderID string `json:"root_folder_id"`
}

// StartSession makes sure the caller owns their root folder
// POST /api/session
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.UserID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	root, err := h.folderService.EstablishRootFolder(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, SessionResponse{
		UserID:       userID,
		RootFolderID: root.ID,
	})
}
