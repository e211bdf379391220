package handler

import "net/http"

// RegisterRoutes mounts the drive API on mux (Go 1.22+ patterns)
func RegisterRoutes(mux *http.ServeMux, session *SessionHandler, folders *FolderHandler, files *FileHandler) {
	mux.HandleFunc("GET /health", HealthCheck)

	mux.HandleFunc("POST /api/session", session.StartSession)

	// Folder routes. {id} may be "root".
	mux.HandleFunc("GET /api/folders/{id}", folders.GetFolder)
	mux.HandleFunc("GET /api/folders/{id}/folders", folders.ListFolders)
	mux.HandleFunc("GET /api/folders/{id}/files", folders.ListFiles)
	mux.HandleFunc("GET /api/folders/{id}/contents", folders.GetContents)
	mux.HandleFunc("POST /api/folders/{id}/folders", folders.CreateFolder)
	mux.HandleFunc("POST /api/folders/{id}/files", files.UploadFile)
	mux.HandleFunc("POST /api/folders/{id}/share", folders.ShareFolder)

	// File routes
	mux.HandleFunc("GET /api/files", files.ListFiles)
	mux.HandleFunc("GET /api/files/{id}", files.GetFile)
	mux.HandleFunc("GET /api/files/{id}/content", files.DownloadFile)
	mux.HandleFunc("POST /api/files/{id}/share", files.ShareFile)

	// Shared with me
	mux.HandleFunc("GET /api/shared/files", files.ListShared)
	mux.HandleFunc("GET /api/shared/folders", folders.ListShared)
}
