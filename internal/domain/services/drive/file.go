package drive

import (
	"context"
	"io"
	"time"

	"sharedrive/internal/domain/models/drive"
)

// FileService handles file business logic. Every method runs its capability
// check before reading or writing metadata.
type FileService interface {
	// GetFile requires can_view on the file
	GetFile(ctx context.Context, userID, fileID string) (*drive.File, error)

	// ListFilesForParent lists a folder's files filtered to those the user can view
	ListFilesForParent(ctx context.Context, userID, parentID string) ([]drive.File, error)

	// ListFilesByIDs loads files by id filtered to those the user can view
	ListFilesByIDs(ctx context.Context, userID string, ids []string) ([]drive.File, error)

	// UploadFile requires can_create_file on the parent. Content is stored
	// first, then the record, then the authorization tuples.
	UploadFile(ctx context.Context, req *UploadFileRequest) (*drive.File, error)

	// DownloadFile requires can_view and opens the file's content
	DownloadFile(ctx context.Context, userID, fileID string) (*drive.File, io.ReadCloser, error)

	// ShareFile requires can_share and grants viewer to the account with this email
	ShareFile(ctx context.Context, req *ShareRequest) error

	// ListSharedFiles lists files other users shared with the user
	ListSharedFiles(ctx context.Context, userID string) ([]drive.File, error)
}

// UploadFileRequest represents a file upload
type UploadFileRequest struct {
	UserID       string
	ParentID     string
	Name         string
	LastModified time.Time // zero means now
	Content      []byte
}

// ShareRequest represents a share of a file or folder with one invitee
type ShareRequest struct {
	UserID   string `json:"-"`
	ObjectID string `json:"-"`
	Email    string `json:"email"`
}
