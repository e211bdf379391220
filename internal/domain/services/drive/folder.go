package drive

import (
	"context"

	"sharedrive/internal/domain/models/drive"
)

// FolderService handles folder business logic
type FolderService interface {
	// EstablishRootFolder makes sure the user owns their root folder and returns it
	EstablishRootFolder(ctx context.Context, userID string) (*drive.Folder, error)

	// GetFolder requires can_view. A user's root folder resolves even without a record.
	GetFolder(ctx context.Context, userID, folderID string) (*drive.Folder, error)

	// ListFoldersForParent lists child folders filtered to those the user can view
	ListFoldersForParent(ctx context.Context, userID, parentID string) ([]drive.Folder, error)

	// ListFolderContents requires can_view on the folder and returns its
	// visible subfolders and files
	ListFolderContents(ctx context.Context, userID, folderID string) (*drive.Contents, error)

	// CreateFolder requires can_create_folder on the parent
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*drive.Folder, error)

	// ShareFolder requires can_share and grants viewer to the account with this email
	ShareFolder(ctx context.Context, req *ShareRequest) error

	// ListSharedFolders lists folders other users shared with the user
	ListSharedFolders(ctx context.Context, userID string) ([]drive.Folder, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	UserID   string `json:"-"`
	ParentID string `json:"-"`
	Name     string `json:"name"`
}
