package drive

import (
	"context"

	"sharedrive/internal/domain/models/drive"
)

// FolderRepository defines data access operations for folder records
type FolderRepository interface {
	// Create stores a new folder record under parentID
	Create(ctx context.Context, parentID string, folder *drive.Folder) error

	// GetByID retrieves a folder record by ID
	GetByID(ctx context.Context, id string) (*drive.Folder, error)

	// ListByParent lists immediate child folders
	ListByParent(ctx context.Context, parentID string) ([]drive.Folder, error)

	// ListByIDs retrieves the folder records with the given IDs. Unknown IDs are skipped.
	ListByIDs(ctx context.Context, ids []string) ([]drive.Folder, error)
}
