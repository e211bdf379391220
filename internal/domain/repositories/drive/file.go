package drive

import (
	"context"

	"sharedrive/internal/domain/models/drive"
)

// FileRepository defines data access operations for file records.
// Implementations return records in storage order (creation order).
type FileRepository interface {
	// Create stores a new file record under parentID
	Create(ctx context.Context, parentID string, file *drive.File) error

	// GetByID retrieves a file record by ID
	GetByID(ctx context.Context, id string) (*drive.File, error)

	// ListByParent lists the file records stored directly in a folder
	ListByParent(ctx context.Context, parentID string) ([]drive.File, error)

	// ListByIDs retrieves the file records with the given IDs. Unknown IDs are skipped.
	ListByIDs(ctx context.Context, ids []string) ([]drive.File, error)
}
