package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"sharedrive/internal/domain"
	models "sharedrive/internal/domain/models/drive"
	repositories "sharedrive/internal/domain/repositories/drive"
)

// FileRepository stores file records in Badger
type FileRepository struct {
	store *Store
}

// NewFileRepository creates a file repository on store
func NewFileRepository(store *Store) repositories.FileRepository {
	return &FileRepository{store: store}
}

// Create stores a file record under parentID
func (r *FileRepository) Create(ctx context.Context, parentID string, file *models.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file.ParentID = parentID

	err := create(r.store, []byte(prefixFile+file.ID), prefixChildFile, parentID, file.ID, *file)
	if errors.Is(err, errExists) {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	r.store.logger.Debug("file record created", "file_id", file.ID, "parent_id", parentID)
	return nil
}

// GetByID retrieves a file by ID
func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *models.File
	err := r.store.db.View(func(txn *badger.Txn) error {
		rec, found, err := get[models.File](txn, []byte(prefixFile+id))
		if err != nil {
			return err
		}
		if found {
			file = &rec.Value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	return file, nil
}

// ListByParent lists immediate child files in creation order
func (r *FileRepository) ListByParent(ctx context.Context, parentID string) ([]models.File, error) {
	files, err := listChildren[models.File](ctx, r.store, prefixChildFile, prefixFile, parentID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// ListByIDs retrieves files by ID in creation order
func (r *FileRepository) ListByIDs(ctx context.Context, ids []string) ([]models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := listByIDs[models.File](r.store, prefixFile, ids)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}
