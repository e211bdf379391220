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

// FolderRepository stores folder records in Badger
type FolderRepository struct {
	store *Store
}

// NewFolderRepository creates a folder repository on store
func NewFolderRepository(store *Store) repositories.FolderRepository {
	return &FolderRepository{store: store}
}

// Create stores a folder record under parentID
func (r *FolderRepository) Create(ctx context.Context, parentID string, folder *models.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	folder.ParentID = &parentID

	err := create(r.store, []byte(prefixFolder+folder.ID), prefixChildDir, parentID, folder.ID, *folder)
	if errors.Is(err, errExists) {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	r.store.logger.Debug("folder record created", "folder_id", folder.ID, "parent_id", parentID)
	return nil
}

// GetByID retrieves a folder by ID
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var folder *models.Folder
	err := r.store.db.View(func(txn *badger.Txn) error {
		rec, found, err := get[models.Folder](txn, []byte(prefixFolder+id))
		if err != nil {
			return err
		}
		if found {
			folder = &rec.Value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	if folder == nil {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return folder, nil
}

// ListByParent lists immediate child folders in creation order
func (r *FolderRepository) ListByParent(ctx context.Context, parentID string) ([]models.Folder, error) {
	folders, err := listChildren[models.Folder](ctx, r.store, prefixChildDir, prefixFolder, parentID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// ListByIDs retrieves folders by ID in creation order
func (r *FolderRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	folders, err := listByIDs[models.Folder](r.store, prefixFolder, ids)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}
