// Package memory implements the drive metadata repositories in process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"sharedrive/internal/domain"
	models "sharedrive/internal/domain/models/drive"
	repositories "sharedrive/internal/domain/repositories/drive"
)

// Store holds file and folder records in insertion order. One Store is
// shared by the repositories built on it; it is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	files   []models.File
	folders []models.Folder
	fileIdx map[string]int
	dirIdx  map[string]int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		fileIdx: make(map[string]int),
		dirIdx:  make(map[string]int),
	}
}

// FileRepository is the file view of a Store
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

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fileIdx[file.ID]; ok {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
	}
	file.ParentID = parentID
	s.fileIdx[file.ID] = len(s.files)
	s.files = append(s.files, *file)
	return nil
}

// GetByID retrieves a file by ID
func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.fileIdx[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	file := s.files[i]
	return &file, nil
}

// ListByParent lists the files of a folder in insertion order
func (r *FileRepository) ListByParent(ctx context.Context, parentID string) ([]models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.File{}
	for _, f := range s.files {
		if f.ParentID == parentID {
			result = append(result, f)
		}
	}
	return result, nil
}

// ListByIDs retrieves files by ID in insertion order
func (r *FileRepository) ListByIDs(ctx context.Context, ids []string) ([]models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.File{}
	for _, f := range s.files {
		if want[f.ID] {
			result = append(result, f)
		}
	}
	return result, nil
}

// FolderRepository is the folder view of a Store
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

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirIdx[folder.ID]; ok {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrConflict)
	}
	folder.ParentID = &parentID
	s.dirIdx[folder.ID] = len(s.folders)
	s.folders = append(s.folders, *folder)
	return nil
}

// GetByID retrieves a folder by ID
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.dirIdx[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	folder := s.folders[i]
	return &folder, nil
}

// ListByParent lists immediate child folders in insertion order
func (r *FolderRepository) ListByParent(ctx context.Context, parentID string) ([]models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Folder{}
	for _, f := range s.folders {
		if f.ParentID != nil && *f.ParentID == parentID {
			result = append(result, f)
		}
	}
	return result, nil
}

// ListByIDs retrieves folders by ID in insertion order
func (r *FolderRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Folder{}
	for _, f := range s.folders {
		if want[f.ID] {
			result = append(result, f)
		}
	}
	return result, nil
}
