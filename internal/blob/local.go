package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"sharedrive/internal/domain"
	"sharedrive/internal/domain/repositories/drive"
)

// LocalStore keeps content in a directory, sharded by the first two digest
// characters.
type LocalStore struct {
	dir    string
	logger *slog.Logger
}

// NewLocalStore creates the directory if needed
func NewLocalStore(dir string, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) path(address string) string {
	return filepath.Join(s.dir, address[:2], address)
}

// Put writes content through a temp file and renames it into place
func (s *LocalStore) Put(ctx context.Context, address string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validAddress(address) {
		return fmt.Errorf("blob address %q: %w", address, domain.ErrValidation)
	}

	target := s.path(address)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create blob shard: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("rename blob: %w", err)
	}

	s.logger.Debug("blob stored", "address", address, "size", len(content))
	return nil
}

// Get opens the content under address
func (s *LocalStore) Get(ctx context.Context, address string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validAddress(address) {
		return nil, fmt.Errorf("blob %s: %w", address, domain.ErrNotFound)
	}

	f, err := os.Open(s.path(address))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", address, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

var _ drive.BlobStore = (*LocalStore)(nil)
