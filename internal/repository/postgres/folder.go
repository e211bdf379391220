package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	models "sharedrive/internal/domain/models/drive"
	repositories "sharedrive/internal/domain/repositories/drive"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a folder record. Sibling names are not unique.
func (r *PostgresFolderRepository) Create(ctx context.Context, parentID string, folder *models.Folder) error {
	folder.ParentID = &parentID

	query := fmt.Sprintf(`
		INSERT INTO %s (id, parent_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, r.tables.Folders)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		folder.ID,
		folder.ParentID,
		folder.Name,
		folder.CreatedAt,
	).Scan(&folder.CreatedAt)
	if err != nil {
		return recordError(err, "folder", folder.ID, "create")
	}

	r.logger.Debug("folder record created", "folder_id", folder.ID, "parent_id", parentID)
	return nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, name, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Folders)

	folder, err := scanFolder(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, recordError(err, "folder", id, "get")
	}
	return folder, nil
}

// ListByParent lists immediate child folders in creation order
func (r *PostgresFolderRepository) ListByParent(ctx context.Context, parentID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, name, created_at
		FROM %s
		WHERE parent_id = $1
		ORDER BY seq
	`, r.tables.Folders)

	return r.list(ctx, query, parentID)
}

// ListByIDs retrieves folders by ID in creation order
func (r *PostgresFolderRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Folder, error) {
	if len(ids) == 0 {
		return []models.Folder{}, nil
	}

	query := fmt.Sprintf(`
		SELECT id, parent_id, name, created_at
		FROM %s
		WHERE id = ANY($1)
		ORDER BY seq
	`, r.tables.Folders)

	return r.list(ctx, query, ids)
}

func (r *PostgresFolderRepository) list(ctx context.Context, query string, args ...any) ([]models.Folder, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var folder models.Folder
	if err := row.Scan(&folder.ID, &folder.ParentID, &folder.Name, &folder.CreatedAt); err != nil {
		return nil, err
	}
	return &folder, nil
}
