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

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a file record
func (r *PostgresFileRepository) Create(ctx context.Context, parentID string, file *models.File) error {
	file.ParentID = parentID

	query := fmt.Sprintf(`
		INSERT INTO %s (id, parent_id, name, content, size, last_modified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, r.tables.Files)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		file.ID,
		file.ParentID,
		file.Name,
		file.Content,
		file.Size,
		file.LastModified,
		file.CreatedAt,
	).Scan(&file.CreatedAt)
	if err != nil {
		return recordError(err, "file", file.ID, "create")
	}

	r.logger.Debug("file record created", "file_id", file.ID, "parent_id", parentID)
	return nil
}

// GetByID retrieves a file by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, name, content, size, last_modified, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Files)

	file, err := scanFile(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, recordError(err, "file", id, "get")
	}
	return file, nil
}

// ListByParent lists the files of a folder in creation order
func (r *PostgresFileRepository) ListByParent(ctx context.Context, parentID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, name, content, size, last_modified, created_at
		FROM %s
		WHERE parent_id = $1
		ORDER BY seq
	`, r.tables.Files)

	return r.list(ctx, query, parentID)
}

// ListByIDs retrieves files by ID in creation order
func (r *PostgresFileRepository) ListByIDs(ctx context.Context, ids []string) ([]models.File, error) {
	if len(ids) == 0 {
		return []models.File{}, nil
	}

	query := fmt.Sprintf(`
		SELECT id, parent_id, name, content, size, last_modified, created_at
		FROM %s
		WHERE id = ANY($1)
		ORDER BY seq
	`, r.tables.Files)

	return r.list(ctx, query, ids)
}

func (r *PostgresFileRepository) list(ctx context.Context, query string, args ...any) ([]models.File, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

func scanFile(row pgx.Row) (*models.File, error) {
	var file models.File
	err := row.Scan(
		&file.ID,
		&file.ParentID,
		&file.Name,
		&file.Content,
		&file.Size,
		&file.LastModified,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}
