package postgres

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_UsePrefixedTables(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, name := range files {
		data, err := fs.ReadFile(migrations, name)
		require.NoError(t, err)
		sql := string(data)

		assert.Contains(t, sql, "-- +goose ENVSUB ON", name)
		assert.Contains(t, sql, "${TABLE_PREFIX}", name)
		assert.Contains(t, sql, "-- +goose Down", name)
	}
}

func TestRunMigrations_SetsPrefix(t *testing.T) {
	var gotDir string
	orig := gooseUpContext
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	t.Cleanup(func() { gooseUpContext = orig })
	t.Setenv("TABLE_PREFIX", "")

	// sql.Open does not connect, so no server is needed
	err := RunMigrations(context.Background(), "postgres://localhost:5432/drive", "test_")
	require.NoError(t, err)

	assert.Equal(t, "migrations", gotDir)
	assert.Equal(t, "test_goose_db_version", goose.TableName())
}

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("dev_")

	assert.Equal(t, "dev_files", tables.Files)
	assert.Equal(t, "dev_folders", tables.Folders)
	assert.Equal(t, "dev_relation_tuples", tables.Tuples)
}
