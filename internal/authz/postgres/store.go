// Package postgres stores relation tuples in PostgreSQL for in-process evaluation.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sharedrive/internal/authz"
	"sharedrive/internal/domain/repositories"
	pg "sharedrive/internal/repository/postgres"
)

// TupleStore implements authz.TupleStore on the relation_tuples table.
type TupleStore struct {
	pool  *pgxpool.Pool
	table string
	tx    repositories.TransactionManager
}

// NewTupleStore creates a tuple store using the shared repository config.
func NewTupleStore(config *pg.RepositoryConfig) *TupleStore {
	return &TupleStore{
		pool:  config.Pool,
		table: config.Tables.Tuples,
		tx:    pg.NewTransactionManager(config.Pool, config.Logger),
	}
}

// WriteTuples inserts all tuples in one transaction. Existing tuples are left
// untouched.
func (s *TupleStore) WriteTuples(ctx context.Context, tuples []authz.Tuple) error {
	if len(tuples) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (subject_type, subject_id, relation, object_type, object_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`, s.table)

	return s.tx.ExecTx(ctx, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		for _, t := range tuples {
			batch.Queue(query, string(t.Subject.Type), t.Subject.ID, string(t.Relation), string(t.Object.Type), t.Object.ID)
		}

		results := repositories.GetTx(ctx).SendBatch(ctx, batch)
		for range tuples {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("write tuples: %w", err)
			}
		}
		return results.Close()
	})
}

// ReadTuples returns tuples matching the filter in insertion order.
func (s *TupleStore) ReadTuples(ctx context.Context, filter authz.TupleFilter) ([]authz.Tuple, error) {
	query, args := readQuery(s.table, filter)
	rows, err := pg.GetExecutor(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read tuples: %w", err)
	}
	defer rows.Close()

	var tuples []authz.Tuple
	for rows.Next() {
		var (
			t                    authz.Tuple
			subjectType, objType string
			relation             string
		)
		if err := rows.Scan(&subjectType, &t.Subject.ID, &relation, &objType, &t.Object.ID); err != nil {
			return nil, fmt.Errorf("scan tuple: %w", err)
		}
		t.Subject.Type = authz.ObjectType(subjectType)
		t.Relation = authz.Relation(relation)
		t.Object.Type = authz.ObjectType(objType)
		tuples = append(tuples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tuples: %w", err)
	}
	return tuples, nil
}

// readQuery selects from table with one equality condition per set filter field.
func readQuery(table string, filter authz.TupleFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(column string, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("subject_type", string(filter.SubjectType))
	add("subject_id", filter.SubjectID)
	add("relation", string(filter.Relation))
	add("object_type", string(filter.ObjectType))
	add("object_id", filter.ObjectID)

	query := "SELECT subject_type, subject_id, relation, object_type, object_id FROM " + table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY id", args
}

// TupleExists checks if a specific tuple exists.
func (s *TupleStore) TupleExists(ctx context.Context, t authz.Tuple) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE subject_type = $1 AND subject_id = $2 AND relation = $3
			  AND object_type = $4 AND object_id = $5
		)
	`, s.table)

	var exists bool
	err := pg.GetExecutor(ctx, s.pool).QueryRow(ctx, query,
		string(t.Subject.Type), t.Subject.ID, string(t.Relation), string(t.Object.Type), t.Object.ID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tuple: %w", err)
	}
	return exists, nil
}

var _ authz.TupleStore = (*TupleStore)(nil)
