// Package openfga delegates relation checks to an OpenFGA server.
//
// The server evaluates the model in deploy/openfga/model.fga. It caches check
// results, so tuples written here may not affect checks for a while; see the
// consistency notes on authz.RelationStore.
package openfga

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"sharedrive/internal/authz"
)

// Store implements authz.RelationStore against OpenFGA.
type Store struct {
	api    api
	logger *slog.Logger
}

// New creates a store connected to the configured OpenFGA server.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	a, err := newSDKAPI(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{api: a, logger: logger}, nil
}

// Check returns true if subject holds relation on object.
func (s *Store) Check(ctx context.Context, subject authz.Ref, relation authz.Relation, object authz.Ref) (bool, error) {
	allowed, err := s.api.check(ctx, subject.String(), string(relation), object.String())
	if err != nil {
		return false, fmt.Errorf("openfga check: %w", err)
	}
	return allowed, nil
}

// BatchCheck sends all checks in one server-side batch. Each item carries a
// generated correlation id, and results are mapped back through it because
// the server does not return them in request order. A check missing from the
// response is denied.
func (s *Store) BatchCheck(ctx context.Context, checks []authz.CheckRequest) ([]authz.CheckResult, error) {
	if len(checks) == 0 {
		return []authz.CheckResult{}, nil
	}

	items := make([]batchItem, len(checks))
	for i, c := range checks {
		items[i] = batchItem{
			tupleKey: tupleKey{
				user:     c.Subject.String(),
				relation: string(c.Relation),
				object:   c.Object.String(),
			},
			correlationID: uuid.NewString(),
		}
	}

	resp, err := s.api.batchCheck(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("openfga batch check: %w", err)
	}

	results := make([]authz.CheckResult, len(checks))
	for i, c := range checks {
		r, ok := resp[items[i].correlationID]
		if ok && r.err != "" {
			return nil, fmt.Errorf("openfga batch check %s#%s@%s: %s", c.Subject, c.Relation, c.Object, r.err)
		}
		if !ok {
			s.logger.Warn("batch check result missing", "object", c.Object.String(), "relation", c.Relation)
		}
		results[i] = authz.CheckResult{CorrelationID: c.CorrelationID, Allowed: ok && r.allowed}
	}
	return results, nil
}

// WriteTuples writes tuples in one transaction. OpenFGA rejects a write that
// contains an existing tuple, so existing tuples are filtered out first.
func (s *Store) WriteTuples(ctx context.Context, tuples []authz.Tuple) error {
	if err := authz.ValidateTuples(tuples); err != nil {
		return err
	}

	var keys []tupleKey
	seen := make(map[authz.Tuple]bool, len(tuples))
	for _, t := range tuples {
		if seen[t] {
			continue
		}
		seen[t] = true

		key := tupleKey{user: t.Subject.String(), relation: string(t.Relation), object: t.Object.String()}
		exists, err := s.api.read(ctx, key.user, key.relation, key.object)
		if err != nil {
			return fmt.Errorf("openfga read: %w", err)
		}
		if !exists {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return nil
	}
	if err := s.api.write(ctx, keys); err != nil {
		// A concurrent writer may have added the same tuples after the read.
		written, rerr := s.allExist(ctx, keys)
		if rerr != nil || !written {
			return fmt.Errorf("openfga write: %w", err)
		}
		s.logger.Debug("tuples already written", "count", len(keys), "error", err)
		return nil
	}
	s.logger.Debug("tuples written", "count", len(keys))
	return nil
}

func (s *Store) allExist(ctx context.Context, keys []tupleKey) (bool, error) {
	for _, key := range keys {
		exists, err := s.api.read(ctx, key.user, key.relation, key.object)
		if err != nil || !exists {
			return false, err
		}
	}
	return true, nil
}

// ListObjects returns the ids of objectType objects on which subject holds relation.
func (s *Store) ListObjects(ctx context.Context, subject authz.Ref, relation authz.Relation, objectType authz.ObjectType) ([]string, error) {
	objects, err := s.api.listObjects(ctx, subject.String(), string(relation), string(objectType))
	if err != nil {
		return nil, fmt.Errorf("openfga list objects: %w", err)
	}

	ids := make([]string, 0, len(objects))
	for _, o := range objects {
		ids = append(ids, strings.TrimPrefix(o, string(objectType)+":"))
	}
	return ids, nil
}

var _ authz.RelationStore = (*Store)(nil)
