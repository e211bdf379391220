package authz

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxDepth is the default maximum recursion depth for permission checks.
const DefaultMaxDepth = 25

// defaultBatchConcurrency bounds the number of checks a batch evaluates at once.
const defaultBatchConcurrency = 8

// Engine is a RelationStore that evaluates the model in process over a TupleStore.
type Engine struct {
	tuples      TupleStore
	model       *Model
	maxDepth    int
	concurrency int
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxDepth sets the maximum recursion depth for permission checks.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithBatchConcurrency sets how many checks of a batch run in parallel.
func WithBatchConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine creates an in-process relation store.
func NewEngine(tuples TupleStore, model *Model, logger *slog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		tuples:      tuples,
		model:       model,
		maxDepth:    DefaultMaxDepth,
		concurrency: defaultBatchConcurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check returns true if subject holds relation on object.
func (e *Engine) Check(ctx context.Context, subject Ref, relation Relation, object Ref) (bool, error) {
	if _, ok := e.model.Relation(object.Type, relation); !ok {
		return false, fmt.Errorf("authz: relation %q is not defined on type %q", relation, object.Type)
	}
	return e.check(ctx, subject, relation, object, 0, make(map[string]bool))
}

// check performs the recursive evaluation with cycle detection.
func (e *Engine) check(ctx context.Context, subject Ref, relation Relation, object Ref, depth int, visited map[string]bool) (bool, error) {
	if depth > e.maxDepth {
		return false, ErrDepthExceeded
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := subject.String() + "#" + string(relation) + "@" + object.String()
	if visited[key] {
		return false, nil
	}
	visited[key] = true
	defer delete(visited, key)

	def, ok := e.model.Relation(object.Type, relation)
	if !ok {
		// Relations missing on a related type (e.g. can_view on a user) never hold.
		return false, nil
	}

	granted, err := e.checkGranted(ctx, subject, relation, def, object, depth, visited)
	if err != nil || !granted {
		return false, err
	}

	if def.ButNot != "" {
		excluded, err := e.check(ctx, subject, def.ButNot, object, depth+1, visited)
		if err != nil {
			return false, err
		}
		return !excluded, nil
	}
	return true, nil
}

func (e *Engine) checkGranted(ctx context.Context, subject Ref, relation Relation, def RelationDef, object Ref, depth int, visited map[string]bool) (bool, error) {
	// Step 1: direct tuple
	if len(def.Direct) > 0 {
		found, err := e.tuples.TupleExists(ctx, Tuple{Subject: subject, Relation: relation, Object: object})
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}

	// Step 2: union of computed rules
	for _, rule := range def.Union {
		if rule.From == "" {
			found, err := e.check(ctx, subject, rule.Computed, object, depth+1, visited)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
			continue
		}

		// Tuple-to-userset: follow e.g. parent and check can_view there.
		related, err := e.tuples.ReadTuples(ctx, TupleFilter{
			Relation:   rule.From,
			ObjectType: object.Type,
			ObjectID:   object.ID,
		})
		if err != nil {
			return false, err
		}
		for _, t := range related {
			found, err := e.check(ctx, subject, rule.Computed, t.Subject, depth+1, visited)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
		}
	}
	return false, nil
}

// BatchCheck evaluates every request. Results are returned in request order
// and carry the request's correlation id.
func (e *Engine) BatchCheck(ctx context.Context, checks []CheckRequest) ([]CheckResult, error) {
	results := make([]CheckResult, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, c := range checks {
		g.Go(func() error {
			allowed, err := e.Check(gctx, c.Subject, c.Relation, c.Object)
			if err != nil {
				return fmt.Errorf("check %s#%s@%s: %w", c.Subject, c.Relation, c.Object, err)
			}
			results[i] = CheckResult{CorrelationID: c.CorrelationID, Allowed: allowed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteTuples validates the tuples against the model and stores them.
func (e *Engine) WriteTuples(ctx context.Context, tuples []Tuple) error {
	if err := ValidateTuples(tuples); err != nil {
		return err
	}
	for _, t := range tuples {
		if !e.model.AllowsDirect(t.Object.Type, t.Relation, t.Subject.Type) {
			return fmt.Errorf("invalid tuple %s: %s cannot be assigned directly", t, t.Subject.Type)
		}
	}
	if err := e.tuples.WriteTuples(ctx, tuples); err != nil {
		return err
	}
	e.logger.Debug("tuples written", "count", len(tuples))
	return nil
}

// ListObjects returns the ids of objectType objects on which subject holds
// relation. Relations granted only on the object itself start from the
// subject's own tuples. Relations inherited through a parent check every
// object of objectType that appears in any tuple.
func (e *Engine) ListObjects(ctx context.Context, subject Ref, relation Relation, objectType ObjectType) ([]string, error) {
	if _, ok := e.model.Relation(objectType, relation); !ok {
		return nil, fmt.Errorf("authz: relation %q is not defined on type %q", relation, objectType)
	}

	tuples, err := e.candidateTuples(ctx, subject, relation, objectType)
	if err != nil {
		return nil, err
	}

	var candidates []CheckRequest
	seen := make(map[string]bool)
	for _, t := range tuples {
		if seen[t.Object.ID] {
			continue
		}
		seen[t.Object.ID] = true
		candidates = append(candidates, CheckRequest{
			CorrelationID: t.Object.ID,
			Subject:       subject,
			Relation:      relation,
			Object:        t.Object,
		})
	}

	results, err := e.BatchCheck(ctx, candidates)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.Allowed {
			ids = append(ids, r.CorrelationID)
		}
	}
	return ids, nil
}

func (e *Engine) candidateTuples(ctx context.Context, subject Ref, relation Relation, objectType ObjectType) ([]Tuple, error) {
	granting, ok := e.model.GrantingRelations(objectType, relation)
	if !ok {
		return e.tuples.ReadTuples(ctx, TupleFilter{ObjectType: objectType})
	}

	var tuples []Tuple
	for _, r := range granting {
		direct, err := e.tuples.ReadTuples(ctx, TupleFilter{
			SubjectType: subject.Type,
			SubjectID:   subject.ID,
			Relation:    r,
			ObjectType:  objectType,
		})
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, direct...)
	}
	return tuples, nil
}

var _ RelationStore = (*Engine)(nil)
