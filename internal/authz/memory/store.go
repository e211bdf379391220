// Package memory provides an in-process authz.TupleStore.
package memory

import (
	"context"
	"sync"
	"time"

	"sharedrive/internal/authz"
)

type entry struct {
	tuple     authz.Tuple
	visibleAt time.Time
}

// Store keeps tuples in memory. It is safe for concurrent use.
//
// With a visibility delay, a written tuple is ignored by reads until the delay
// has passed. This reproduces the write-then-read lag of a cached graph engine
// so callers can be tested against it.
type Store struct {
	mu      sync.RWMutex
	entries []entry
	index   map[authz.Tuple]int
	delay   time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithVisibilityDelay hides new tuples from reads for d.
func WithVisibilityDelay(d time.Duration) Option {
	return func(s *Store) {
		s.delay = d
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty tuple store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		index: make(map[authz.Tuple]int),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WriteTuples adds tuples that do not exist yet. The whole batch is applied
// under one lock, so readers never observe a partial batch.
func (s *Store) WriteTuples(ctx context.Context, tuples []authz.Tuple) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	visibleAt := s.now().Add(s.delay)
	for _, t := range tuples {
		if _, ok := s.index[t]; ok {
			continue
		}
		s.index[t] = len(s.entries)
		s.entries = append(s.entries, entry{tuple: t, visibleAt: visibleAt})
	}
	return nil
}

// ReadTuples returns visible tuples matching the filter in write order.
func (s *Store) ReadTuples(ctx context.Context, filter authz.TupleFilter) ([]authz.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var result []authz.Tuple
	for _, e := range s.entries {
		if e.visibleAt.After(now) {
			continue
		}
		if filter.Matches(e.tuple) {
			result = append(result, e.tuple)
		}
	}
	return result, nil
}

// TupleExists checks if a specific visible tuple exists.
func (s *Store) TupleExists(ctx context.Context, tuple authz.Tuple) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[tuple]
	if !ok {
		return false, nil
	}
	return !s.entries[i].visibleAt.After(s.now()), nil
}

// Len returns the number of stored tuples, visible or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ authz.TupleStore = (*Store)(nil)
