package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedrive/internal/authz"
	"sharedrive/internal/authz/memory"
	"sharedrive/internal/domain"
	"sharedrive/internal/domain/models/drive"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingStore wraps a RelationStore and counts calls per method.
type countingStore struct {
	authz.RelationStore

	mu          sync.Mutex
	checks      int
	batchChecks int
	writes      int
	reverse     bool
	failWith    error
}

func (s *countingStore) Check(ctx context.Context, subject authz.Ref, relation authz.Relation, object authz.Ref) (bool, error) {
	s.mu.Lock()
	s.checks++
	s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	return s.RelationStore.Check(ctx, subject, relation, object)
}

func (s *countingStore) BatchCheck(ctx context.Context, checks []authz.CheckRequest) ([]authz.CheckResult, error) {
	s.mu.Lock()
	s.batchChecks++
	s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	results, err := s.RelationStore.BatchCheck(ctx, checks)
	if err != nil || !s.reverse {
		return results, err
	}
	reversed := make([]authz.CheckResult, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		reversed = append(reversed, results[i])
	}
	return reversed, nil
}

func (s *countingStore) WriteTuples(ctx context.Context, tuples []authz.Tuple) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	return s.RelationStore.WriteTuples(ctx, tuples)
}

func newTestGateway(t *testing.T, opts ...memory.Option) (*Gateway, *countingStore) {
	t.Helper()
	model, err := authz.DefaultModel()
	require.NoError(t, err)
	engine := authz.NewEngine(memory.NewStore(opts...), model, testLogger())
	store := &countingStore{RelationStore: engine}
	return NewGateway(store, testLogger()), store
}

func TestGateway_OwnerCanViewImmediately(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.EstablishRootFolder(ctx, "u1"))
	require.NoError(t, g.AuthorizeNewFolder(ctx, "s", "u1", "u1"))
	require.NoError(t, g.AuthorizeNewFile(ctx, "x", "u1", "s"))

	assert.NoError(t, g.CanViewFolder(ctx, "u1", "s"))
	assert.NoError(t, g.CanViewFile(ctx, "u1", "x"))
	assert.NoError(t, g.CanShareFile(ctx, "u1", "x"))
	assert.NoError(t, g.CanCreateFile(ctx, "u1", "s"))
	assert.NoError(t, g.CanCreateFolder(ctx, "u1", "u1"))
}

func TestGateway_DeniedIsForbidden(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.AuthorizeNewFolder(ctx, "s", "u1", "u1"))
	require.NoError(t, g.AuthorizeNewSharedFolder(ctx, "s", "u2"))

	assert.NoError(t, g.CanViewFolder(ctx, "u2", "s"))
	assert.ErrorIs(t, g.CanShareFolder(ctx, "u2", "s"), domain.ErrForbidden)
	assert.ErrorIs(t, g.CanCreateFile(ctx, "u2", "s"), domain.ErrForbidden)
	assert.ErrorIs(t, g.CanCreateFolder(ctx, "u2", "s"), domain.ErrForbidden)
	assert.ErrorIs(t, g.CanViewFile(ctx, "u2", "unknown"), domain.ErrForbidden)
}

func TestGateway_StoreFailureIsUpstream(t *testing.T) {
	g, store := newTestGateway(t)
	store.failWith = errors.New("connection refused")
	ctx := context.Background()

	err := g.CanViewFile(ctx, "u1", "x")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.NotErrorIs(t, err, domain.ErrForbidden)

	files, err := g.FilterFilesForUser(ctx, "u1", []drive.File{{ID: "x"}})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Nil(t, files, "a failed batch never returns a partial list")

	assert.ErrorIs(t, g.AuthorizeNewFile(ctx, "x", "u1", "u1"), domain.ErrUpstream)
	assert.ErrorIs(t, g.EstablishRootFolder(ctx, "u1"), domain.ErrUpstream)
}

func TestGateway_FilterUsesOneBatch(t *testing.T) {
	g, store := newTestGateway(t)
	store.reverse = true
	ctx := context.Background()

	var files []drive.File
	for _, id := range []string{"f1", "f2", "f3", "f4", "f5"} {
		require.NoError(t, g.AuthorizeNewFile(ctx, id, "u1", "p"))
		files = append(files, drive.File{ID: id, ParentID: "p"})
	}
	require.NoError(t, g.AuthorizeNewSharedFile(ctx, "f4", "u3"))
	require.NoError(t, g.AuthorizeNewSharedFile(ctx, "f2", "u3"))

	visible, err := g.FilterFilesForUser(ctx, "u3", files)
	require.NoError(t, err)
	assert.Equal(t, 1, store.batchChecks)
	assert.Zero(t, store.checks, "no per-item checks")

	require.Len(t, visible, 2)
	assert.Equal(t, "f2", visible[0].ID)
	assert.Equal(t, "f4", visible[1].ID)
}

func TestGateway_FilterEmpty(t *testing.T) {
	g, store := newTestGateway(t)

	folders, err := g.FilterFoldersForUser(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, folders)
	assert.Zero(t, store.batchChecks)
}

func TestGateway_ShareIsIdempotent(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.AuthorizeNewFile(ctx, "x", "u1", "s"))
	require.NoError(t, g.AuthorizeNewSharedFile(ctx, "x", "u2"))
	assert.NoError(t, g.CanViewFile(ctx, "u2", "x"))

	require.NoError(t, g.AuthorizeNewSharedFile(ctx, "x", "u2"))
	assert.NoError(t, g.CanViewFile(ctx, "u2", "x"))
}

func TestGateway_SharingFileDoesNotExposeFolder(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.EstablishRootFolder(ctx, "u1"))
	require.NoError(t, g.AuthorizeNewFolder(ctx, "s", "u1", "u1"))
	require.NoError(t, g.AuthorizeNewFile(ctx, "x", "u1", "s"))
	require.NoError(t, g.AuthorizeNewSharedFile(ctx, "x", "u2"))

	assert.NoError(t, g.CanViewFile(ctx, "u2", "x"))
	assert.ErrorIs(t, g.CanViewFolder(ctx, "u2", "s"), domain.ErrForbidden)

	shared, err := g.ListSharedFileIDs(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, shared)

	own, err := g.ListSharedFileIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, own)
}

func TestGateway_EstablishRootFolderIdempotent(t *testing.T) {
	g, store := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.EstablishRootFolder(ctx, "u1"))
	require.NoError(t, g.EstablishRootFolder(ctx, "u1"))
	assert.Equal(t, 1, store.writes, "second call finds the owner tuple")
	assert.NoError(t, g.CanCreateFile(ctx, "u1", "u1"))
}

func TestGateway_EstablishRootFolderDuringLag(t *testing.T) {
	g, store := newTestGateway(t, memory.WithVisibilityDelay(time.Hour))
	ctx := context.Background()

	require.NoError(t, g.EstablishRootFolder(ctx, "u1"))
	// the first write is not visible yet, so the tuple is written again
	require.NoError(t, g.EstablishRootFolder(ctx, "u1"))
	assert.Equal(t, 2, store.writes)
	assert.ErrorIs(t, g.CanViewFolder(ctx, "u1", "u1"), domain.ErrForbidden, "lagging reads deny")
}
