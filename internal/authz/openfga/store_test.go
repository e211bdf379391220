package openfga

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedrive/internal/authz"
)

type fakeAPI struct {
	tuples   map[tupleKey]bool
	allowed  map[tupleKey]bool
	writes   [][]tupleKey
	batches  int
	drop     string // object whose batch result is omitted
	batchErr map[string]string
	writeErr error
	racer    []tupleKey // written by another client just before write fails
	objects  []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tuples: map[tupleKey]bool{}, allowed: map[tupleKey]bool{}, batchErr: map[string]string{}}
}

func (f *fakeAPI) check(_ context.Context, user, relation, object string) (bool, error) {
	return f.allowed[tupleKey{user, relation, object}], nil
}

func (f *fakeAPI) batchCheck(_ context.Context, items []batchItem) (map[string]batchResult, error) {
	f.batches++
	out := make(map[string]batchResult)
	// iterate backwards so results never line up with request order
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if item.object == f.drop {
			continue
		}
		out[item.correlationID] = batchResult{
			allowed: f.allowed[item.tupleKey],
			err:     f.batchErr[item.object],
		}
	}
	return out, nil
}

func (f *fakeAPI) read(_ context.Context, user, relation, object string) (bool, error) {
	return f.tuples[tupleKey{user, relation, object}], nil
}

func (f *fakeAPI) write(_ context.Context, keys []tupleKey) error {
	for _, k := range f.racer {
		f.tuples[k] = true
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, keys)
	for _, k := range keys {
		f.tuples[k] = true
	}
	return nil
}

func (f *fakeAPI) listObjects(context.Context, string, string, string) ([]string, error) {
	return f.objects, nil
}

func newTestStore(api *fakeAPI) *Store {
	return &Store{api: api, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestBatchCheck_CorrelatesOutOfOrderResults(t *testing.T) {
	api := newFakeAPI()
	api.allowed[tupleKey{"user:u1", "can_view", "file:b"}] = true
	api.allowed[tupleKey{"user:u1", "can_view", "file:d"}] = true
	store := newTestStore(api)

	var checks []authz.CheckRequest
	for _, id := range []string{"a", "b", "c", "d"} {
		checks = append(checks, authz.CheckRequest{
			CorrelationID: id,
			Subject:       authz.User("u1"),
			Relation:      authz.CanView,
			Object:        authz.File(id),
		})
	}

	results, err := store.BatchCheck(context.Background(), checks)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, 1, api.batches)

	got := map[string]bool{}
	for _, r := range results {
		got[r.CorrelationID] = r.Allowed
	}
	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false, "d": true}, got)
}

func TestBatchCheck_MissingResultDenies(t *testing.T) {
	api := newFakeAPI()
	api.allowed[tupleKey{"user:u1", "can_view", "file:a"}] = true
	api.drop = "file:a"
	store := newTestStore(api)

	results, err := store.BatchCheck(context.Background(), []authz.CheckRequest{
		{CorrelationID: "a", Subject: authz.User("u1"), Relation: authz.CanView, Object: authz.File("a")},
	})
	require.NoError(t, err)
	assert.False(t, results[0].Allowed)
}

func TestBatchCheck_ItemErrorFailsBatch(t *testing.T) {
	api := newFakeAPI()
	api.batchErr["file:a"] = "timeout"
	store := newTestStore(api)

	_, err := store.BatchCheck(context.Background(), []authz.CheckRequest{
		{CorrelationID: "a", Subject: authz.User("u1"), Relation: authz.CanView, Object: authz.File("a")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestBatchCheck_Empty(t *testing.T) {
	api := newFakeAPI()
	results, err := newTestStore(api).BatchCheck(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, api.batches)
}

func TestWriteTuples_SkipsExisting(t *testing.T) {
	api := newFakeAPI()
	store := newTestStore(api)
	ctx := context.Background()

	viewer := authz.Tuple{Subject: authz.User("u2"), Relation: authz.RelationViewer, Object: authz.File("f1")}
	require.NoError(t, store.WriteTuples(ctx, []authz.Tuple{viewer}))
	require.NoError(t, store.WriteTuples(ctx, []authz.Tuple{viewer, viewer}))

	require.Len(t, api.writes, 1, "second write has nothing new to send")
	assert.Equal(t, []tupleKey{{"user:u2", "viewer", "file:f1"}}, api.writes[0])
}

func TestWriteTuples_SingleFailure(t *testing.T) {
	api := newFakeAPI()
	api.writeErr = errors.New("conflict")
	store := newTestStore(api)

	err := store.WriteTuples(context.Background(), []authz.Tuple{
		{Subject: authz.User("u1"), Relation: authz.RelationOwner, Object: authz.File("f1")},
		{Subject: authz.Folder("p"), Relation: authz.RelationParent, Object: authz.File("f1")},
	})
	require.Error(t, err)
	assert.Empty(t, api.tuples)
}

func TestWriteTuples_ConcurrentDuplicateSucceeds(t *testing.T) {
	api := newFakeAPI()
	api.writeErr = errors.New("cannot write a tuple which already exists")
	api.racer = []tupleKey{{"user:u1", "owner", "folder:u1"}}
	store := newTestStore(api)

	err := store.WriteTuples(context.Background(), []authz.Tuple{
		{Subject: authz.User("u1"), Relation: authz.RelationOwner, Object: authz.Folder("u1")},
	})
	require.NoError(t, err)
}

func TestWriteTuples_PartialDuplicateFails(t *testing.T) {
	api := newFakeAPI()
	api.writeErr = errors.New("cannot write a tuple which already exists")
	api.racer = []tupleKey{{"user:u1", "owner", "file:f1"}}
	store := newTestStore(api)

	err := store.WriteTuples(context.Background(), []authz.Tuple{
		{Subject: authz.User("u1"), Relation: authz.RelationOwner, Object: authz.File("f1")},
		{Subject: authz.Folder("p"), Relation: authz.RelationParent, Object: authz.File("f1")},
	})
	require.Error(t, err)
}

func TestWriteTuples_RejectsCapabilities(t *testing.T) {
	api := newFakeAPI()
	err := newTestStore(api).WriteTuples(context.Background(), []authz.Tuple{
		{Subject: authz.User("u1"), Relation: authz.CanView, Object: authz.File("f1")},
	})
	require.Error(t, err)
	assert.Empty(t, api.writes)
}

func TestListObjects_StripsType(t *testing.T) {
	api := newFakeAPI()
	api.objects = []string{"file:a", "file:b:c"}

	ids, err := newTestStore(api).ListObjects(context.Background(), authz.User("u1"), authz.IsShared, authz.TypeFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b:c"}, ids)
}
