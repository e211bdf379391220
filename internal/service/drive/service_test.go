package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedrive/internal/authz"
	authzmem "sharedrive/internal/authz/memory"
	"sharedrive/internal/blob"
	"sharedrive/internal/directory"
	"sharedrive/internal/domain"
	models "sharedrive/internal/domain/models/drive"
	repos "sharedrive/internal/domain/repositories/drive"
	driveSvc "sharedrive/internal/domain/services/drive"
	"sharedrive/internal/repository/memory"
	authSvc "sharedrive/internal/service/auth"
)

// recorder collects the order of side effects across collaborators.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// trackingStore counts relation store traffic.
type trackingStore struct {
	authz.RelationStore
	rec         *recorder
	mu          sync.Mutex
	writes      int
	batchChecks int
}

func (s *trackingStore) WriteTuples(ctx context.Context, tuples []authz.Tuple) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	s.rec.add("tuples")
	return s.RelationStore.WriteTuples(ctx, tuples)
}

func (s *trackingStore) BatchCheck(ctx context.Context, checks []authz.CheckRequest) ([]authz.CheckResult, error) {
	s.mu.Lock()
	s.batchChecks++
	s.mu.Unlock()
	return s.RelationStore.BatchCheck(ctx, checks)
}

func (s *trackingStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type trackingBlobs struct {
	repos.BlobStore
	rec *recorder
	err error
}

func (b *trackingBlobs) Put(ctx context.Context, address string, content []byte) error {
	if b.err != nil {
		return b.err
	}
	b.rec.add("content")
	return b.BlobStore.Put(ctx, address, content)
}

type trackingFiles struct {
	repos.FileRepository
	rec *recorder
}

func (f *trackingFiles) Create(ctx context.Context, parentID string, file *models.File) error {
	f.rec.add("metadata")
	return f.FileRepository.Create(ctx, parentID, file)
}

type failingDirectory struct{}

func (failingDirectory) LookupUserIDByEmail(context.Context, string) (string, error) {
	return "", domain.Upstream("directory", errors.New("rate limited"))
}

type env struct {
	files   driveSvc.FileService
	folders driveSvc.FolderService
	store   *trackingStore
	blobs   *trackingBlobs
	rec     *recorder
	meta    *memory.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	model, err := authz.DefaultModel()
	require.NoError(t, err)
	rec := &recorder{}
	store := &trackingStore{RelationStore: authz.NewEngine(authzmem.NewStore(), model, logger), rec: rec}
	gateway := authSvc.NewGateway(store, logger)

	local, err := blob.NewLocalStore(t.TempDir(), logger)
	require.NoError(t, err)
	blobs := &trackingBlobs{BlobStore: local, rec: rec}

	meta := memory.NewStore()
	fileRepo := &trackingFiles{FileRepository: memory.NewFileRepository(meta), rec: rec}
	folderRepo := memory.NewFolderRepository(meta)

	dir := directory.NewStaticDirectory(map[string]string{
		"u1@example.com": "U1",
		"u2@example.com": "U2",
		"u3@example.com": "U3",
	})

	return &env{
		files:   NewFileService(fileRepo, blobs, gateway, dir, logger),
		folders: NewFolderService(folderRepo, fileRepo, gateway, dir, logger),
		store:   store,
		blobs:   blobs,
		rec:     rec,
		meta:    meta,
	}
}

func (e *env) upload(t *testing.T, user, parent, name string) *models.File {
	t.Helper()
	f, err := e.files.UploadFile(context.Background(), &driveSvc.UploadFileRequest{
		UserID:   user,
		ParentID: parent,
		Name:     name,
		Content:  []byte("content of " + name),
	})
	require.NoError(t, err)
	return f
}

// scenarioA: U1 root -> S -> X
func scenarioA(t *testing.T, e *env) (*models.Folder, *models.File) {
	t.Helper()
	ctx := context.Background()

	root, err := e.folders.EstablishRootFolder(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "U1", root.ID)
	assert.Nil(t, root.Name)

	s, err := e.folders.CreateFolder(ctx, &driveSvc.CreateFolderRequest{UserID: "U1", ParentID: root.ID, Name: "S"})
	require.NoError(t, err)
	x := e.upload(t, "U1", s.ID, "x.pdf")
	return s, x
}

func TestScenarioA_CreateAndUpload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s, x := scenarioA(t, e)

	folder, err := e.folders.GetFolder(ctx, "U1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "S", *folder.Name)

	file, err := e.files.GetFile(ctx, "U1", x.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, file.ParentID)
	assert.Equal(t, blob.ContentAddress([]byte("content of x.pdf"), "x.pdf"), file.Content)

	err = e.files.ShareFile(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: x.ID, Email: "u2@example.com"})
	require.NoError(t, err, "owner can share")

	root, err := e.folders.GetFolder(ctx, "U1", "U1")
	require.NoError(t, err)
	assert.Nil(t, root.Name, "root resolves without a record")
}

func TestScenarioB_ShareFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s, x := scenarioA(t, e)

	require.NoError(t, e.files.ShareFile(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: x.ID, Email: "u2@example.com"}))

	_, err := e.files.GetFile(ctx, "U2", x.ID)
	assert.NoError(t, err)

	_, err = e.folders.GetFolder(ctx, "U2", s.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	shared, err := e.files.ListSharedFiles(ctx, "U2")
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, x.ID, shared[0].ID)

	own, err := e.files.ListSharedFiles(ctx, "U1")
	require.NoError(t, err)
	assert.Empty(t, own)

	// U2 cannot reshare
	err = e.files.ShareFile(ctx, &driveSvc.ShareRequest{UserID: "U2", ObjectID: x.ID, Email: "u3@example.com"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestScenarioC_UnknownEmailWritesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s, x := scenarioA(t, e)
	before := e.store.writeCount()

	err := e.files.ShareFile(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: x.ID, Email: "nobody@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, "a user with this email address does not exist", domain.ErrUserNotFound.Error())

	err = e.folders.ShareFolder(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: s.ID, Email: "nobody@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = e.folders.ShareFolder(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: s.ID, Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, before, e.store.writeCount())
}

func TestShare_DirectoryFailureIsUpstream(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, x := scenarioA(t, e)
	before := e.store.writeCount()

	fs := e.files.(*fileService)
	fs.directory = failingDirectory{}

	err := e.files.ShareFile(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: x.ID, Email: "u2@example.com"})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.NotErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, before, e.store.writeCount())
}

func TestShareFolder_GrantsDescendants(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s, x := scenarioA(t, e)

	require.NoError(t, e.folders.ShareFolder(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: s.ID, Email: "U2@example.com"}))
	require.NoError(t, e.folders.ShareFolder(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: s.ID, Email: "u2@example.com"}), "sharing twice is fine")

	_, err := e.files.GetFile(ctx, "U2", x.ID)
	assert.NoError(t, err)

	contents, err := e.folders.ListFolderContents(ctx, "U2", s.ID)
	require.NoError(t, err)
	require.Len(t, contents.Files, 1)
	assert.Equal(t, x.ID, contents.Files[0].ID)

	shared, err := e.folders.ListSharedFolders(ctx, "U2")
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, s.ID, shared[0].ID)

	// viewers cannot create inside a shared folder
	_, err = e.folders.CreateFolder(ctx, &driveSvc.CreateFolderRequest{UserID: "U2", ParentID: s.ID, Name: "mine"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.files.UploadFile(ctx, &driveSvc.UploadFileRequest{UserID: "U2", ParentID: s.ID, Name: "a.txt", Content: []byte("a")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestShareFolder_RootWithoutRecord(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s, x := scenarioA(t, e)
	top := e.upload(t, "U1", "U1", "top.txt")

	require.NoError(t, e.folders.ShareFolder(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: "U1", Email: "u2@example.com"}))

	root, err := e.folders.GetFolder(ctx, "U2", "U1")
	require.NoError(t, err)
	assert.Equal(t, "U1", root.ID)
	assert.Nil(t, root.Name)

	contents, err := e.folders.ListFolderContents(ctx, "U2", "U1")
	require.NoError(t, err)
	assert.Equal(t, "U1", contents.Folder.ID)
	require.Len(t, contents.Folders, 1)
	assert.Equal(t, s.ID, contents.Folders[0].ID)
	require.Len(t, contents.Files, 1)
	assert.Equal(t, top.ID, contents.Files[0].ID)

	_, err = e.files.GetFile(ctx, "U2", x.ID)
	assert.NoError(t, err, "descendants inherit the root grant")

	shared, err := e.folders.ListSharedFolders(ctx, "U2")
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "U1", shared[0].ID)
	assert.Nil(t, shared[0].Name)

	// U3 still cannot see the root
	_, err = e.folders.GetFolder(ctx, "U3", "U1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListing_FiltersToSharedInStorageOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.folders.EstablishRootFolder(ctx, "U1")
	require.NoError(t, err)
	p, err := e.folders.CreateFolder(ctx, &driveSvc.CreateFolderRequest{UserID: "U1", ParentID: "U1", Name: "P"})
	require.NoError(t, err)

	var files []*models.File
	for i := 1; i <= 5; i++ {
		files = append(files, e.upload(t, "U1", p.ID, fmt.Sprintf("f%d.txt", i)))
	}
	require.NoError(t, e.files.ShareFile(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: files[3].ID, Email: "u3@example.com"}))
	require.NoError(t, e.files.ShareFile(ctx, &driveSvc.ShareRequest{UserID: "U1", ObjectID: files[1].ID, Email: "u3@example.com"}))

	batchesBefore := e.store.batchChecks
	visible, err := e.files.ListFilesForParent(ctx, "U3", p.ID)
	require.NoError(t, err)
	assert.Equal(t, batchesBefore+1, e.store.batchChecks, "one batch call for the whole listing")

	require.Len(t, visible, 2)
	assert.Equal(t, files[1].ID, visible[0].ID)
	assert.Equal(t, files[3].ID, visible[1].ID)

	byIDs, err := e.files.ListFilesByIDs(ctx, "U3", []string{files[4].ID, files[3].ID, files[1].ID, files[0].ID})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, files[1].ID, byIDs[0].ID)

	all, err := e.files.ListFilesForParent(ctx, "U1", p.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = e.folders.ListFolderContents(ctx, "U3", p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "file shares do not open the folder")
}

func TestUpload_WriteOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.folders.EstablishRootFolder(ctx, "U1")
	require.NoError(t, err)
	e.rec.events = nil

	e.upload(t, "U1", "U1", "notes.txt")
	assert.Equal(t, []string{"content", "metadata", "tuples"}, e.rec.events)
}

func TestUpload_BlobFailureStopsBeforeMetadata(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.folders.EstablishRootFolder(ctx, "U1")
	require.NoError(t, err)
	e.rec.events = nil
	e.blobs.err = errors.New("disk full")

	_, err = e.files.UploadFile(ctx, &driveSvc.UploadFileRequest{UserID: "U1", ParentID: "U1", Name: "a.txt", Content: []byte("a")})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Empty(t, e.rec.events)

	listed, err := e.files.ListFilesForParent(ctx, "U1", "U1")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestUpload_DeniedBeforeAnyWrite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.files.UploadFile(ctx, &driveSvc.UploadFileRequest{UserID: "U2", ParentID: "U1", Name: "a.txt", Content: []byte("a")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, e.rec.events)
}

func TestValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.folders.EstablishRootFolder(ctx, "U1")
	require.NoError(t, err)

	for _, name := range []string{"", "   ", "a/b", string(make([]rune, 300))} {
		_, err := e.folders.CreateFolder(ctx, &driveSvc.CreateFolderRequest{UserID: "U1", ParentID: "U1", Name: name})
		assert.ErrorIs(t, err, domain.ErrValidation, "%q", name)
	}

	_, err = e.files.ListFilesByIDs(ctx, "U1", []string{"a", ""})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDownload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, x := scenarioA(t, e)

	file, rc, err := e.files.DownloadFile(ctx, "U1", x.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "content of x.pdf", string(data))
	assert.Equal(t, x.Name, file.Name)

	_, _, err = e.files.DownloadFile(ctx, "U2", x.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDuplicateFolderNames(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.folders.EstablishRootFolder(ctx, "U1")
	require.NoError(t, err)

	a, err := e.folders.CreateFolder(ctx, &driveSvc.CreateFolderRequest{UserID: "U1", ParentID: "U1", Name: "Docs"})
	require.NoError(t, err)
	b, err := e.folders.CreateFolder(ctx, &driveSvc.CreateFolderRequest{UserID: "U1", ParentID: "U1", Name: "Docs"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	children, err := e.folders.ListFoldersForParent(ctx, "U1", "U1")
	require.NoError(t, err)
	assert.Len(t, children, 2)
}
