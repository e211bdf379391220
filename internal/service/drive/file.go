package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sharedrive/internal/blob"
	"sharedrive/internal/domain"
	models "sharedrive/internal/domain/models/drive"
	repos "sharedrive/internal/domain/repositories/drive"
	"sharedrive/internal/domain/services"
	driveSvc "sharedrive/internal/domain/services/drive"
)

type fileService struct {
	fileRepo  repos.FileRepository
	blobs     repos.BlobStore
	gateway   services.AuthorizationGateway
	directory services.UserDirectory
	logger    *slog.Logger
	now       func() time.Time
}

// NewFileService creates a new file service
func NewFileService(
	fileRepo repos.FileRepository,
	blobs repos.BlobStore,
	gateway services.AuthorizationGateway,
	directory services.UserDirectory,
	logger *slog.Logger,
) driveSvc.FileService {
	return &fileService{
		fileRepo:  fileRepo,
		blobs:     blobs,
		gateway:   gateway,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
}

// GetFile retrieves a file the user can view
func (s *fileService) GetFile(ctx context.Context, userID, fileID string) (*models.File, error) {
	if err := s.gateway.CanViewFile(ctx, userID, fileID); err != nil {
		return nil, err
	}
	return s.fileRepo.GetByID(ctx, fileID)
}

// ListFilesForParent lists the visible files of a folder in storage order
func (s *fileService) ListFilesForParent(ctx context.Context, userID, parentID string) ([]models.File, error) {
	files, err := s.fileRepo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return s.gateway.FilterFilesForUser(ctx, userID, files)
}

// ListFilesByIDs loads the visible files among ids in storage order
func (s *fileService) ListFilesByIDs(ctx context.Context, userID string, ids []string) ([]models.File, error) {
	if err := validateIDs(ids); err != nil {
		return nil, err
	}
	files, err := s.fileRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return s.gateway.FilterFilesForUser(ctx, userID, files)
}

// UploadFile stores content, then the record, then the authorization tuples.
// A failure after the content or the record is written leaves an orphan that
// no one can access.
func (s *fileService) UploadFile(ctx context.Context, req *driveSvc.UploadFileRequest) (*models.File, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateFileName(name); err != nil {
		return nil, err
	}

	if err := s.gateway.CanCreateFile(ctx, req.UserID, req.ParentID); err != nil {
		return nil, err
	}

	address := blob.ContentAddress(req.Content, name)
	if err := s.blobs.Put(ctx, address, req.Content); err != nil {
		s.logger.Error("blob write failed", "address", address, "error", err)
		return nil, domain.Upstream("blob store", err)
	}

	now := s.now()
	lastModified := req.LastModified
	if lastModified.IsZero() {
		lastModified = now
	}

	file := &models.File{
		ID:           uuid.NewString(),
		Name:         name,
		Content:      address,
		Size:         int64(len(req.Content)),
		LastModified: lastModified,
		CreatedAt:    now,
	}
	if err := s.fileRepo.Create(ctx, req.ParentID, file); err != nil {
		return nil, fmt.Errorf("create file record: %w", err)
	}

	if err := s.gateway.AuthorizeNewFile(ctx, file.ID, req.UserID, req.ParentID); err != nil {
		s.logger.Error("file record left without authorization", "file_id", file.ID, "error", err)
		return nil, err
	}

	s.logger.Info("file uploaded",
		"file_id", file.ID,
		"parent_id", req.ParentID,
		"user_id", req.UserID,
		"size", file.Size,
	)
	return file, nil
}

// DownloadFile opens the content of a file the user can view
func (s *fileService) DownloadFile(ctx context.Context, userID, fileID string) (*models.File, io.ReadCloser, error) {
	file, err := s.GetFile(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.blobs.Get(ctx, file.Content)
	if err != nil {
		s.logger.Error("blob read failed", "file_id", fileID, "address", file.Content, "error", err)
		return nil, nil, domain.Upstream("blob store", err)
	}
	return file, content, nil
}

// ShareFile grants viewer on a file to the account registered with an email
func (s *fileService) ShareFile(ctx context.Context, req *driveSvc.ShareRequest) error {
	granteeID, err := resolveGrantee(ctx, s.gateway.CanShareFile, s.directory, req)
	if err != nil {
		return err
	}
	if err := s.gateway.AuthorizeNewSharedFile(ctx, req.ObjectID, granteeID); err != nil {
		return err
	}
	s.logger.Info("file shared", "file_id", req.ObjectID, "user_id", req.UserID, "grantee_id", granteeID)
	return nil
}

// ListSharedFiles lists files shared with the user.
// Records missing from metadata are skipped.
func (s *fileService) ListSharedFiles(ctx context.Context, userID string) ([]models.File, error) {
	ids, err := s.gateway.ListSharedFileIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.File{}, nil
	}
	files, err := s.fileRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list shared files: %w", err)
	}
	return files, nil
}

// resolveGrantee runs the share pre-check, then resolves the invitee. No
// tuple is written on any error path.
func resolveGrantee(
	ctx context.Context,
	canShare func(ctx context.Context, userID, objectID string) error,
	directory services.UserDirectory,
	req *driveSvc.ShareRequest,
) (string, error) {
	email := strings.TrimSpace(req.Email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := canShare(ctx, req.UserID, req.ObjectID); err != nil {
		return "", err
	}
	return directory.LookupUserIDByEmail(ctx, email)
}
