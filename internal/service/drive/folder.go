package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sharedrive/internal/domain"
	models "sharedrive/internal/domain/models/drive"
	repos "sharedrive/internal/domain/repositories/drive"
	"sharedrive/internal/domain/services"
	driveSvc "sharedrive/internal/domain/services/drive"
)

type folderService struct {
	folderRepo repos.FolderRepository
	fileRepo   repos.FileRepository
	gateway    services.AuthorizationGateway
	directory  services.UserDirectory
	logger     *slog.Logger
	now        func() time.Time
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo repos.FolderRepository,
	fileRepo repos.FileRepository,
	gateway services.AuthorizationGateway,
	directory services.UserDirectory,
	logger *slog.Logger,
) driveSvc.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		gateway:    gateway,
		directory:  directory,
		logger:     logger,
		now:        time.Now,
	}
}

// EstablishRootFolder writes the root ownership tuple if it is missing
func (s *folderService) EstablishRootFolder(ctx context.Context, userID string) (*models.Folder, error) {
	if err := s.gateway.EstablishRootFolder(ctx, userID); err != nil {
		return nil, err
	}
	return models.RootFolder(userID), nil
}

// GetFolder retrieves a folder the user can view. A root folder without a
// record resolves to its implicit form.
func (s *folderService) GetFolder(ctx context.Context, userID, folderID string) (*models.Folder, error) {
	if err := s.gateway.CanViewFolder(ctx, userID, folderID); err != nil {
		return nil, err
	}
	return s.loadFolder(ctx, folderID)
}

// loadFolder runs after can_view has passed. Records are written before
// tuples, so a viewable folder without a record is a root folder.
func (s *folderService) loadFolder(ctx context.Context, folderID string) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if errors.Is(err, domain.ErrNotFound) {
		return models.RootFolder(folderID), nil
	}
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// ListFoldersForParent lists the visible child folders in storage order
func (s *folderService) ListFoldersForParent(ctx context.Context, userID, parentID string) ([]models.Folder, error) {
	folders, err := s.folderRepo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return s.gateway.FilterFoldersForUser(ctx, userID, folders)
}

// ListFolderContents checks the folder once, then reads and filters its
// subfolders and files concurrently
func (s *folderService) ListFolderContents(ctx context.Context, userID, folderID string) (*models.Contents, error) {
	if err := s.gateway.CanViewFolder(ctx, userID, folderID); err != nil {
		return nil, err
	}

	contents := &models.Contents{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		folder, err := s.loadFolder(gctx, folderID)
		if err != nil {
			return err
		}
		contents.Folder = folder
		return nil
	})
	g.Go(func() error {
		folders, err := s.ListFoldersForParent(gctx, userID, folderID)
		if err != nil {
			return err
		}
		contents.Folders = folders
		return nil
	})
	g.Go(func() error {
		files, err := s.fileRepo.ListByParent(gctx, folderID)
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}
		visible, err := s.gateway.FilterFilesForUser(gctx, userID, files)
		if err != nil {
			return err
		}
		contents.Files = visible
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}

// CreateFolder creates a subfolder. Sibling names may repeat.
func (s *folderService) CreateFolder(ctx context.Context, req *driveSvc.CreateFolderRequest) (*models.Folder, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateFolderName(name); err != nil {
		return nil, err
	}

	if err := s.gateway.CanCreateFolder(ctx, req.UserID, req.ParentID); err != nil {
		return nil, err
	}

	folder := &models.Folder{
		ID:        uuid.NewString(),
		Name:      &name,
		CreatedAt: s.now(),
	}
	if err := s.folderRepo.Create(ctx, req.ParentID, folder); err != nil {
		return nil, fmt.Errorf("create folder record: %w", err)
	}

	if err := s.gateway.AuthorizeNewFolder(ctx, folder.ID, req.UserID, req.ParentID); err != nil {
		s.logger.Error("folder record left without authorization", "folder_id", folder.ID, "error", err)
		return nil, err
	}

	s.logger.Info("folder created",
		"folder_id", folder.ID,
		"name", name,
		"parent_id", req.ParentID,
		"user_id", req.UserID,
	)
	return folder, nil
}

// ShareFolder grants viewer on a folder to the account registered with an email
func (s *folderService) ShareFolder(ctx context.Context, req *driveSvc.ShareRequest) error {
	granteeID, err := resolveGrantee(ctx, s.gateway.CanShareFolder, s.directory, req)
	if err != nil {
		return err
	}
	if err := s.gateway.AuthorizeNewSharedFolder(ctx, req.ObjectID, granteeID); err != nil {
		return err
	}
	s.logger.Info("folder shared", "folder_id", req.ObjectID, "user_id", req.UserID, "grantee_id", granteeID)
	return nil
}

// ListSharedFolders lists folders shared with the user. Shared root folders
// have no record and follow the stored folders.
func (s *folderService) ListSharedFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	ids, err := s.gateway.ListSharedFolderIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Folder{}, nil
	}
	folders, err := s.folderRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list shared folders: %w", err)
	}

	found := make(map[string]bool, len(folders))
	for _, f := range folders {
		found[f.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			found[id] = true
			folders = append(folders, *models.RootFolder(id))
		}
	}
	return folders, nil
}
