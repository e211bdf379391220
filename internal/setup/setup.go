// Package setup builds the configured backends and the drive services on top of them.
package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"sharedrive/internal/authz"
	authzmem "sharedrive/internal/authz/memory"
	"sharedrive/internal/authz/openfga"
	authzpg "sharedrive/internal/authz/postgres"
	"sharedrive/internal/blob"
	"sharedrive/internal/config"
	"sharedrive/internal/directory"
	repos "sharedrive/internal/domain/repositories/drive"
	"sharedrive/internal/domain/services"
	driveSvc "sharedrive/internal/domain/services/drive"
	"sharedrive/internal/repository/badger"
	"sharedrive/internal/repository/memory"
	"sharedrive/internal/repository/postgres"
	authService "sharedrive/internal/service/auth"
	driveService "sharedrive/internal/service/drive"
)

// Backends holds the storage and identity collaborators selected by config.
type Backends struct {
	Files     repos.FileRepository
	Folders   repos.FolderRepository
	Blobs     repos.BlobStore
	Relations authz.RelationStore
	Directory services.UserDirectory

	pool    *pgxpool.Pool
	closers []func() error
	logger  *slog.Logger
}

// Close releases backend resources in reverse order of creation.
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			b.logger.Warn("close backend", "error", err)
		}
	}
	b.closers = nil
}

// repoConfig lazily opens the Postgres pool shared by the metadata and tuple tables.
func (b *Backends) repoConfig(ctx context.Context, cfg *config.Config) (*postgres.RepositoryConfig, error) {
	if b.pool == nil {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		b.pool = pool
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
		b.logger.Info("database connected", "table_prefix", cfg.TablePrefix)
	}
	return &postgres.RepositoryConfig{
		Pool:   b.pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: b.logger,
	}, nil
}

// SetupBackends opens every backend named in cfg. On error, whatever was
// already opened is closed.
func SetupBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{logger: logger}

	steps := []func(context.Context, *config.Config) error{
		b.setupMetadata,
		b.setupRelations,
		b.setupBlobs,
		b.setupDirectory,
	}
	for _, step := range steps {
		if err := step(ctx, cfg); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

// SetupRelations opens only the relation store, for tools that manage tuples.
func SetupRelations(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{logger: logger}
	if err := b.setupRelations(ctx, cfg); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backends) setupMetadata(ctx context.Context, cfg *config.Config) error {
	switch cfg.MetadataBackend {
	case config.BackendMemory:
		store := memory.NewStore()
		b.Files = memory.NewFileRepository(store)
		b.Folders = memory.NewFolderRepository(store)
	case config.BackendBadger:
		store, err := badger.Open(ctx, badger.Config{Path: cfg.BadgerPath, Logger: b.logger})
		if err != nil {
			return fmt.Errorf("open badger: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		b.Files = badger.NewFileRepository(store)
		b.Folders = badger.NewFolderRepository(store)
	case config.BackendPostgres:
		rc, err := b.repoConfig(ctx, cfg)
		if err != nil {
			return err
		}
		b.Files = postgres.NewFileRepository(rc)
		b.Folders = postgres.NewFolderRepository(rc)
	default:
		return fmt.Errorf("unknown metadata backend %q", cfg.MetadataBackend)
	}
	b.logger.Info("metadata store ready", "backend", cfg.MetadataBackend)
	return nil
}

func (b *Backends) setupRelations(ctx context.Context, cfg *config.Config) error {
	switch cfg.AuthzBackend {
	case config.BackendMemory, config.BackendPostgres:
		model, err := authz.DefaultModel()
		if err != nil {
			return fmt.Errorf("load permission model: %w", err)
		}
		var tuples authz.TupleStore
		if cfg.AuthzBackend == config.BackendPostgres {
			rc, err := b.repoConfig(ctx, cfg)
			if err != nil {
				return err
			}
			tuples = authzpg.NewTupleStore(rc)
		} else {
			tuples = authzmem.NewStore(authzmem.WithVisibilityDelay(cfg.AuthzVisibilityDelay))
		}
		b.Relations = authz.NewEngine(tuples, model, b.logger)
	case config.BackendOpenFGA:
		store, err := openfga.New(openfga.Config{
			APIURL:               cfg.FGAAPIURL,
			StoreID:              cfg.FGAStoreID,
			AuthorizationModelID: cfg.FGAAuthorizationModelID,
			APITokenIssuer:       cfg.FGAAPITokenIssuer,
			APIAudience:          cfg.FGAAPIAudience,
			ClientID:             cfg.FGAClientID,
			ClientSecret:         cfg.FGAClientSecret,
		}, b.logger)
		if err != nil {
			return fmt.Errorf("connect openfga: %w", err)
		}
		b.Relations = store
	default:
		return fmt.Errorf("unknown authz backend %q", cfg.AuthzBackend)
	}
	b.logger.Info("relation store ready", "backend", cfg.AuthzBackend)
	return nil
}

func (b *Backends) setupBlobs(ctx context.Context, cfg *config.Config) error {
	switch cfg.BlobBackend {
	case config.BackendLocal:
		store, err := blob.NewLocalStore(cfg.BlobDir, b.logger)
		if err != nil {
			return fmt.Errorf("open blob dir: %w", err)
		}
		b.Blobs = store
	case config.BackendS3:
		store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			KeyPrefix: cfg.S3KeyPrefix,
		}, b.logger)
		if err != nil {
			return fmt.Errorf("configure s3: %w", err)
		}
		b.Blobs = store
	default:
		return fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
	b.logger.Info("blob store ready", "backend", cfg.BlobBackend)
	return nil
}

func (b *Backends) setupDirectory(_ context.Context, cfg *config.Config) error {
	switch cfg.DirectoryBackend {
	case config.BackendAuth0:
		b.Directory = directory.NewAuth0Directory(directory.Auth0Config{
			Domain:       cfg.Auth0Domain,
			ClientID:     cfg.Auth0ClientID,
			ClientSecret: cfg.Auth0ClientSecret,
		}, b.logger)
	case config.BackendStatic:
		dir, err := directory.LoadStaticDirectory(cfg.DirectoryFile)
		if err != nil {
			return fmt.Errorf("load directory file: %w", err)
		}
		b.Directory = dir
	default:
		return fmt.Errorf("unknown directory backend %q", cfg.DirectoryBackend)
	}
	b.logger.Info("directory ready", "backend", cfg.DirectoryBackend)
	return nil
}

// Services holds the drive services
type Services struct {
	Files   driveSvc.FileService
	Folders driveSvc.FolderService
}

// SetupServices wires the drive services to the backends through one
// authorization gateway.
func SetupServices(b *Backends, logger *slog.Logger) *Services {
	gateway := authService.NewGateway(b.Relations, logger)
	return &Services{
		Files:   driveService.NewFileService(b.Files, b.Blobs, gateway, b.Directory, logger),
		Folders: driveService.NewFolderService(b.Folders, b.Files, gateway, b.Directory, logger),
	}
}
