package auth

import (
	"context"
	"fmt"
	"log/slog"

	"sharedrive/internal/authz"
	"sharedrive/internal/domain"
	"sharedrive/internal/domain/models/drive"
	"sharedrive/internal/domain/services"
)

const relationStore = "relation store"

// Gateway implements services.AuthorizationGateway on an authz.RelationStore.
// It holds no per-request state and never caches check results.
type Gateway struct {
	store  authz.RelationStore
	logger *slog.Logger
}

// NewGateway creates a new authorization gateway
func NewGateway(store authz.RelationStore, logger *slog.Logger) *Gateway {
	return &Gateway{store: store, logger: logger}
}

// check turns a relation-store answer into nil, ErrForbidden or an upstream error.
func (g *Gateway) check(ctx context.Context, userID string, relation authz.Relation, object authz.Ref) error {
	allowed, err := g.store.Check(ctx, authz.User(userID), relation, object)
	if err != nil {
		g.logger.Error("relation check failed",
			"user_id", userID,
			"relation", relation,
			"object", object.String(),
			"error", err,
		)
		return domain.Upstream(relationStore, err)
	}
	if !allowed {
		g.logger.Debug("access denied", "user_id", userID, "relation", relation, "object", object.String())
		return fmt.Errorf("%s on %s: %w", relation, object, domain.ErrForbidden)
	}
	return nil
}

// CanViewFile checks can_view on a file
func (g *Gateway) CanViewFile(ctx context.Context, userID, fileID string) error {
	return g.check(ctx, userID, authz.CanView, authz.File(fileID))
}

// CanViewFolder checks can_view on a folder
func (g *Gateway) CanViewFolder(ctx context.Context, userID, folderID string) error {
	return g.check(ctx, userID, authz.CanView, authz.Folder(folderID))
}

// CanShareFile checks can_share on a file
func (g *Gateway) CanShareFile(ctx context.Context, userID, fileID string) error {
	return g.check(ctx, userID, authz.CanShare, authz.File(fileID))
}

// CanShareFolder checks can_share on a folder
func (g *Gateway) CanShareFolder(ctx context.Context, userID, folderID string) error {
	return g.check(ctx, userID, authz.CanShare, authz.Folder(folderID))
}

// CanCreateFile checks can_create_file on the destination folder
func (g *Gateway) CanCreateFile(ctx context.Context, userID, folderID string) error {
	return g.check(ctx, userID, authz.CanCreateFile, authz.Folder(folderID))
}

// CanCreateFolder checks can_create_folder on the destination folder
func (g *Gateway) CanCreateFolder(ctx context.Context, userID, folderID string) error {
	return g.check(ctx, userID, authz.CanCreateFolder, authz.Folder(folderID))
}

func (g *Gateway) write(ctx context.Context, tuples ...authz.Tuple) error {
	if err := g.store.WriteTuples(ctx, tuples); err != nil {
		g.logger.Error("relation write failed", "count", len(tuples), "error", err)
		return domain.Upstream(relationStore, err)
	}
	return nil
}

// AuthorizeNewFile registers ownership and parentage of a new file
func (g *Gateway) AuthorizeNewFile(ctx context.Context, fileID, ownerID, parentID string) error {
	return g.authorizeNew(ctx, authz.File(fileID), ownerID, parentID)
}

// AuthorizeNewFolder registers ownership and parentage of a new folder
func (g *Gateway) AuthorizeNewFolder(ctx context.Context, folderID, ownerID, parentID string) error {
	return g.authorizeNew(ctx, authz.Folder(folderID), ownerID, parentID)
}

func (g *Gateway) authorizeNew(ctx context.Context, object authz.Ref, ownerID, parentID string) error {
	err := g.write(ctx,
		authz.Tuple{Subject: authz.User(ownerID), Relation: authz.RelationOwner, Object: object},
		authz.Tuple{Subject: authz.Folder(parentID), Relation: authz.RelationParent, Object: object},
	)
	if err != nil {
		return err
	}
	g.logger.Debug("object authorized", "object", object.String(), "owner_id", ownerID, "parent_id", parentID)
	return nil
}

// AuthorizeNewSharedFile grants viewer on a file
func (g *Gateway) AuthorizeNewSharedFile(ctx context.Context, fileID, granteeID string) error {
	return g.write(ctx, authz.Tuple{Subject: authz.User(granteeID), Relation: authz.RelationViewer, Object: authz.File(fileID)})
}

// AuthorizeNewSharedFolder grants viewer on a folder
func (g *Gateway) AuthorizeNewSharedFolder(ctx context.Context, folderID, granteeID string) error {
	return g.write(ctx, authz.Tuple{Subject: authz.User(granteeID), Relation: authz.RelationViewer, Object: authz.Folder(folderID)})
}

// FilterFilesForUser keeps the files the user can view
func (g *Gateway) FilterFilesForUser(ctx context.Context, userID string, files []drive.File) ([]drive.File, error) {
	return filterForUser(ctx, g, userID, files, func(f drive.File) authz.Ref { return authz.File(f.ID) })
}

// FilterFoldersForUser keeps the folders the user can view
func (g *Gateway) FilterFoldersForUser(ctx context.Context, userID string, folders []drive.Folder) ([]drive.Folder, error) {
	return filterForUser(ctx, g, userID, folders, func(f drive.Folder) authz.Ref { return authz.Folder(f.ID) })
}

// filterForUser checks can_view on every item with one batch call and keeps
// the allowed items in their original order. Results are matched to items by
// correlation id, never by position.
func filterForUser[T any](ctx context.Context, g *Gateway, userID string, items []T, ref func(T) authz.Ref) ([]T, error) {
	if len(items) == 0 {
		return []T{}, nil
	}

	checks := make([]authz.CheckRequest, len(items))
	for i, item := range items {
		checks[i] = authz.CheckRequest{
			CorrelationID: ref(item).String(),
			Subject:       authz.User(userID),
			Relation:      authz.CanView,
			Object:        ref(item),
		}
	}

	results, err := g.store.BatchCheck(ctx, checks)
	if err != nil {
		g.logger.Error("batch check failed", "user_id", userID, "count", len(items), "error", err)
		return nil, domain.Upstream(relationStore, err)
	}

	allowed := make(map[string]bool, len(results))
	for _, r := range results {
		allowed[r.CorrelationID] = r.Allowed
	}

	visible := make([]T, 0, len(items))
	for i, item := range items {
		if allowed[checks[i].CorrelationID] {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

// EstablishRootFolder writes owner(user, folder:user) if it is missing
func (g *Gateway) EstablishRootFolder(ctx context.Context, userID string) error {
	root := authz.Folder(userID)
	owned, err := g.store.Check(ctx, authz.User(userID), authz.RelationOwner, root)
	if err != nil {
		return domain.Upstream(relationStore, err)
	}
	if owned {
		return nil
	}

	// A concurrent session may write the same tuple. Every store treats an
	// existing tuple as written, OpenFGA included.
	if err := g.write(ctx, authz.Tuple{Subject: authz.User(userID), Relation: authz.RelationOwner, Object: root}); err != nil {
		return err
	}
	g.logger.Info("root folder established", "user_id", userID)
	return nil
}

// ListSharedFileIDs lists files the user holds is_shared on
func (g *Gateway) ListSharedFileIDs(ctx context.Context, userID string) ([]string, error) {
	return g.listShared(ctx, userID, authz.TypeFile)
}

// ListSharedFolderIDs lists folders the user holds is_shared on
func (g *Gateway) ListSharedFolderIDs(ctx context.Context, userID string) ([]string, error) {
	return g.listShared(ctx, userID, authz.TypeFolder)
}

func (g *Gateway) listShared(ctx context.Context, userID string, objectType authz.ObjectType) ([]string, error) {
	ids, err := g.store.ListObjects(ctx, authz.User(userID), authz.IsShared, objectType)
	if err != nil {
		g.logger.Error("list objects failed", "user_id", userID, "type", objectType, "error", err)
		return nil, domain.Upstream(relationStore, err)
	}
	return ids, nil
}

var _ services.AuthorizationGateway = (*Gateway)(nil)
