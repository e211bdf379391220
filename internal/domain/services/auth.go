package services

import (
	"context"

	"sharedrive/internal/domain/models/drive"
)

// AuthorizationGateway wraps the relation store behind operation-shaped calls.
//
// Design principle: services call the gateway before operating on resources.
// Check methods return nil when allowed, an error matching domain.ErrForbidden
// when denied, and an error matching domain.ErrUpstream when the relation
// store fails. A failed check is never treated as allowed.
type AuthorizationGateway interface {
	CanViewFile(ctx context.Context, userID, fileID string) error
	CanViewFolder(ctx context.Context, userID, folderID string) error
	CanShareFile(ctx context.Context, userID, fileID string) error
	CanShareFolder(ctx context.Context, userID, folderID string) error
	CanCreateFile(ctx context.Context, userID, folderID string) error
	CanCreateFolder(ctx context.Context, userID, folderID string) error

	// AuthorizeNewFile writes the owner and parent tuples of a file in one
	// batch. Call it only after the content and metadata record are durable.
	AuthorizeNewFile(ctx context.Context, fileID, ownerID, parentID string) error

	// AuthorizeNewFolder is AuthorizeNewFile for folders.
	AuthorizeNewFolder(ctx context.Context, folderID, ownerID, parentID string) error

	// AuthorizeNewSharedFile grants view access. Granting twice is not an error.
	AuthorizeNewSharedFile(ctx context.Context, fileID, granteeID string) error

	// AuthorizeNewSharedFolder grants view access to a folder and, through
	// inheritance, to everything below it.
	AuthorizeNewSharedFolder(ctx context.Context, folderID, granteeID string) error

	// FilterFilesForUser returns the files the user may view, in input order,
	// using a single batch check.
	FilterFilesForUser(ctx context.Context, userID string, files []drive.File) ([]drive.File, error)

	// FilterFoldersForUser is FilterFilesForUser for folders.
	FilterFoldersForUser(ctx context.Context, userID string, folders []drive.Folder) ([]drive.Folder, error)

	// EstablishRootFolder makes sure the user owns their root folder.
	// It is idempotent and runs once per session.
	EstablishRootFolder(ctx context.Context, userID string) error

	// ListSharedFileIDs returns ids of files shared with the user that the user does not own.
	ListSharedFileIDs(ctx context.Context, userID string) ([]string, error)

	// ListSharedFolderIDs returns ids of folders shared with the user that the user does not own.
	ListSharedFolderIDs(ctx context.Context, userID string) ([]string, error)
}
