// Package remote talks to the remote collection store: fetching the
// existing catalog tree and applying create/update/delete operations
// against it.
package remote

import (
	"context"

	"github.com/schemacat/schemacat/internal/tree"
)

// Store is the collection-store capability consumed by the sync
// engine. All calls may fail with *TransientError (retryable, possibly
// carrying a retry-after hint) or *APIError (terminal rejection).
type Store interface {
	// Ping verifies the collection is reachable with the configured
	// credentials.
	Ping(ctx context.Context) error

	// FetchTree retrieves the current remote tree. Every node carries
	// its RemoteID; leaves carry the stored content hash, recomputed
	// from remote content when the store does not persist hashes.
	FetchTree(ctx context.Context) (*tree.Node, error)

	// CreateFolder creates an empty folder under parentID and returns
	// its new id. An empty parentID targets the collection root.
	CreateFolder(ctx context.Context, parentID, name string) (string, error)

	// CreateRequest creates a request leaf under parentID and returns
	// its new id.
	CreateRequest(ctx context.Context, parentID string, leaf *tree.Node) (string, error)

	// UpdateRequest replaces the content of an existing request leaf.
	UpdateRequest(ctx context.Context, id string, leaf *tree.Node) error

	// DeleteRequest removes a request leaf.
	DeleteRequest(ctx context.Context, id string) error

	// DeleteFolder removes a folder. The store rejects non-empty
	// folders; the engine deletes children first.
	DeleteFolder(ctx context.Context, id string) error
}
