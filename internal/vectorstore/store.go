// Package vectorstore persists catalog item vectors and supports similarity search.
//
// The distance metric is cosine similarity, fixed at index creation. Backends
// record the embedding dimension when the index is created and fail fast on
// any mismatch with the configured embedder; mixing dimensions or metrics
// across restarts would silently corrupt rankings.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/alexnetwork99/quotation-automation/internal/models"
)

// Store persists catalog items keyed by ID together with their embedding vectors.
// Reads may run concurrently; writes are serialized by the implementation so a
// query never observes a half-written item.
type Store interface {
	// Upsert inserts or replaces an item and its vector; idempotent by ID.
	Upsert(ctx context.Context, item models.CatalogItem, vector []float32) error
	// Delete removes an item; deleting an absent ID is a no-op.
	Delete(ctx context.Context, id string) error
	// DeleteBySource removes all items ingested from the given source tag and
	// returns how many were removed.
	DeleteBySource(ctx context.Context, source string) (int, error)
	// Query returns up to k items ordered by descending cosine similarity to
	// the query vector. An empty store yields an empty slice, not an error.
	Query(ctx context.Context, vector []float32, k int) ([]models.RetrievedCandidate, error)
	// Get returns an item by ID, or a NotFoundError.
	Get(ctx context.Context, id string) (*models.CatalogItem, error)
	// List returns all items.
	List(ctx context.Context) ([]models.CatalogItem, error)
	// Count returns the number of stored items.
	Count(ctx context.Context) (int64, error)
	// Dimensions returns the index's fixed embedding dimension.
	Dimensions() int
	Close() error
}

// DimensionMismatchError reports a vector whose dimension does not match the
// index. This is fatal: changing the embedding model requires an explicit
// re-embed and reindex, not an implicit migration.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, index expects %d", e.Got, e.Want)
}

// NotFoundError reports a missing item ID.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog item not found: %s", e.ID)
}
