package vectorstore

import (
	"context"
	"fmt"

	"github.com/alexnetwork99/quotation-automation/internal/config"
)

// StoreType represents the vector store backend to use.
type StoreType string

const (
	// StoreTypeSQLite keeps the index in a local SQLite file with brute-force
	// search. Good for catalog-scale data (<10k items) with zero infrastructure.
	StoreTypeSQLite StoreType = "sqlite"
	// StoreTypeQdrant uses a remote Qdrant collection over gRPC.
	StoreTypeQdrant StoreType = "qdrant"
)

// NewStore creates a vector store of the configured type.
// Supported types: "sqlite" (default), "qdrant".
func NewStore(ctx context.Context, cfg *config.Config, dimensions int) (Store, error) {
	switch StoreType(cfg.VectorStore.Type) {
	case StoreTypeSQLite, "":
		return NewSQLiteStore(cfg.Storage.DatabasePath, dimensions)
	case StoreTypeQdrant:
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, fmt.Errorf("qdrant store selected but not configured")
		}
		return NewQdrantStore(ctx, q.Host, q.Port, q.Collection, dimensions)
	default:
		return nil, fmt.Errorf("unknown vector store type: %s (supported: sqlite, qdrant)", cfg.VectorStore.Type)
	}
}
