// Package retrieval finds catalog items relevant to an inquiry by embedding
// the inquiry and querying the vector store.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/embedding"
	"github.com/alexnetwork99/quotation-automation/internal/models"
	"github.com/alexnetwork99/quotation-automation/internal/vectorstore"
)

// Retriever performs threshold-filtered top-K similarity search over the
// catalog. An inquiry is embedded exactly once per retrieval.
type Retriever struct {
	embedder  embedding.Embedder
	store     vectorstore.Store
	threshold float64
	topK      int
	logger    *zap.Logger
}

// NewRetriever creates a retriever with the given similarity threshold and
// default retrieval depth.
func NewRetriever(embedder embedding.Embedder, store vectorstore.Store, threshold float64, topK int, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder:  embedder,
		store:     store,
		threshold: threshold,
		topK:      topK,
		logger:    logger,
	}
}

// Retrieve returns up to topK catalog items whose similarity to the inquiry
// meets the threshold, ordered by descending score. An empty result is valid
// and means nothing in the catalog matches. topK <= 0 uses the configured
// default.
func (r *Retriever) Retrieve(ctx context.Context, inquiry string, topK int) ([]models.RetrievedCandidate, error) {
	if topK <= 0 {
		topK = r.topK
	}
	vector, err := r.embedder.Embed(ctx, inquiry)
	if err != nil {
		return nil, fmt.Errorf("embed inquiry: %w", err)
	}
	candidates, err := r.store.Query(ctx, vector, topK)
	if err != nil {
		// Dimension mismatches are fatal; anything else gets one retry in case
		// the store hit a transient I/O failure.
		var mismatch *vectorstore.DimensionMismatchError
		if errors.As(err, &mismatch) || ctx.Err() != nil {
			return nil, fmt.Errorf("query store: %w", err)
		}
		r.logger.Warn("store query failed, retrying once", zap.Error(err))
		candidates, err = r.store.Query(ctx, vector, topK)
		if err != nil {
			return nil, fmt.Errorf("query store: %w", err)
		}
	}

	filtered := candidates[:0]
	for _, c := range candidates {
		if c.Score >= r.threshold {
			filtered = append(filtered, c)
		}
	}
	r.logger.Debug("retrieval complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("above_threshold", len(filtered)),
		zap.Float64("threshold", r.threshold))
	return filtered, nil
}
