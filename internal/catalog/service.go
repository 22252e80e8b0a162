package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/embedding"
	"github.com/alexnetwork99/quotation-automation/internal/models"
	"github.com/alexnetwork99/quotation-automation/internal/vectorstore"
)

// ManualSource tags items added through the API rather than ingested from a
// catalog file.
const ManualSource = "manual"

// Service ingests price files and manages catalog items. Every mutation embeds
// synchronously and upserts into the vector store, so the index is never stale
// relative to the catalog.
type Service struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	logger   *zap.Logger
}

// NewService creates a catalog service.
func NewService(embedder embedding.Embedder, store vectorstore.Store, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// ItemID derives a stable content-hash ID for a file-ingested record. The same
// record in the same source always maps to the same ID, which makes repeated
// ingestion idempotent.
func ItemID(source string, rec models.PriceRecord) string {
	sum := sha256.Sum256([]byte(source + "|" + rec.Supplier + "|" + rec.Name + "|" + rec.Spec + "|" + rec.Unit))
	return "item:" + hex.EncodeToString(sum[:])
}

// IngestDirectory ingests every price file under dir with one of the given
// extensions. Unreadable files are logged and skipped; the run continues.
func (s *Service) IngestDirectory(ctx context.Context, dir string, extensions []string) (models.IngestSummary, error) {
	var summary models.IngestSummary
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExtension(path, extensions) {
			return nil
		}
		fileSummary, err := s.IngestFile(ctx, path)
		if err != nil {
			s.logger.Warn("skipping unreadable catalog file",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}
		summary.Add(fileSummary)
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("walk catalog directory: %w", err)
	}
	s.logger.Info("catalog ingestion complete",
		zap.String("directory", dir),
		zap.Int("files", summary.Files),
		zap.Int("items", summary.Items),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// IngestFile parses one price file and syncs its records into the store:
// records are embedded and upserted under content-hash IDs, and items from the
// same source that no longer appear in the file are removed. A record whose
// embedding fails is logged, counted as skipped, and does not abort the file.
func (s *Service) IngestFile(ctx context.Context, path string) (models.IngestSummary, error) {
	records, err := ParseFile(path)
	if err != nil {
		return models.IngestSummary{}, err
	}

	summary := models.IngestSummary{Files: 1}
	keep := make(map[string]bool, len(records))
	for _, rec := range records {
		id := ItemID(path, rec)
		keep[id] = true
		item := models.CatalogItem{
			ID:       id,
			Supplier: rec.Supplier,
			Name:     rec.Name,
			Spec:     rec.Spec,
			Unit:     rec.Unit,
			Price:    rec.Price,
			Source:   path,
		}
		vector, err := s.embedder.Embed(ctx, item.EmbeddingText())
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Skipped++
			s.logger.Warn("skipping item: embedding failed",
				zap.String("source", path),
				zap.String("name", rec.Name),
				zap.Error(err))
			continue
		}
		if err := s.store.Upsert(ctx, item, vector); err != nil {
			return summary, fmt.Errorf("upsert %s: %w", rec.Name, err)
		}
		summary.Items++
	}

	if err := s.removeStale(ctx, path, keep); err != nil {
		return summary, err
	}
	return summary, nil
}

// removeStale deletes items ingested from source that are no longer present in
// the current parse, so edits to a catalog file never leave orphaned prices.
func (s *Service) removeStale(ctx context.Context, source string, keep map[string]bool) error {
	items, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	for _, item := range items {
		if item.Source != source || keep[item.ID] {
			continue
		}
		if err := s.store.Delete(ctx, item.ID); err != nil {
			return fmt.Errorf("remove stale item %s: %w", item.ID, err)
		}
		s.logger.Debug("removed stale item",
			zap.String("id", item.ID),
			zap.String("name", item.Name),
			zap.String("source", source))
	}
	return nil
}

// RemoveSource deletes every item ingested from the given source, returning
// the number removed. Used when a catalog file is deleted.
func (s *Service) RemoveSource(ctx context.Context, source string) (int, error) {
	n, err := s.store.DeleteBySource(ctx, source)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("removed catalog source",
			zap.String("source", source),
			zap.Int("items", n))
	}
	return n, nil
}

// AddItem embeds and stores a manually submitted price record, returning the
// created item.
func (s *Service) AddItem(ctx context.Context, rec models.PriceRecord) (*models.CatalogItem, error) {
	item := models.CatalogItem{
		ID:        uuid.NewString(),
		Supplier:  rec.Supplier,
		Name:      rec.Name,
		Spec:      rec.Spec,
		Unit:      rec.Unit,
		Price:     rec.Price,
		Source:    ManualSource,
		CreatedAt: time.Now().UTC(),
	}
	vector, err := s.embedder.Embed(ctx, item.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("embed item: %w", err)
	}
	if err := s.store.Upsert(ctx, item, vector); err != nil {
		return nil, err
	}
	s.logger.Info("added catalog item",
		zap.String("id", item.ID),
		zap.String("name", item.Name),
		zap.String("supplier", item.Supplier))
	return &item, nil
}

// DeleteItem removes an item by ID. Returns a vectorstore.NotFoundError when
// the item does not exist.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// GetItem returns an item by ID.
func (s *Service) GetItem(ctx context.Context, id string) (*models.CatalogItem, error) {
	return s.store.Get(ctx, id)
}

// ListItems returns all catalog items.
func (s *Service) ListItems(ctx context.Context) ([]models.CatalogItem, error) {
	return s.store.List(ctx)
}

// Count returns the number of catalog items.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
