package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alexnetwork99/quotation-automation/internal/models"
)

// metric is fixed at index creation and recorded in the meta table. Opening an
// index created with a different metric fails rather than reranking silently.
const metric = "cosine"

// SQLiteStore implements Store with an on-disk SQLite database. Vectors are
// stored as little-endian float32 BLOBs; similarity search is brute-force in
// Go, which is adequate for catalog-scale data (thousands of items). Writes
// are serialized by a mutex on top of WAL so queries never see partial rows.
type SQLiteStore struct {
	db         *sql.DB
	dimensions int
	mu         sync.RWMutex
}

// NewSQLiteStore opens or creates a SQLite-backed vector index at dbPath with
// the given embedding dimension. Parent directories are created if they do not
// exist. Opening an existing index whose recorded dimension differs from
// dimensions fails fast with a DimensionMismatchError.
func NewSQLiteStore(dbPath string, dimensions int) (*SQLiteStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStore{db: db, dimensions: dimensions}
	if err := s.checkMeta(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS index_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS catalog_items (
		id TEXT PRIMARY KEY,
		supplier TEXT NOT NULL,
		name TEXT NOT NULL,
		spec TEXT NOT NULL,
		unit TEXT NOT NULL,
		price REAL NOT NULL,
		source TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_source ON catalog_items(source);
	`
	_, err := db.Exec(schema)
	return err
}

// checkMeta records dimension and metric at index creation, and verifies them
// on every subsequent open.
func (s *SQLiteStore) checkMeta() error {
	var stored string
	err := s.db.QueryRow(`SELECT value FROM index_meta WHERE key = 'dimensions'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec(
			`INSERT INTO index_meta (key, value) VALUES ('dimensions', ?), ('metric', ?)`,
			strconv.Itoa(s.dimensions), metric,
		); err != nil {
			return fmt.Errorf("failed to record index meta: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read index meta: %w", err)
	}

	dim, err := strconv.Atoi(stored)
	if err != nil {
		return fmt.Errorf("corrupt index meta: %w", err)
	}
	if dim != s.dimensions {
		return &DimensionMismatchError{Got: s.dimensions, Want: dim}
	}
	var storedMetric string
	if err := s.db.QueryRow(`SELECT value FROM index_meta WHERE key = 'metric'`).Scan(&storedMetric); err == nil && storedMetric != metric {
		return fmt.Errorf("index metric mismatch: index uses %q, store expects %q", storedMetric, metric)
	}
	return nil
}

// Upsert inserts or replaces an item and its vector.
func (s *SQLiteStore) Upsert(ctx context.Context, item models.CatalogItem, vector []float32) error {
	if len(vector) != s.dimensions {
		return &DimensionMismatchError{Got: len(vector), Want: s.dimensions}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog_items (id, supplier, name, spec, unit, price, source, embedding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			supplier = excluded.supplier,
			name = excluded.name,
			spec = excluded.spec,
			unit = excluded.unit,
			price = excluded.price,
			source = excluded.source,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at`,
		item.ID, item.Supplier, item.Name, item.Spec, item.Unit, item.Price,
		item.Source, encodeVector(vector), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", item.ID, err)
	}
	return nil
}

// Delete removes an item by ID; absent IDs are a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM catalog_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

// DeleteBySource removes all items from the given source tag.
func (s *SQLiteStore) DeleteBySource(ctx context.Context, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_items WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("delete by source %s: %w", source, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Query returns up to k items by descending cosine similarity. Ties are broken
// by ID so repeated queries over unchanged data rank consistently.
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, k int) ([]models.RetrievedCandidate, error) {
	if len(vector) != s.dimensions {
		return nil, &DimensionMismatchError{Got: len(vector), Want: s.dimensions}
	}
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, supplier, name, spec, unit, price, source, embedding, created_at, updated_at
		 FROM catalog_items`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var candidates []models.RetrievedCandidate
	for rows.Next() {
		var item models.CatalogItem
		var blob []byte
		if err := rows.Scan(&item.ID, &item.Supplier, &item.Name, &item.Spec, &item.Unit,
			&item.Price, &item.Source, &blob, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		emb := decodeVector(blob)
		if len(emb) != s.dimensions {
			return nil, &DimensionMismatchError{Got: len(emb), Want: s.dimensions}
		}
		candidates = append(candidates, models.RetrievedCandidate{
			Item:  item,
			Score: CosineSimilarity(vector, emb),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Item.ID < candidates[j].Item.ID
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

// Get returns an item by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var item models.CatalogItem
	err := s.db.QueryRowContext(ctx,
		`SELECT id, supplier, name, spec, unit, price, source, created_at, updated_at
		 FROM catalog_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Supplier, &item.Name, &item.Spec, &item.Unit,
		&item.Price, &item.Source, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return &item, nil
}

// List returns all items ordered by source, then name.
func (s *SQLiteStore) List(ctx context.Context) ([]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, supplier, name, spec, unit, price, source, created_at, updated_at
		 FROM catalog_items ORDER BY source, name`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.CatalogItem
	for rows.Next() {
		var item models.CatalogItem
		if err := rows.Scan(&item.ID, &item.Supplier, &item.Name, &item.Spec, &item.Unit,
			&item.Price, &item.Source, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the number of stored items.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Dimensions returns the index's fixed embedding dimension.
func (s *SQLiteStore) Dimensions() int {
	return s.dimensions
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
