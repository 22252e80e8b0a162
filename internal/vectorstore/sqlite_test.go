package vectorstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alexnetwork99/quotation-automation/internal/models"
)

func testItem(id, name, source string) models.CatalogItem {
	return models.CatalogItem{
		ID:       id,
		Supplier: "Hongda",
		Name:     name,
		Spec:     "M8x40",
		Unit:     "piece",
		Price:    0.5,
		Source:   source,
	}
}

func TestSQLiteStore_UpsertIdempotent(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	item := testItem("a", "hex bolt", "prices.txt")
	if err := store.Upsert(ctx, item, []float32{1, 0, 0}); err != nil {
		t.Fatal(err)
	}
	item.Price = 0.6
	if err := store.Upsert(ctx, item, []float32{1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 item after double upsert, got %d", n)
	}
	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Price != 0.6 {
		t.Errorf("expected updated price 0.6, got %f", got.Price)
	}
}

func TestSQLiteStore_QueryOrdering(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	vectors := map[string][]float32{
		"far":   {0, 1, 0},
		"near":  {1, 0.1, 0},
		"exact": {1, 0, 0},
	}
	for id, vec := range vectors {
		if err := store.Upsert(ctx, testItem(id, id, "prices.txt"), vec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Query(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Item.ID != "exact" || got[1].Item.ID != "near" {
		t.Errorf("unexpected order: %s, %s", got[0].Item.ID, got[1].Item.ID)
	}
	if got[0].Score < got[1].Score {
		t.Errorf("scores not descending: %f < %f", got[0].Score, got[1].Score)
	}
}

func TestSQLiteStore_QueryEmpty(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	got, err := store.Query(context.Background(), []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates from empty store, got %d", len(got))
	}
}

func TestSQLiteStore_DeleteAbsentIsNoop(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("deleting absent id should be a no-op, got %v", err)
	}
}

func TestSQLiteStore_DeleteBySource(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	_ = store.Upsert(ctx, testItem("a", "bolt", "one.txt"), []float32{1, 0, 0})
	_ = store.Upsert(ctx, testItem("b", "nut", "one.txt"), []float32{0, 1, 0})
	_ = store.Upsert(ctx, testItem("c", "washer", "two.txt"), []float32{0, 0, 1})

	n, err := store.DeleteBySource(ctx, "one.txt")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	remaining, _ := store.Count(ctx)
	if remaining != 1 {
		t.Errorf("expected 1 remaining, got %d", remaining)
	}
}

func TestSQLiteStore_DimensionMismatch(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	err = store.Upsert(ctx, testItem("a", "bolt", "p.txt"), []float32{1, 0})
	var mismatch *DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}

	_, err = store.Query(ctx, []float32{1, 0}, 5)
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DimensionMismatchError from query, got %v", err)
	}
}

func TestSQLiteStore_ReopenWithDifferentDimensionFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	_, err = NewSQLiteStore(path, 4)
	var mismatch *DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DimensionMismatchError on reopen, got %v", err)
	}
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = store.Get(context.Background(), "missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
