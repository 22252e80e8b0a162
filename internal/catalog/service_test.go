package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/embedding"
	"github.com/alexnetwork99/quotation-automation/internal/models"
	"github.com/alexnetwork99/quotation-automation/internal/vectorstore"
)

func newTestService(t *testing.T) (*Service, vectorstore.Store) {
	t.Helper()
	embedder := embedding.NewMockEmbedder(16)
	store, err := vectorstore.NewSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"), 16)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(embedder, store, zap.NewNop()), store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const priceFile = `supplier: Hongda
name: hex bolt, spec: M8x40, unit: piece, price: 0.5
name: flat washer, spec: M8, unit: piece, price: 0.05
`

func TestIngestFile_Idempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prices.txt")
	writeFile(t, path, priceFile)

	first, err := svc.IngestFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if first.Items != 2 || first.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", first)
	}

	second, err := svc.IngestFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if second.Items != 2 {
		t.Fatalf("unexpected summary on re-ingest: %+v", second)
	}
	n, _ := store.Count(ctx)
	if n != 2 {
		t.Errorf("expected 2 items after re-ingest, got %d", n)
	}
}

func TestIngestFile_RemovesStaleItems(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prices.txt")
	writeFile(t, path, priceFile)

	if _, err := svc.IngestFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	// Drop the washer line and re-ingest.
	writeFile(t, path, "supplier: Hongda\nname: hex bolt, spec: M8x40, unit: piece, price: 0.5\n")
	if _, err := svc.IngestFile(ctx, path); err != nil {
		t.Fatal(err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item after stale removal, got %d", len(items))
	}
	if items[0].Name != "hex bolt" {
		t.Errorf("wrong item kept: %+v", items[0])
	}
}

func TestIngestDirectory(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.txt"), priceFile)
	writeFile(t, filepath.Join(dir, "two.txt"), "supplier: B\nname: nut, spec: M8, unit: piece, price: 0.1\n")
	writeFile(t, filepath.Join(dir, "readme.md"), "not a price file")

	summary, err := svc.IngestDirectory(context.Background(), dir, []string{".txt"})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Files != 2 {
		t.Errorf("expected 2 files, got %d", summary.Files)
	}
	if summary.Items != 3 {
		t.Errorf("expected 3 items, got %d", summary.Items)
	}
}

func TestItemID_Stable(t *testing.T) {
	rec := models.PriceRecord{Supplier: "A", Name: "bolt", Spec: "M8", Unit: "piece", Price: 1}
	if ItemID("p.txt", rec) != ItemID("p.txt", rec) {
		t.Error("same record and source must hash to the same id")
	}
	if ItemID("p.txt", rec) == ItemID("q.txt", rec) {
		t.Error("different sources must hash to different ids")
	}
}

func TestAddAndDeleteItem(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	item, err := svc.AddItem(ctx, models.PriceRecord{
		Supplier: "Hongda", Name: "hex bolt", Spec: "M8x40", Unit: "piece", Price: 0.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if item.Source != ManualSource {
		t.Errorf("expected manual source, got %q", item.Source)
	}

	got, err := store.Get(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "hex bolt" {
		t.Errorf("got %+v", got)
	}

	if err := svc.DeleteItem(ctx, item.ID); err != nil {
		t.Fatal(err)
	}
	err = svc.DeleteItem(ctx, item.ID)
	var notFound *vectorstore.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for second delete, got %v", err)
	}
}

func TestRemoveSource(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prices.txt")
	writeFile(t, path, priceFile)

	if _, err := svc.IngestFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	n, err := svc.RemoveSource(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("expected empty store, got %d", count)
	}
}
