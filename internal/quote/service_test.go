package quote

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/embedding"
	"github.com/alexnetwork99/quotation-automation/internal/models"
	"github.com/alexnetwork99/quotation-automation/internal/retrieval"
	"github.com/alexnetwork99/quotation-automation/internal/vectorstore"
)

func newTestService(t *testing.T, gen *stubGenerator, items ...models.CatalogItem) *Service {
	t.Helper()
	embedder := embedding.NewMockEmbedder(32)
	store, err := vectorstore.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), 32)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, item := range items {
		vec, err := embedder.Embed(ctx, item.EmbeddingText())
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Upsert(ctx, item, vec); err != nil {
			t.Fatal(err)
		}
	}

	retriever := retrieval.NewRetriever(embedder, store, 0.1, 5, zap.NewNop())
	composer := NewComposer(gen, 8, zap.NewNop())
	return NewService(retriever, composer, zap.NewNop())
}

func TestQuote_EmptyInquiryRejectedEarly(t *testing.T) {
	gen := &stubGenerator{}
	svc := newTestService(t, gen)

	for _, inquiry := range []string{"", "   ", "\n\t"} {
		_, err := svc.Quote(context.Background(), models.InquiryRequest{Inquiry: inquiry})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("inquiry %q: expected ErrInvalidInput, got %v", inquiry, err)
		}
	}
	if gen.calls != 0 {
		t.Errorf("no model calls expected for invalid input, got %d", gen.calls)
	}
}

func TestQuote_EndToEnd(t *testing.T) {
	bolt := models.CatalogItem{
		ID: "bolt-001", Supplier: "Hongda", Name: "M8 hex bolt", Spec: "40mm",
		Unit: "piece", Price: 0.5, Source: "prices.txt",
	}
	gen := &stubGenerator{responses: []string{
		`{"items": [{"id": "bolt-001", "quantity": 200}], "note": ""}`,
	}}
	svc := newTestService(t, gen, bolt)

	q, err := svc.Quote(context.Background(), models.InquiryRequest{Inquiry: "need 200 M8 hex bolt"})
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != models.QuoteStatusOK {
		t.Fatalf("expected ok, got %s (note %q)", q.Status, q.Note)
	}
	if q.Total != 100.0 {
		t.Errorf("expected total 100.0, got %f", q.Total)
	}
	if q.Inquiry != "need 200 M8 hex bolt" {
		t.Errorf("inquiry not echoed: %q", q.Inquiry)
	}
	if q.GeneratedAt.IsZero() {
		t.Error("GeneratedAt should be set")
	}
}

func TestQuote_NoMatchBelowThreshold(t *testing.T) {
	bolt := models.CatalogItem{
		ID: "bolt-001", Supplier: "Hongda", Name: "M8 hex bolt", Spec: "40mm",
		Unit: "piece", Price: 0.5, Source: "prices.txt",
	}
	gen := &stubGenerator{}
	svc := newTestService(t, gen, bolt)

	// Raise the threshold past any possible score so retrieval comes back empty.
	svc.retriever = retrievalWithThreshold(t, bolt, 1.01)

	q, err := svc.Quote(context.Background(), models.InquiryRequest{Inquiry: "something else entirely"})
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != models.QuoteStatusNoMatch {
		t.Errorf("expected no_match, got %s", q.Status)
	}
	if gen.calls != 0 {
		t.Errorf("no model calls expected for no_match, got %d", gen.calls)
	}
}

func retrievalWithThreshold(t *testing.T, item models.CatalogItem, threshold float64) *retrieval.Retriever {
	t.Helper()
	embedder := embedding.NewMockEmbedder(32)
	store, err := vectorstore.NewSQLiteStore(filepath.Join(t.TempDir(), "t.db"), 32)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	vec, err := embedder.Embed(ctx, item.EmbeddingText())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, item, vec); err != nil {
		t.Fatal(err)
	}
	return retrieval.NewRetriever(embedder, store, threshold, 5, zap.NewNop())
}
