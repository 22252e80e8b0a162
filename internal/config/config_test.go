package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 8081 {
		t.Errorf("expected default port 8081, got %d", cfg.Server.Port)
	}
	if cfg.VectorStore.Type != "sqlite" {
		t.Errorf("expected sqlite default, got %s", cfg.VectorStore.Type)
	}
	if cfg.Provider.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("got %s", cfg.Provider.EmbeddingModel)
	}
	if cfg.Provider.EmbeddingDimensions != 1536 {
		t.Errorf("got %d", cfg.Provider.EmbeddingDimensions)
	}
	if cfg.Quote.SimilarityThreshold != 0.30 {
		t.Errorf("got %f", cfg.Quote.SimilarityThreshold)
	}
	if cfg.Quote.TopK != 5 {
		t.Errorf("got %d", cfg.Quote.TopK)
	}
	if cfg.Provider.EmbeddingTimeout() != 10*time.Second {
		t.Errorf("got %v", cfg.Provider.EmbeddingTimeout())
	}
	if cfg.Provider.GenerationTimeout() != 25*time.Second {
		t.Errorf("got %v", cfg.Provider.GenerationTimeout())
	}
}

func TestApplyDefaults_QdrantOnlyWhenSelected(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.VectorStore.Qdrant != nil {
		t.Error("qdrant config should stay nil for the sqlite backend")
	}

	cfg = &Config{VectorStore: VectorStoreConfig{Type: "qdrant"}}
	ApplyDefaults(cfg)
	q := cfg.VectorStore.Qdrant
	if q == nil || q.Host != "localhost" || q.Port != 6334 || q.Collection != "price_catalog" {
		t.Errorf("qdrant defaults not applied: %+v", q)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9000
storage:
  database_path: ./data/test.db
quote:
  similarity_threshold: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug not loaded")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("got port %d", cfg.Server.Port)
	}
	if cfg.Quote.SimilarityThreshold != 0.5 {
		t.Errorf("got threshold %f", cfg.Quote.SimilarityThreshold)
	}
	// Unset values still get defaults.
	if cfg.Provider.GenerationModel != "gpt-4o-mini" {
		t.Errorf("got %s", cfg.Provider.GenerationModel)
	}
	// Relative ./ paths are resolved against the config directory.
	if !filepath.IsAbs(cfg.Storage.DatabasePath) {
		t.Errorf("database path not expanded: %s", cfg.Storage.DatabasePath)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}
