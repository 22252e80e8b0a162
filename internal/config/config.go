// Package config provides configuration loading and structs for the quotation server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Provider    ProviderConfig    `yaml:"provider"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Quote       QuoteConfig       `yaml:"quote"`
}

// ServerConfig holds HTTP server settings. APIKeyEnv names the environment
// variable carrying the access token checked by the auth middleware.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// StorageConfig holds the on-disk path for the SQLite vector index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// VectorStoreConfig selects the vector store backend: "sqlite" (default,
// on-disk) or "qdrant" (remote).
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// ProviderConfig configures the OpenAI-compatible embedding and generation
// endpoint. APIKeyEnv names the environment variable holding the key.
type ProviderConfig struct {
	BaseURL               string `yaml:"base_url"`
	APIKeyEnv             string `yaml:"api_key_env"`
	EmbeddingModel        string `yaml:"embedding_model"`
	GenerationModel       string `yaml:"generation_model"`
	EmbeddingDimensions   int    `yaml:"embedding_dimensions"`
	EmbeddingTimeoutSecs  int    `yaml:"embedding_timeout_secs"`
	GenerationTimeoutSecs int    `yaml:"generation_timeout_secs"`
	MaxInputChars         int    `yaml:"max_input_chars"`
	EmbeddingCacheSize    int    `yaml:"embedding_cache_size"`
}

// EmbeddingTimeout returns the embedding call timeout as a duration.
func (p *ProviderConfig) EmbeddingTimeout() time.Duration {
	return time.Duration(p.EmbeddingTimeoutSecs) * time.Second
}

// GenerationTimeout returns the generation call timeout as a duration.
func (p *ProviderConfig) GenerationTimeout() time.Duration {
	return time.Duration(p.GenerationTimeoutSecs) * time.Second
}

// CatalogConfig holds catalog source file settings.
type CatalogConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
	Watch      bool     `yaml:"watch"`
}

// QuoteConfig holds retrieval and composition settings.
type QuoteConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	TopK                int     `yaml:"top_k"`
	MaxPromptItems      int     `yaml:"max_prompt_items"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Catalog.Directory = expandPath(cfg.Catalog.Directory, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
