package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	if cfg.Server.APIKeyEnv == "" {
		cfg.Server.APIKeyEnv = "QUOTE_API_KEY"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/catalog.db"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.Host == "" {
			cfg.VectorStore.Qdrant.Host = "localhost"
		}
		if cfg.VectorStore.Qdrant.Port == 0 {
			cfg.VectorStore.Qdrant.Port = 6334
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "price_catalog"
		}
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Provider.APIKeyEnv == "" {
		cfg.Provider.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Provider.EmbeddingModel == "" {
		cfg.Provider.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.Provider.GenerationModel == "" {
		cfg.Provider.GenerationModel = "gpt-4o-mini"
	}
	if cfg.Provider.EmbeddingDimensions == 0 {
		cfg.Provider.EmbeddingDimensions = 1536
	}
	if cfg.Provider.EmbeddingTimeoutSecs == 0 {
		cfg.Provider.EmbeddingTimeoutSecs = 10
	}
	if cfg.Provider.GenerationTimeoutSecs == 0 {
		cfg.Provider.GenerationTimeoutSecs = 25
	}
	if cfg.Provider.MaxInputChars == 0 {
		cfg.Provider.MaxInputChars = 8000
	}
	if cfg.Provider.EmbeddingCacheSize == 0 {
		cfg.Provider.EmbeddingCacheSize = 10000
	}
	if cfg.Catalog.Directory == "" {
		cfg.Catalog.Directory = "./catalog"
	}
	if cfg.Catalog.Extensions == nil {
		cfg.Catalog.Extensions = []string{".txt"}
	}
	if cfg.Quote.SimilarityThreshold == 0 {
		cfg.Quote.SimilarityThreshold = 0.30
	}
	if cfg.Quote.TopK == 0 {
		cfg.Quote.TopK = 5
	}
	if cfg.Quote.MaxPromptItems == 0 {
		cfg.Quote.MaxPromptItems = 8
	}
}
