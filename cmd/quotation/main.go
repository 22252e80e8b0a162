// Package main is the quotation CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/catalog"
	"github.com/alexnetwork99/quotation-automation/internal/config"
	"github.com/alexnetwork99/quotation-automation/internal/embedding"
	"github.com/alexnetwork99/quotation-automation/internal/llm"
	"github.com/alexnetwork99/quotation-automation/internal/models"
	"github.com/alexnetwork99/quotation-automation/internal/quote"
	"github.com/alexnetwork99/quotation-automation/internal/retrieval"
	"github.com/alexnetwork99/quotation-automation/internal/server"
	"github.com/alexnetwork99/quotation-automation/internal/vectorstore"
	"github.com/alexnetwork99/quotation-automation/internal/watcher"
	"github.com/alexnetwork99/quotation-automation/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/quotation/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used, so that "quotation server" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Provider and API keys may live in a local .env during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "quote":
		runQuote()
	case "ingest":
		runIngest()
	case "prices":
		runPrices()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("quotation version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if cfg.Catalog.Watch {
		cat := components.Catalog
		watchSvc = watcher.NewWatcher(
			cfg.Catalog.Directory,
			cfg.Catalog.Extensions,
			func(path string) {
				if _, err := cat.IngestFile(context.Background(), path); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				if _, err := cat.RemoveSource(context.Background(), path); err != nil {
					logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
				}
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(components.Quotes, components.Catalog, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runQuote() {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = run the pipeline directly)")
	quantity := fs.Float64("quantity", 0, "default quantity when the inquiry states none")
	topK := fs.Int("top-k", 0, "retrieval depth override")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: quotation quote [flags] <inquiry>")
		os.Exit(1)
	}
	req := models.InquiryRequest{
		Inquiry:  strings.TrimSpace(strings.Join(fs.Args(), " ")),
		Quantity: *quantity,
		TopK:     *topK,
	}

	var q *models.Quote
	if *serverURL != "" {
		res, err := quoteViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Quote failed: %v\n", err)
			os.Exit(1)
		}
		q = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		q, err = components.Quotes.Quote(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Quote failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(q); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printQuote(q)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printQuote(q *models.Quote) {
	fmt.Printf("status: %s\n", q.Status)
	if q.Note != "" {
		fmt.Printf("note:   %s\n", q.Note)
	}
	for _, line := range q.Lines {
		fmt.Printf("  %s (%s) x %g %s @ %.2f = %.2f  [%s]\n",
			line.Name, line.Spec, line.Quantity, line.Unit, line.UnitPrice, line.Total, line.Supplier)
	}
	fmt.Printf("total:  %.2f\n", q.Total)
}

func quoteViaHTTP(serverURL string, req models.InquiryRequest) (*models.Quote, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequest(http.MethodPost, serverURL+"/api/v1/quote", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("QUOTE_API_KEY"); key != "" {
		httpReq.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var q models.Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &q, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if fs.NArg() > 0 {
		// Single file.
		summary, err := components.Catalog.IngestFile(ctx, fs.Arg(0))
		if err != nil {
			fmt.Printf("Ingestion failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d item(s) from %s (%d skipped)\n", summary.Items, fs.Arg(0), summary.Skipped)
		return
	}
	summary, err := components.Catalog.IngestDirectory(ctx, cfg.Catalog.Directory, cfg.Catalog.Extensions)
	if err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d item(s) from %d file(s) (%d skipped)\n", summary.Items, summary.Files, summary.Skipped)
}

func runPrices() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: quotation prices <list|add|remove> [flags]")
		fmt.Println("  quotation prices list")
		fmt.Println("  quotation prices add --supplier S --name N --unit U --price P [--spec SPEC]")
		fmt.Println("  quotation prices remove <id>")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("prices", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	supplier := fs.String("supplier", "", "supplier name")
	name := fs.String("name", "", "product name")
	spec := fs.String("spec", "", "product specification")
	unit := fs.String("unit", "", "pricing unit")
	price := fs.Float64("price", 0, "unit price")
	_ = fs.Parse(os.Args[3:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	switch sub {
	case "list":
		items, err := components.Catalog.ListItems(ctx)
		if err != nil {
			fmt.Printf("List failed: %v\n", err)
			os.Exit(1)
		}
		for _, it := range items {
			fmt.Printf("%s  %s (%s)  %.2f/%s  [%s]  %s\n",
				it.ID, it.Name, it.Spec, it.Price, it.Unit, it.Supplier, it.Source)
		}
		fmt.Printf("%d item(s)\n", len(items))
	case "add":
		rec := models.PriceRecord{
			Supplier: *supplier,
			Name:     *name,
			Spec:     *spec,
			Unit:     *unit,
			Price:    *price,
		}
		item, err := components.Catalog.AddItem(ctx, rec)
		if err != nil {
			fmt.Printf("Add failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", item.ID)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: quotation prices remove <id>")
			os.Exit(1)
		}
		if err := components.Catalog.DeleteItem(ctx, fs.Arg(0)); err != nil {
			fmt.Printf("Remove failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", fs.Arg(0))
	default:
		fmt.Printf("Unknown prices subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	count, err := components.Catalog.Count(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("catalog_items:        %d\n", count)
	fmt.Printf("vector_store:         %s\n", cfg.VectorStore.Type)
	fmt.Printf("embedding_model:      %s\n", cfg.Provider.EmbeddingModel)
	fmt.Printf("generation_model:     %s\n", cfg.Provider.GenerationModel)
	fmt.Printf("embedding_dims:       %d\n", cfg.Provider.EmbeddingDimensions)
	fmt.Printf("similarity_threshold: %.2f\n", cfg.Quote.SimilarityThreshold)
	fmt.Printf("catalog_directory:    %s\n", cfg.Catalog.Directory)
}

// Components holds initialized services.
type Components struct {
	Store     vectorstore.Store
	Embedder  embedding.Embedder
	Generator llm.Generator
	Catalog   *catalog.Service
	Quotes    *quote.Service
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	apiKey := os.Getenv(cfg.Provider.APIKeyEnv)

	var embedder embedding.Embedder
	if apiKey == "" {
		logger.Warn("provider API key not set, using mock embedder",
			zap.String("env", cfg.Provider.APIKeyEnv))
		embedder = embedding.NewMockEmbedder(cfg.Provider.EmbeddingDimensions)
	} else {
		e, err := embedding.NewOpenAIEmbedder(embedding.OpenAIOptions{
			BaseURL:       cfg.Provider.BaseURL,
			APIKey:        apiKey,
			Model:         cfg.Provider.EmbeddingModel,
			Dimensions:    cfg.Provider.EmbeddingDimensions,
			Timeout:       cfg.Provider.EmbeddingTimeout(),
			MaxInputChars: cfg.Provider.MaxInputChars,
			CacheSize:     cfg.Provider.EmbeddingCacheSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		embedder = e
	}

	store, err := vectorstore.NewStore(context.Background(), cfg, embedder.Dimensions())
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	generator, err := llm.NewOpenAIGenerator(llm.Options{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  apiKey,
		Model:   cfg.Provider.GenerationModel,
		Timeout: cfg.Provider.GenerationTimeout(),
	})
	if err != nil {
		_ = embedder.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	cat := catalog.NewService(embedder, store, logger)
	retriever := retrieval.NewRetriever(embedder, store,
		cfg.Quote.SimilarityThreshold, cfg.Quote.TopK, logger)
	composer := quote.NewComposer(generator, cfg.Quote.MaxPromptItems, logger)
	quotes := quote.NewService(retriever, composer, logger)

	return &Components{
		Store:     store,
		Embedder:  embedder,
		Generator: generator,
		Catalog:   cat,
		Quotes:    quotes,
	}, nil
}

func printUsage() {
	fmt.Println(`quotation - retrieval-backed price quotation service

Usage:
  quotation server [flags]          Start the HTTP server
  quotation quote [flags] <text>    Generate a quote for an inquiry
  quotation ingest [flags] [file]   Ingest the catalog directory (or one file)
  quotation prices <list|add|remove>  Manage catalog prices
  quotation status [flags]          Show catalog/configuration status
  quotation version                 Show version
  quotation help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/quotation/config.yaml)
  --debug            Enable debug logging

Quote Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (empty = run the pipeline directly)
  --quantity float   Default quantity when the inquiry states none
  --top-k int        Retrieval depth override
  --output string    Output format: text or json (default: text)

Examples:
  quotation server
  quotation ingest
  quotation quote "need 200 M8 hex bolts, 40mm"
  quotation quote --server http://localhost:8081 --output json "2 rolls of PVC tape"
  quotation prices add --supplier "Hongda" --name "hex bolt" --spec M8x40 --unit piece --price 0.5
  quotation status`)
}
