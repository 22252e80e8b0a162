// Package server provides the HTTP API for the quotation service.
package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/catalog"
	"github.com/alexnetwork99/quotation-automation/internal/config"
	"github.com/alexnetwork99/quotation-automation/internal/quote"
)

// Server is the HTTP server for the quotation API.
type Server struct {
	quotes   *quote.Service
	catalog  *catalog.Service
	config   *config.Config
	logger   *zap.Logger
	validate *validator.Validate
	apiKey   string
	server   *http.Server
}

// NewServer creates a server with the given dependencies. The API key is read
// from the environment variable named in the server config; when that variable
// is empty, authentication is disabled.
func NewServer(
	quotes *quote.Service,
	cat *catalog.Service,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	apiKey := os.Getenv(cfg.Server.APIKeyEnv)
	if apiKey == "" {
		logger.Warn("API key not set, authentication disabled",
			zap.String("env", cfg.Server.APIKeyEnv))
	}
	return &Server{
		quotes:   quotes,
		catalog:  cat,
		config:   cfg,
		logger:   logger,
		validate: validator.New(),
		apiKey:   apiKey,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/quote", s.handleQuote)
		r.Post("/quote/export", s.handleExportQuote)
		r.Get("/prices", s.handleListPrices)
		r.Post("/prices", s.handleAddPrice)
		r.Get("/prices/{id}", s.handleGetPrice)
		r.Delete("/prices/{id}", s.handleDeletePrice)
		r.Post("/ingest", s.handleIngest)
		r.Get("/status", s.handleStatus)
	})

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requireAPIKey checks the X-API-Key header against the configured key.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			got := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
				s.respondError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
