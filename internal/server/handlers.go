package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/embedding"
	"github.com/alexnetwork99/quotation-automation/internal/llm"
	"github.com/alexnetwork99/quotation-automation/internal/models"
	"github.com/alexnetwork99/quotation-automation/internal/quote"
	"github.com/alexnetwork99/quotation-automation/internal/vectorstore"
)

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req models.InquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	s.logger.Debug("quote request", zap.String("inquiry", req.Inquiry), zap.Int("top_k", req.TopK))
	q, err := s.quotes.Quote(r.Context(), req)
	if err != nil {
		s.respondQuoteError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.ListItems(r.Context())
	if err != nil {
		s.logger.Error("list prices failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleAddPrice(w http.ResponseWriter, r *http.Request) {
	var rec models.PriceRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(rec); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	item, err := s.catalog.AddItem(r.Context(), rec)
	if err != nil {
		s.respondQuoteError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := s.catalog.GetItem(r.Context(), id)
	if err != nil {
		var notFound *vectorstore.NotFoundError
		if errors.As(err, &notFound) {
			s.respondError(w, http.StatusNotFound, "price item not found")
			return
		}
		s.logger.Error("get price failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeletePrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete price request", zap.String("id", id))
	if err := s.catalog.DeleteItem(r.Context(), id); err != nil {
		var notFound *vectorstore.NotFoundError
		if errors.As(err, &notFound) {
			s.respondError(w, http.StatusNotFound, "price item not found")
			return
		}
		s.logger.Error("delete price failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	summary, err := s.catalog.IngestDirectory(r.Context(), s.config.Catalog.Directory, s.config.Catalog.Extensions)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.catalog.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count items failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"catalog_items": count,
		"config": map[string]interface{}{
			"vector_store":         s.config.VectorStore.Type,
			"embedding_model":      s.config.Provider.EmbeddingModel,
			"generation_model":     s.config.Provider.GenerationModel,
			"embedding_dimensions": s.config.Provider.EmbeddingDimensions,
			"similarity_threshold": s.config.Quote.SimilarityThreshold,
			"top_k":                s.config.Quote.TopK,
			"catalog_directory":    s.config.Catalog.Directory,
		},
	})
}

// respondQuoteError maps pipeline errors onto HTTP statuses: invalid input is
// the client's fault, provider failures are a bad gateway, everything else is
// internal.
func (s *Server) respondQuoteError(w http.ResponseWriter, err error) {
	var embedErr *embedding.ServiceError
	var genErr *llm.ServiceError
	switch {
	case errors.Is(err, quote.ErrInvalidInput),
		errors.Is(err, embedding.ErrEmptyInput),
		errors.Is(err, embedding.ErrInputTooLong):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &embedErr), errors.As(err, &genErr):
		s.logger.Error("provider failure", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "upstream provider unavailable")
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// validationMessage renders the first validation failure as a client-readable message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return "invalid field " + f.Field() + ": failed " + f.Tag() + " validation"
	}
	return "invalid request"
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
