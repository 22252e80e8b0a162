package quote

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/models"
	"github.com/alexnetwork99/quotation-automation/internal/retrieval"
)

// Service is the end-to-end quotation pipeline: retrieve candidates for an
// inquiry, then compose a quote from them.
type Service struct {
	retriever *retrieval.Retriever
	composer  *Composer
	logger    *zap.Logger
}

// NewService creates a quote service.
func NewService(retriever *retrieval.Retriever, composer *Composer, logger *zap.Logger) *Service {
	return &Service{
		retriever: retriever,
		composer:  composer,
		logger:    logger,
	}
}

// Quote produces a quotation for the inquiry. Empty inquiries fail with
// ErrInvalidInput before any embedding or model call.
func (s *Service) Quote(ctx context.Context, req models.InquiryRequest) (*models.Quote, error) {
	req.Inquiry = strings.TrimSpace(req.Inquiry)
	if req.Inquiry == "" {
		return nil, ErrInvalidInput
	}

	candidates, err := s.retriever.Retrieve(ctx, req.Inquiry, req.TopK)
	if err != nil {
		return nil, err
	}
	quote, err := s.composer.Compose(ctx, req, candidates)
	if err != nil {
		return nil, err
	}
	s.logger.Info("quote generated",
		zap.String("status", string(quote.Status)),
		zap.Int("lines", len(quote.Lines)),
		zap.Float64("total", quote.Total))
	return quote, nil
}
