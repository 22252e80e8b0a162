package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const retryBackoff = 500 * time.Millisecond

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. The provider
// is treated as a black box that returns vectors of a fixed dimension; a
// response of any other dimension is an error. Transient failures are retried
// once with backoff, non-transient failures surface immediately.
type OpenAIEmbedder struct {
	client        openai.Client
	model         string
	dimensions    int
	timeout       time.Duration
	maxInputChars int
	cache         *Cache
}

// OpenAIOptions configures an OpenAIEmbedder.
type OpenAIOptions struct {
	BaseURL       string
	APIKey        string
	Model         string
	Dimensions    int
	Timeout       time.Duration
	MaxInputChars int
	CacheSize     int
}

// NewOpenAIEmbedder creates an embedder against the given OpenAI-compatible endpoint.
func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = 8000
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 10000
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &OpenAIEmbedder{
		client:        openai.NewClient(clientOpts...),
		model:         opts.Model,
		dimensions:    opts.Dimensions,
		timeout:       opts.Timeout,
		maxInputChars: opts.MaxInputChars,
		cache:         NewCache(opts.CacheSize),
	}, nil
}

// Embed returns the embedding vector for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds multiple texts in one request. Inputs are validated before
// any network call; cached texts are not re-sent.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyInput
		}
		if len(text) > e.maxInputChars {
			return nil, fmt.Errorf("%w: %d chars, limit %d", ErrInputTooLong, len(text), e.maxInputChars)
		}
		if vec, ok := e.cache.Get(text); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	resp, err := e.request(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(missing) {
		return nil, &ServiceError{Err: fmt.Errorf("expected %d embeddings, got %d", len(missing), len(resp.Data))}
	}
	for j, data := range resp.Data {
		if len(data.Embedding) != e.dimensions {
			return nil, fmt.Errorf("embedding dimension mismatch: provider returned %d, configured %d", len(data.Embedding), e.dimensions)
		}
		vec := make([]float32, e.dimensions)
		for k, v := range data.Embedding {
			vec[k] = float32(v)
		}
		e.cache.Set(missing[j], vec)
		out[missingIdx[j]] = vec
	}
	return out, nil
}

// request performs the embeddings call with a bounded timeout and a single
// retry with backoff on transient failures.
func (e *OpenAIEmbedder) request(ctx context.Context, texts []string) (*openai.CreateEmbeddingResponse, error) {
	var lastErr *ServiceError
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		resp, err := e.client.Embeddings.New(callCtx, openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(e.model),
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		})
		cancel()
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			// The caller's budget is gone; don't convert cancellation into a
			// service error.
			return nil, ctx.Err()
		}
		lastErr = classify(err)
		if !lastErr.Transient {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// classify maps a provider failure to a ServiceError, marking 5xx responses,
// timeouts, and connection errors as transient.
func classify(err error) *ServiceError {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &ServiceError{
			StatusCode: apierr.StatusCode,
			Transient:  apierr.StatusCode >= 500,
			Err:        err,
		}
	}
	// No HTTP status: network error or per-call timeout.
	return &ServiceError{Transient: true, Err: err}
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
