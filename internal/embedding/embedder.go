// Package embedding provides text embedding via an OpenAI-compatible service, with caching.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ErrInputTooLong is returned when the input exceeds the configured maximum
// length, before any network call is made.
var ErrInputTooLong = errors.New("embedding input exceeds maximum length")

// ErrEmptyInput is returned for empty or whitespace-only input.
var ErrEmptyInput = errors.New("embedding input is empty")

// ServiceError wraps a failure from the external embedding provider.
// Transient failures (5xx, timeouts, connection errors) are retried once by
// the client before this is surfaced.
type ServiceError struct {
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("embedding service error (status %d, transient %t): %v", e.StatusCode, e.Transient, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
