// Package llm provides text generation via an OpenAI-compatible chat endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Generator produces a completion for a system and user prompt pair.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Close() error
}

// ErrEmptyCompletion is returned when the provider responds with no usable
// message content.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// ServiceError wraps a failure from the generation provider. Transient
// failures (5xx, timeouts, connection errors) are retried once by the client
// before this is surfaced.
type ServiceError struct {
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service error (status %d, transient %t): %v", e.StatusCode, e.Transient, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
