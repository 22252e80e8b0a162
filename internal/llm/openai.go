package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const retryBackoff = 500 * time.Millisecond

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint.
// Transient failures are retried once with backoff, non-transient failures
// surface immediately.
type OpenAIGenerator struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// Options configures an OpenAIGenerator.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewOpenAIGenerator creates a generator against the given OpenAI-compatible endpoint.
func NewOpenAIGenerator(opts Options) (*OpenAIGenerator, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("generation model is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(clientOpts...),
		model:   opts.Model,
		timeout: opts.Timeout,
	}, nil
}

// Complete sends the prompts and returns the model's message content. Each
// call is bounded by the configured timeout independent of retries, so the
// caller's overall budget is respected.
func (g *OpenAIGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	var lastErr *ServiceError
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		resp, err := g.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			Model: openai.ChatModel(g.model),
		})
		cancel()
		if err == nil {
			if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
				return "", ErrEmptyCompletion
			}
			return resp.Choices[0].Message.Content, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = classify(err)
		if !lastErr.Transient {
			return "", lastErr
		}
	}
	return "", lastErr
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
	return &ServiceError{Transient: true, Err: err}
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (g *OpenAIGenerator) Close() error {
	return nil
}
