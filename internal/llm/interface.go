// Package llm wraps the hosted language models the summarizer can call in
// process.
package llm

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("empty response from model")

// Client sends one prompt and returns the model's text reply.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend and model in logs and spans.
	Name() string
}
