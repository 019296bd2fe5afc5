package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without usable text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Request carries one text-generation call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// Response is the provider outcome plus usage metrics.
type Response struct {
	Content   string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

// Client is a single text-generation provider.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
	Close() error
}
