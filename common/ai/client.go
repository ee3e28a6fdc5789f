package ai

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse signals the model returned no candidates.
	ErrEmptyResponse = errors.New("ai: model returned no candidates")
	// ErrAllModelsFailed signals every model in the fallback chain errored.
	ErrAllModelsFailed = errors.New("ai: all models in fallback chain failed")
)

// Client generates a completion for a prompt plus page markup. The returned
// string is the raw model output, which callers parse themselves.
type Client interface {
	Generate(ctx context.Context, prompt string, markup string) (string, error)
}
