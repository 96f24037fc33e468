// Package llm provides the language model boundary for memory analysis:
// a text completion oracle with a bounded exchange budget, an embedding
// client, and helpers for parsing model output.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrMalformedResponse indicates the model returned output that could
	// not be parsed into the expected structure.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrBudgetExceeded indicates the exchange budget was exhausted before
	// the model produced a complete response.
	ErrBudgetExceeded = errors.New("exchange budget exceeded")
)

// Request describes a single completion task.
type Request struct {
	// System is the system instruction for the task, empty for none.
	System string

	// Prompt is the user prompt.
	Prompt string

	// MaxTurns bounds how many request/response exchanges may be spent
	// completing this task. Zero means the caller's default applies.
	MaxTurns int
}

// Oracle is a text-in, text-out completion capability. Implementations
// must return the full response text or an error, never a partial result.
type Oracle interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Embedder provides text embedding capability.
type Embedder interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
