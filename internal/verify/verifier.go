// Package verify reviews generated guidance documents against the memory
// they were rendered from and scrubs stale content flagged by the review.
package verify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/easeaico/session-memory/internal/llm"
	"github.com/easeaico/session-memory/internal/memory"
	"github.com/easeaico/session-memory/internal/prompts"
)

// Verifier scores generated content and reports typed issues.
type Verifier struct {
	oracle   llm.Oracle
	maxTurns int
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithMaxTurns bounds the oracle exchange budget per verification.
func WithMaxTurns(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.maxTurns = n
		}
	}
}

// New creates a Verifier backed by the given oracle.
func New(oracle llm.Oracle, opts ...Option) *Verifier {
	v := &Verifier{oracle: oracle, maxTurns: 30}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify reviews content against its source memory. A response that
// cannot be parsed degrades to a permissive report instead of blocking
// the pipeline; oracle transport and budget errors still propagate.
func (v *Verifier) Verify(ctx context.Context, content string, mem *memory.ProjectMemory) (*memory.VerificationReport, error) {
	memJSON, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode memory: %w", err)
	}

	system, user := prompts.Verify(content, string(memJSON))
	response, err := v.oracle.Complete(ctx, llm.Request{
		System:   system,
		Prompt:   user,
		MaxTurns: v.maxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}

	var report memory.VerificationReport
	if err := llm.DecodeJSON(response, &report); err != nil {
		return &memory.VerificationReport{
			IsValid: true,
			Score:   0,
			Issues:  []memory.VerificationIssue{},
			Summary: "Could not parse verification response",
		}, nil
	}
	if report.Issues == nil {
		report.Issues = []memory.VerificationIssue{}
	}

	return &report, nil
}
