// Package extract turns one recorded session into a structured
// SessionExtraction via a single analysis call to the oracle.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/easeaico/session-memory/internal/llm"
	"github.com/easeaico/session-memory/internal/memory"
	"github.com/easeaico/session-memory/internal/prompts"
	"github.com/easeaico/session-memory/internal/transcript"
)

// ErrEmptyTrace indicates a session file contained no analyzable turns.
var ErrEmptyTrace = errors.New("session trace is empty")

// Extractor analyzes session traces and produces typed memory items.
type Extractor struct {
	oracle        llm.Oracle
	index         *transcript.Index
	tip           prompts.Tip
	maxTraceChars int
	maxTurns      int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTip selects the emphasis hint used in the analysis prompt.
func WithTip(tip prompts.Tip) Option {
	return func(e *Extractor) { e.tip = tip }
}

// WithMaxTraceChars bounds the rendered trace size.
func WithMaxTraceChars(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxTraceChars = n
		}
	}
}

// WithMaxTurns bounds the oracle exchange budget per extraction.
func WithMaxTurns(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxTurns = n
		}
	}
}

// New creates an Extractor reading sessions through index and analyzing
// them with oracle.
func New(oracle llm.Oracle, index *transcript.Index, opts ...Option) *Extractor {
	e := &Extractor{
		oracle:        oracle,
		index:         index,
		tip:           prompts.TipPractical,
		maxTraceChars: transcript.DefaultMaxTraceChars,
		maxTurns:      30,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// extractionPayload mirrors the JSON shape the analysis prompt requests.
type extractionPayload struct {
	SessionSummary string                    `json:"session_summary"`
	Episodic       []memory.EpisodicMemory   `json:"episodic"`
	Semantic       []memory.SemanticMemory   `json:"semantic"`
	Procedural     []memory.ProceduralMemory `json:"procedural"`
	Decisions      []memory.Decision         `json:"decisions"`
	Gotchas        []memory.Gotcha           `json:"gotchas"`
}

// Extract analyzes the session with the given ID. An empty project is
// derived from the session's location on disk. The whole analysis is one
// oracle exchange; a response that cannot be parsed fails with
// llm.ErrMalformedResponse.
func (e *Extractor) Extract(ctx context.Context, sessionID, project string) (*memory.SessionExtraction, error) {
	sessionPath, err := e.index.FindSession(sessionID)
	if err != nil {
		return nil, err
	}

	if project == "" {
		project = e.index.ProjectName(sessionPath)
	}

	trace, err := transcript.LoadTrace(sessionPath, e.maxTraceChars)
	if err != nil {
		return nil, err
	}
	if trace == "" {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrEmptyTrace)
	}

	system, user := prompts.Extraction(trace, e.tip)
	response, err := e.oracle.Complete(ctx, llm.Request{
		System:   system,
		Prompt:   user,
		MaxTurns: e.maxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed for session %s: %w", sessionID, err)
	}

	var payload extractionPayload
	if err := llm.DecodeJSON(response, &payload); err != nil {
		return nil, fmt.Errorf("extraction response for session %s: %w", sessionID, err)
	}

	ext := &memory.SessionExtraction{
		SessionID:   sessionID,
		Project:     project,
		ExtractedAt: time.Now().UTC(),
		Summary:     payload.SessionSummary,
		Episodic:    payload.Episodic,
		Semantic:    payload.Semantic,
		Procedural:  payload.Procedural,
		Decisions:   payload.Decisions,
		Gotchas:     payload.Gotchas,
	}
	normalize(ext)

	return ext, nil
}

// normalize fills defaults for fields the model may omit so downstream
// consumers never see nils or blank enums.
func normalize(ext *memory.SessionExtraction) {
	if ext.Episodic == nil {
		ext.Episodic = []memory.EpisodicMemory{}
	}
	if ext.Semantic == nil {
		ext.Semantic = []memory.SemanticMemory{}
	}
	if ext.Procedural == nil {
		ext.Procedural = []memory.ProceduralMemory{}
	}
	if ext.Decisions == nil {
		ext.Decisions = []memory.Decision{}
	}
	if ext.Gotchas == nil {
		ext.Gotchas = []memory.Gotcha{}
	}

	for i := range ext.Episodic {
		if ext.Episodic[i].Scope == "" {
			ext.Episodic[i].Scope = memory.ScopeUniversal
		}
		if ext.Episodic[i].Severity == "" {
			ext.Episodic[i].Severity = memory.SeverityInfo
		}
	}
	for i := range ext.Semantic {
		if ext.Semantic[i].Confidence == "" {
			ext.Semantic[i].Confidence = memory.ConfidenceLow
		}
	}
	for i := range ext.Gotchas {
		if ext.Gotchas[i].Scope == "" {
			ext.Gotchas[i].Scope = memory.ScopeUniversal
		}
	}
}
