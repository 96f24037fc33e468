package memory

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ItemKind names which consolidated list an indexed item came from.
type ItemKind string

const (
	KindEpisodic   ItemKind = "episodic"
	KindSemantic   ItemKind = "semantic"
	KindProcedural ItemKind = "procedural"
	KindDecision   ItemKind = "decision"
	KindGotcha     ItemKind = "gotcha"
)

// IndexedItem is one memory item prepared for similarity search: its
// primary text, a short detail line, and an embedding vector.
type IndexedItem struct {
	Kind   ItemKind
	Text   string
	Detail string
	Vector []float32
}

// Hit is one similarity-search result.
type Hit struct {
	Kind       ItemKind
	Text       string
	Detail     string
	Similarity float32
}

// Store defines the contract for pipeline persistence.
// It abstracts the storage layer so the pipeline depends only on this
// interface; SQLite and PostgreSQL implementations are provided.
type Store interface {
	// HasExtraction reports whether a session has already been extracted.
	// Batch runs consult this index so re-runs never duplicate work.
	HasExtraction(ctx context.Context, project, sessionID string) (bool, error)

	// PutExtraction persists one session extraction. Writing the same
	// session twice replaces the record rather than duplicating it.
	PutExtraction(ctx context.Context, ext *SessionExtraction) error

	// ListExtractions returns all extractions for a project ordered by
	// extraction time, oldest first.
	ListExtractions(ctx context.Context, project string) ([]SessionExtraction, error)

	// ListProjects returns the names of all projects with extractions.
	ListProjects(ctx context.Context) ([]string, error)

	// GetMemory returns the current consolidated memory for a project,
	// or ErrNotFound if the project has never been consolidated.
	GetMemory(ctx context.Context, project string) (*ProjectMemory, error)

	// PutMemory replaces the consolidated memory for a project. The
	// previous version, if any, is archived under the given snapshot ID
	// and never deleted.
	PutMemory(ctx context.Context, mem *ProjectMemory, snapshotID string) error

	// PutBundle persists a generated-artifact bundle.
	PutBundle(ctx context.Context, bundle *Bundle) error

	// GetBundle returns the most recent bundle for a project, or
	// ErrNotFound if nothing has been generated yet.
	GetBundle(ctx context.Context, project string) (*Bundle, error)

	// IndexItems replaces the similarity-search index for a project with
	// the given embedded memory items.
	IndexItems(ctx context.Context, project string, items []IndexedItem) error

	// SearchItems returns the indexed items most similar to the query
	// vector, best match first.
	SearchItems(ctx context.Context, project string, queryVector []float32, limit int) ([]Hit, error)

	// Close releases any resources held by the store.
	Close() error
}
