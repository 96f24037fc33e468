// Package pipeline wires the memory stages together: extract sessions,
// consolidate them into project memory, generate and verify artifacts,
// and apply the results to a project tree.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/easeaico/session-memory/internal/consolidate"
	"github.com/easeaico/session-memory/internal/extract"
	"github.com/easeaico/session-memory/internal/generate"
	"github.com/easeaico/session-memory/internal/llm"
	"github.com/easeaico/session-memory/internal/memory"
	"github.com/easeaico/session-memory/internal/transcript"
	"github.com/easeaico/session-memory/internal/verify"
)

// Pipeline coordinates the full session-to-artifacts flow around a
// shared store.
type Pipeline struct {
	store        memory.Store
	index        *transcript.Index
	extractor    *extract.Extractor
	consolidator *consolidate.Consolidator
	generator    *generate.Generator
	verifier     *verify.Verifier
	embedder     llm.Embedder
	logger       *zap.Logger

	minFrequency int
	verifyDocs   bool
}

// Config assembles a Pipeline. Verifier and Embedder are optional;
// without a verifier documents ship unreviewed, without an embedder the
// similarity index is skipped.
type Config struct {
	Store        memory.Store
	Index        *transcript.Index
	Extractor    *extract.Extractor
	Consolidator *consolidate.Consolidator
	Generator    *generate.Generator
	Verifier     *verify.Verifier
	Embedder     llm.Embedder
	Logger       *zap.Logger
	MinFrequency int
}

// New creates a Pipeline from the config.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	minFrequency := cfg.MinFrequency
	if minFrequency <= 0 {
		minFrequency = generate.DefaultMinFrequency
	}
	return &Pipeline{
		store:        cfg.Store,
		index:        cfg.Index,
		extractor:    cfg.Extractor,
		consolidator: cfg.Consolidator,
		generator:    cfg.Generator,
		verifier:     cfg.Verifier,
		embedder:     cfg.Embedder,
		logger:       logger,
		minFrequency: minFrequency,
		verifyDocs:   cfg.Verifier != nil,
	}
}

// ExtractSession analyzes one session and persists the result. Already
// extracted sessions are skipped unless force is set; the skip makes
// repeated batch runs cheap.
func (p *Pipeline) ExtractSession(ctx context.Context, sessionID, project string, force bool) (*memory.SessionExtraction, bool, error) {
	if !force {
		exists, err := p.store.HasExtraction(ctx, project, sessionID)
		if err != nil {
			return nil, false, err
		}
		if exists {
			p.logger.Debug("session already extracted", zap.String("session", sessionID))
			return nil, true, nil
		}
	}

	ext, err := p.extractor.Extract(ctx, sessionID, project)
	if err != nil {
		return nil, false, err
	}

	if err := p.store.PutExtraction(ctx, ext); err != nil {
		return nil, false, err
	}

	p.logger.Info("session extracted",
		zap.String("session", sessionID),
		zap.String("project", ext.Project),
		zap.Int("episodic", len(ext.Episodic)),
		zap.Int("semantic", len(ext.Semantic)),
		zap.Int("procedural", len(ext.Procedural)),
		zap.Int("decisions", len(ext.Decisions)),
		zap.Int("gotchas", len(ext.Gotchas)))

	return ext, false, nil
}

// BatchResult summarizes a batch extraction run.
type BatchResult struct {
	Extracted int
	Skipped   int
	Failed    int
	Errors    []error
}

// ExtractAll analyzes every session of a project (or all projects when
// project is empty), running up to concurrency extractions in parallel.
// Individual session failures are collected, not fatal.
func (p *Pipeline) ExtractAll(ctx context.Context, project string, concurrency int, force bool) (*BatchResult, error) {
	if concurrency <= 0 {
		concurrency = 2
	}

	sessions, err := p.index.ListSessions(project)
	if err != nil {
		return nil, err
	}

	var result BatchResult
	results := make([]error, len(sessions))
	skipped := make([]bool, len(sessions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, sess := range sessions {
		g.Go(func() error {
			_, wasSkipped, err := p.ExtractSession(gctx, sess.ID, sess.Project, force)
			results[i] = err
			skipped[i] = wasSkipped
			// keep going; a single bad session must not sink the batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range sessions {
		switch {
		case results[i] != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("session %s: %w", sessions[i].ID, results[i]))
		case skipped[i]:
			result.Skipped++
		default:
			result.Extracted++
		}
	}

	p.logger.Info("batch extraction finished",
		zap.String("project", project),
		zap.Int("extracted", result.Extracted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return &result, nil
}

// Consolidate merges all stored extractions of a project into its
// memory, archiving the previous version and refreshing the similarity
// index.
func (p *Pipeline) Consolidate(ctx context.Context, project string) (*memory.ProjectMemory, error) {
	extractions, err := p.store.ListExtractions(ctx, project)
	if err != nil {
		return nil, err
	}

	existing, err := p.store.GetMemory(ctx, project)
	if err != nil && !errors.Is(err, memory.ErrNotFound) {
		return nil, err
	}

	mem, err := p.consolidator.Consolidate(ctx, project, extractions, existing)
	if err != nil {
		return nil, err
	}

	snapshotID := ulid.Make().String()
	if err := p.store.PutMemory(ctx, mem, snapshotID); err != nil {
		return nil, err
	}

	p.logger.Info("project memory consolidated",
		zap.String("project", project),
		zap.Int("sessions", mem.SessionsAnalyzed),
		zap.Int("episodic", len(mem.Episodic)),
		zap.Int("semantic", len(mem.Semantic)),
		zap.Int("procedural", len(mem.Procedural)),
		zap.Int("decisions", len(mem.Decisions)),
		zap.Int("gotchas", len(mem.Gotchas)))

	if p.embedder != nil {
		if err := p.indexMemory(ctx, mem); err != nil {
			p.logger.Warn("memory indexing failed", zap.Error(err))
		}
	}

	return mem, nil
}

// Generate renders the artifact bundle for a project: tasks from the
// full memory, then the guidance document and skills from the filtered
// view. When verification reports error-severity issues the memory is
// cleaned of stale items and the document regenerated exactly once.
func (p *Pipeline) Generate(ctx context.Context, project string) (*memory.Bundle, error) {
	mem, err := p.store.GetMemory(ctx, project)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return nil, fmt.Errorf("project %s: %w", project, generate.ErrNoMemory)
		}
		return nil, err
	}

	// tasks come from unfiltered memory so one-off issues still surface
	tasks, err := p.generator.Tasks(ctx, mem)
	if err != nil {
		return nil, err
	}

	filtered := generate.FilterLowFrequency(mem, p.minFrequency)
	docMem := generate.ExcludeEnvironmentSpecific(filtered)

	document, err := p.generator.Document(ctx, docMem)
	if err != nil {
		return nil, err
	}

	skills, err := p.generator.Skills(ctx, docMem)
	if err != nil {
		return nil, err
	}

	snapshot := filtered
	var report *memory.VerificationReport
	if p.verifyDocs {
		report, err = p.verifier.Verify(ctx, document, docMem)
		if err != nil {
			return nil, err
		}

		if issues := report.ErrorIssues(); len(issues) > 0 {
			p.logger.Info("regenerating document after verification",
				zap.String("project", project),
				zap.Int("error_issues", len(issues)))

			cleaned := verify.CleanStale(filtered, report)
			docMem = generate.ExcludeEnvironmentSpecific(cleaned)

			document, err = p.generator.DocumentWithFeedback(ctx, docMem, feedbackText(issues))
			if err != nil {
				return nil, err
			}

			// one verification of the regenerated document; no further
			// regeneration regardless of outcome
			report, err = p.verifier.Verify(ctx, document, docMem)
			if err != nil {
				return nil, err
			}
			snapshot = cleaned
		}
	}

	// the snapshot records the tasks the run produced
	snapshot.Tasks = tasks

	bundle := &memory.Bundle{
		Project:      project,
		RunID:        ulid.Make().String(),
		GeneratedAt:  time.Now().UTC(),
		Document:     document,
		Skills:       skills,
		Tasks:        tasks,
		Snapshot:     snapshot,
		Verification: report,
	}

	if err := p.store.PutBundle(ctx, bundle); err != nil {
		return nil, err
	}

	p.logger.Info("artifact bundle generated",
		zap.String("project", project),
		zap.String("run", bundle.RunID),
		zap.Int("skills", len(skills)),
		zap.Int("tasks", len(tasks)))

	return bundle, nil
}

// Ask answers a question from the project's consolidated memory.
func (p *Pipeline) Ask(ctx context.Context, project, question string) (string, error) {
	mem, err := p.store.GetMemory(ctx, project)
	if err != nil {
		return "", err
	}
	return p.generator.Query(ctx, mem, question)
}

// Recall runs a similarity search over the project's indexed memory
// items.
func (p *Pipeline) Recall(ctx context.Context, project, query string, limit int) ([]memory.Hit, error) {
	if p.embedder == nil {
		return nil, errors.New("recall requires an embedder")
	}
	if limit <= 0 {
		limit = 10
	}

	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return p.store.SearchItems(ctx, project, vector, limit)
}

// indexMemory rebuilds the similarity index from consolidated items.
func (p *Pipeline) indexMemory(ctx context.Context, mem *memory.ProjectMemory) error {
	var items []memory.IndexedItem

	add := func(kind memory.ItemKind, text, detail string) error {
		vector, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to embed %s item: %w", kind, err)
		}
		items = append(items, memory.IndexedItem{Kind: kind, Text: text, Detail: detail, Vector: vector})
		return nil
	}

	for _, item := range mem.Episodic {
		if err := add(memory.KindEpisodic, item.Incident, item.Resolution); err != nil {
			return err
		}
	}
	for _, item := range mem.Semantic {
		if err := add(memory.KindSemantic, item.Knowledge, item.Category); err != nil {
			return err
		}
	}
	for _, item := range mem.Procedural {
		if err := add(memory.KindProcedural, item.Workflow, strings.Join(item.Steps, "\n")); err != nil {
			return err
		}
	}
	for _, item := range mem.Decisions {
		if err := add(memory.KindDecision, item.Decision, item.Rationale); err != nil {
			return err
		}
	}
	for _, item := range mem.Gotchas {
		if err := add(memory.KindGotcha, item.Issue, item.Solution); err != nil {
			return err
		}
	}

	return p.store.IndexItems(ctx, mem.Project, items)
}

func feedbackText(issues []memory.VerificationIssue) string {
	lines := make([]string, 0, len(issues))
	for _, issue := range issues {
		lines = append(lines, fmt.Sprintf("- %s: %s", issue.Description, issue.Suggestion))
	}
	return strings.Join(lines, "\n")
}
