// Package generate renders derived artifacts from consolidated project
// memory: the guidance document, reusable skill files, and a root-cause
// task list. Every artifact has a deterministic template fallback for
// running without an oracle.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/easeaico/session-memory/internal/llm"
	"github.com/easeaico/session-memory/internal/memory"
	"github.com/easeaico/session-memory/internal/prompts"
)

// ErrNoMemory indicates no consolidated memory exists to generate from.
var ErrNoMemory = errors.New("no consolidated memory for project")

// Generator renders artifacts from project memory. With a nil oracle all
// artifacts come from templates.
type Generator struct {
	oracle   llm.Oracle
	tip      prompts.Tip
	maxTurns int
}

// Option configures a Generator.
type Option func(*Generator)

// WithOracle enables model-based generation.
func WithOracle(oracle llm.Oracle) Option {
	return func(g *Generator) { g.oracle = oracle }
}

// WithTip selects the emphasis hint for document generation.
func WithTip(tip prompts.Tip) Option {
	return func(g *Generator) { g.tip = tip }
}

// WithMaxTurns bounds the oracle exchange budget per artifact.
func WithMaxTurns(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTurns = n
		}
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{tip: prompts.TipActionable, maxTurns: 30}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func marshalMemory(mem *memory.ProjectMemory) (string, error) {
	data, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode memory: %w", err)
	}
	return string(data), nil
}

// Document renders the guidance document. Model output is cleaned of
// preamble; commentary with no usable heading yields the failure
// sentinel. Oracle transport or budget errors are returned, never
// swallowed.
func (g *Generator) Document(ctx context.Context, mem *memory.ProjectMemory) (string, error) {
	if g.oracle == nil {
		return TemplateDocument(mem), nil
	}

	memJSON, err := marshalMemory(mem)
	if err != nil {
		return "", err
	}

	system, user := prompts.Document(memJSON, g.tip)
	response, err := g.oracle.Complete(ctx, llm.Request{
		System:   system,
		Prompt:   user,
		MaxTurns: g.maxTurns,
	})
	if err != nil {
		return "", fmt.Errorf("document generation failed: %w", err)
	}

	return extractFinalMarkdown(response), nil
}

// DocumentWithFeedback regenerates the document with verifier findings
// appended to the prompt.
func (g *Generator) DocumentWithFeedback(ctx context.Context, mem *memory.ProjectMemory, feedback string) (string, error) {
	if g.oracle == nil {
		return TemplateDocument(mem), nil
	}

	memJSON, err := marshalMemory(mem)
	if err != nil {
		return "", err
	}

	system, user := prompts.DocumentWithFeedback(memJSON, feedback, g.tip)
	response, err := g.oracle.Complete(ctx, llm.Request{
		System:   system,
		Prompt:   user,
		MaxTurns: g.maxTurns,
	})
	if err != nil {
		return "", fmt.Errorf("document regeneration failed: %w", err)
	}

	return extractFinalMarkdown(response), nil
}

// Skills derives slash-command skill files from the memory's workflows.
// An unparseable model response degrades to no skills rather than
// failing the run.
func (g *Generator) Skills(ctx context.Context, mem *memory.ProjectMemory) (map[string]string, error) {
	if len(mem.Procedural) == 0 {
		return map[string]string{}, nil
	}
	if g.oracle == nil {
		return TemplateSkills(mem), nil
	}

	memJSON, err := marshalMemory(mem)
	if err != nil {
		return nil, err
	}

	system, user := prompts.Skills(memJSON)
	response, err := g.oracle.Complete(ctx, llm.Request{
		System:   system,
		Prompt:   user,
		MaxTurns: g.maxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("skill generation failed: %w", err)
	}

	var skills map[string]string
	if err := llm.DecodeJSON(response, &skills); err != nil {
		return map[string]string{}, nil
	}
	if skills == nil {
		skills = map[string]string{}
	}
	return skills, nil
}

// Tasks converts the memory's issues into root-cause tasks. Runs against
// unfiltered memory so one-off incidents still surface. An unparseable
// model response degrades to no tasks.
func (g *Generator) Tasks(ctx context.Context, mem *memory.ProjectMemory) ([]memory.ActionableTask, error) {
	if len(mem.Gotchas) == 0 && len(mem.Episodic) == 0 {
		return nil, nil
	}
	if g.oracle == nil {
		return nil, nil
	}

	memJSON, err := marshalMemory(mem)
	if err != nil {
		return nil, err
	}

	system, user := prompts.Tasks(memJSON)
	response, err := g.oracle.Complete(ctx, llm.Request{
		System:   system,
		Prompt:   user,
		MaxTurns: g.maxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("task generation failed: %w", err)
	}

	var tasks []memory.ActionableTask
	if err := llm.DecodeJSON(response, &tasks); err != nil {
		return nil, nil
	}
	return tasks, nil
}

// Query answers a free-form question from the project memory.
func (g *Generator) Query(ctx context.Context, mem *memory.ProjectMemory, question string) (string, error) {
	if g.oracle == nil {
		return "", errors.New("query requires an oracle")
	}

	memJSON, err := marshalMemory(mem)
	if err != nil {
		return "", err
	}

	system, user := prompts.Query(question, memJSON)
	response, err := g.oracle.Complete(ctx, llm.Request{
		System:   system,
		Prompt:   user,
		MaxTurns: g.maxTurns,
	})
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}

	return strings.TrimSpace(response), nil
}

// TemplateDocument renders the guidance document directly from counters,
// sections ordered the same way the model is instructed to order them.
func TemplateDocument(mem *memory.ProjectMemory) string {
	lines := []string{
		fmt.Sprintf("# Project: %s", mem.Project),
		"",
		fmt.Sprintf("> Auto-generated from %d coding agent session(s)", mem.SessionsAnalyzed),
		fmt.Sprintf("> Last updated: %s", time.Now().Format("2006-01-02")),
		"",
	}

	if len(mem.Episodic) > 0 {
		lines = append(lines, "## Common Errors", "")
		episodic := append([]memory.ConsolidatedEpisodic(nil), mem.Episodic...)
		sort.SliceStable(episodic, func(i, j int) bool {
			return episodic[i].Occurrences > episodic[j].Occurrences
		})
		for _, item := range top(episodic, 10) {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", item.Incident, item.Resolution))
		}
		lines = append(lines, "")
	}

	if len(mem.Semantic) > 0 {
		lines = append(lines, "## Conventions", "")
		semantic := append([]memory.ConsolidatedSemantic(nil), mem.Semantic...)
		sort.SliceStable(semantic, func(i, j int) bool {
			return semantic[i].Frequency > semantic[j].Frequency
		})
		for _, item := range top(semantic, 15) {
			lines = append(lines, fmt.Sprintf("- %s", item.Knowledge))
		}
		lines = append(lines, "")
	}

	if len(mem.Procedural) > 0 {
		lines = append(lines, "## Workflows", "")
		procedural := append([]memory.ConsolidatedProcedural(nil), mem.Procedural...)
		sort.SliceStable(procedural, func(i, j int) bool {
			return procedural[i].TimesUsed > procedural[j].TimesUsed
		})
		for _, item := range top(procedural, 5) {
			lines = append(lines, fmt.Sprintf("### %s", item.Workflow))
			for i, step := range item.Steps {
				lines = append(lines, fmt.Sprintf("%d. %s", i+1, step))
			}
			lines = append(lines, "")
		}
	}

	if len(mem.Decisions) > 0 {
		lines = append(lines, "## Decisions", "")
		for _, item := range top(mem.Decisions, 10) {
			alts := ""
			if len(item.Alternatives) > 0 {
				alts = fmt.Sprintf(" (alternatives: %s)", strings.Join(item.Alternatives, ", "))
			}
			lines = append(lines, fmt.Sprintf("- **%s**: %s%s", item.Decision, item.Rationale, alts))
		}
		lines = append(lines, "")
	}

	if len(mem.Gotchas) > 0 {
		lines = append(lines, "## Gotchas", "")
		gotchas := append([]memory.ConsolidatedGotcha(nil), mem.Gotchas...)
		sort.SliceStable(gotchas, func(i, j int) bool {
			return gotchas[i].Frequency > gotchas[j].Frequency
		})
		for _, item := range top(gotchas, 10) {
			solution := ""
			if item.Solution != "" {
				solution = " - " + item.Solution
			}
			lines = append(lines, fmt.Sprintf("- %s%s", item.Issue, solution))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

var skillNameSanitizer = regexp.MustCompile(`[^a-z0-9-]`)

// SkillName derives a kebab-case skill file name from a workflow name.
func SkillName(workflow string) string {
	name := strings.ReplaceAll(strings.ToLower(workflow), " ", "-")
	return skillNameSanitizer.ReplaceAllString(name, "")
}

// TemplateSkills renders skill files from workflows used at least twice.
func TemplateSkills(mem *memory.ProjectMemory) map[string]string {
	skills := map[string]string{}

	for _, item := range mem.Procedural {
		if item.TimesUsed < 2 {
			continue
		}

		name := SkillName(item.Workflow)
		if name == "" {
			continue
		}

		content := []string{item.Workflow, "", "## Steps", ""}
		for i, step := range item.Steps {
			content = append(content, fmt.Sprintf("%d. %s", i+1, step))
		}
		if item.Trigger != "" {
			content = append(content, "", "## When to Use", "", item.Trigger)
		}

		skills[name] = strings.Join(content, "\n")
	}

	return skills
}

func top[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
