package verify

import (
	"testing"

	"github.com/easeaico/session-memory/internal/memory"
)

func cleanerMemory() *memory.ProjectMemory {
	return &memory.ProjectMemory{
		Project: "proj",
		Episodic: []memory.ConsolidatedEpisodic{
			{Incident: "build cache corrupted", Resolution: "cleared cache", Occurrences: 2, Scope: memory.ScopeUniversal},
			{Incident: "zoxide hook slowed shell startup", Resolution: "removed hook", Occurrences: 3, Scope: memory.ScopeUniversal},
			{Incident: "local PATH broke tooling", Resolution: "fixed PATH", Occurrences: 4, Scope: memory.ScopeEnvironment},
		},
		Semantic: []memory.ConsolidatedSemantic{
			{Knowledge: "zsh completions are configured per developer", Category: "environment", Frequency: 3, Confidence: memory.ConfidenceHigh},
		},
		Procedural: []memory.ConsolidatedProcedural{
			{Workflow: "deploy", Steps: []string{"build", "push"}, TimesUsed: 3},
			{Workflow: "shell setup", Steps: []string{"install oh-my-zsh", "source rc"}, TimesUsed: 2},
		},
		Decisions: []memory.ConsolidatedDecision{
			{Decision: "use make for builds", Rationale: "everyone has it", Status: memory.DecisionActive},
			{Decision: "standardize on zsh prompts", Rationale: "consistency", Status: memory.DecisionActive},
		},
		Gotchas: []memory.ConsolidatedGotcha{
			{Issue: "tests need the db container", Frequency: 2, Scope: memory.ScopeUniversal},
			{Issue: "legacy-auth flag misbehaves", Frequency: 2, Scope: memory.ScopeUniversal},
		},
	}
}

func TestCleanStaleNilReport(t *testing.T) {
	mem := cleanerMemory()
	got := CleanStale(mem, nil)

	// Nothing to clean, but the result is still a copy.
	if len(got.Episodic) != len(mem.Episodic) {
		t.Errorf("nil report must not clean anything")
	}
	got.Episodic[0].Incident = "mutated"
	if mem.Episodic[0].Incident == "mutated" {
		t.Error("CleanStale must return a copy")
	}
}

func TestCleanStale(t *testing.T) {
	mem := cleanerMemory()
	report := &memory.VerificationReport{
		IsValid:    false,
		Score:      40,
		StaleItems: []string{"legacy-auth flag"},
		Issues: []memory.VerificationIssue{
			{Type: memory.IssueStale, Severity: memory.IssueError, Description: "Mentions zoxide which was uninstalled"},
		},
	}

	got := CleanStale(mem, report)

	// Keyword-flagged and environment-scoped episodic items are removed.
	if len(got.Episodic) != 1 || got.Episodic[0].Incident != "build cache corrupted" {
		t.Errorf("Episodic = %+v, want only the cache incident", got.Episodic)
	}

	// Semantic memories are never cleaned, even when they match keywords.
	if len(got.Semantic) != 1 {
		t.Errorf("Semantic = %+v, must be untouched", got.Semantic)
	}

	// A workflow is removed when any of its steps is stale.
	if len(got.Procedural) != 1 || got.Procedural[0].Workflow != "deploy" {
		t.Errorf("Procedural = %+v, want only deploy", got.Procedural)
	}

	// Decisions mentioning stale keywords are removed.
	if len(got.Decisions) != 1 || got.Decisions[0].Decision != "use make for builds" {
		t.Errorf("Decisions = %+v, want only the make decision", got.Decisions)
	}

	// The stale_items entry removes the matching gotcha.
	if len(got.Gotchas) != 1 || got.Gotchas[0].Issue != "tests need the db container" {
		t.Errorf("Gotchas = %+v, want only the db container gotcha", got.Gotchas)
	}

	// Input is unchanged.
	if len(mem.Episodic) != 3 || len(mem.Procedural) != 2 || len(mem.Decisions) != 2 {
		t.Error("CleanStale mutated its input")
	}
}
