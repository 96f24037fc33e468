package generate

import (
	"testing"

	"github.com/easeaico/session-memory/internal/memory"
)

func sampleMemory() *memory.ProjectMemory {
	return &memory.ProjectMemory{
		Project: "proj",
		Episodic: []memory.ConsolidatedEpisodic{
			{Incident: "recurring crash", Resolution: "fixed nil check", Occurrences: 3, Scope: memory.ScopeUniversal},
			{Incident: "one-off typo", Resolution: "fixed", Occurrences: 1, Scope: memory.ScopeUniversal},
			{Incident: "zsh alias broke build", Resolution: "removed alias", Occurrences: 5, Scope: memory.ScopeEnvironment},
		},
		Semantic: []memory.ConsolidatedSemantic{
			{Knowledge: "tests use table style", Category: "convention", Frequency: 4, Confidence: memory.ConfidenceHigh},
			{Knowledge: "mentioned once", Category: "misc", Frequency: 1, Confidence: memory.ConfidenceLow},
		},
		Procedural: []memory.ConsolidatedProcedural{
			{Workflow: "deploy", Steps: []string{"build", "push"}, TimesUsed: 2},
			{Workflow: "rare migration", Steps: []string{"backup"}, TimesUsed: 1},
		},
		Decisions: []memory.ConsolidatedDecision{
			{Decision: "use sqlite", Rationale: "zero setup", Status: memory.DecisionActive},
		},
		Gotchas: []memory.ConsolidatedGotcha{
			{Issue: "env var required", Frequency: 2, Scope: memory.ScopeUniversal},
			{Issue: "seen once", Frequency: 1, Scope: memory.ScopeUniversal},
			{Issue: "oh-my-zsh prompt noise", Frequency: 5, Scope: memory.ScopeEnvironment},
		},
	}
}

func TestFilterLowFrequency(t *testing.T) {
	mem := sampleMemory()
	got := FilterLowFrequency(mem, 2)

	if len(got.Episodic) != 2 {
		t.Errorf("got %d episodic items, want 2", len(got.Episodic))
	}
	for _, item := range got.Episodic {
		if item.Occurrences < 2 {
			t.Errorf("item %q with %d occurrences survived the filter", item.Incident, item.Occurrences)
		}
	}
	if len(got.Semantic) != 1 || got.Semantic[0].Knowledge != "tests use table style" {
		t.Errorf("unexpected semantic items: %+v", got.Semantic)
	}
	if len(got.Procedural) != 1 || got.Procedural[0].Workflow != "deploy" {
		t.Errorf("unexpected procedural items: %+v", got.Procedural)
	}
	if len(got.Gotchas) != 2 {
		t.Errorf("got %d gotchas, want 2", len(got.Gotchas))
	}

	// Decisions are exempt from the threshold.
	if len(got.Decisions) != 1 {
		t.Errorf("decisions must survive filtering, got %d", len(got.Decisions))
	}
}

func TestFilterLowFrequencyDoesNotMutateInput(t *testing.T) {
	mem := sampleMemory()
	_ = FilterLowFrequency(mem, 2)

	if len(mem.Episodic) != 3 || len(mem.Semantic) != 2 || len(mem.Gotchas) != 3 {
		t.Error("input memory was mutated by filtering")
	}
}

func TestFilterLowFrequencyDefaultThreshold(t *testing.T) {
	mem := sampleMemory()
	got := FilterLowFrequency(mem, 0)
	if len(got.Semantic) != 1 {
		t.Errorf("zero threshold should select the default of %d", DefaultMinFrequency)
	}
}

func TestExcludeEnvironmentSpecific(t *testing.T) {
	mem := sampleMemory()
	got := ExcludeEnvironmentSpecific(mem)

	for _, item := range got.Episodic {
		if item.Scope == memory.ScopeEnvironment {
			t.Errorf("environment-specific incident %q not excluded", item.Incident)
		}
	}
	for _, item := range got.Gotchas {
		if item.Scope == memory.ScopeEnvironment {
			t.Errorf("environment-specific gotcha %q not excluded", item.Issue)
		}
	}

	// The high-frequency environment item is excluded regardless of count.
	if len(got.Episodic) != 2 || len(got.Gotchas) != 2 {
		t.Errorf("got %d episodic and %d gotchas, want 2 and 2", len(got.Episodic), len(got.Gotchas))
	}

	// The input keeps its environment-specific items.
	if len(mem.Episodic) != 3 || len(mem.Gotchas) != 3 {
		t.Error("input memory was mutated by exclusion")
	}
}
