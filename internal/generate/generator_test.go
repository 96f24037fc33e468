package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/easeaico/session-memory/internal/llm"
	"github.com/easeaico/session-memory/internal/memory"
)

// mockOracle is a scripted Oracle implementation for testing.
type mockOracle struct {
	response string
	err      error
	calls    int
}

func (m *mockOracle) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestDocumentWithoutOracle(t *testing.T) {
	g := New()
	doc, err := g.Document(context.Background(), sampleMemory())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"# Project: proj",
		"## Common Errors",
		"## Conventions",
		"## Workflows",
		"## Decisions",
		"## Gotchas",
		"recurring crash",
		"use sqlite",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("template document missing %q", want)
		}
	}
}

func TestDocumentWithOracle(t *testing.T) {
	g := New(WithOracle(&mockOracle{response: "Let me write it.\n\n# Project: proj\n\n## Conventions\n\n- x"}))
	doc, err := g.Document(context.Background(), sampleMemory())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(doc, "# Project: proj") {
		t.Errorf("preamble not stripped, got %q", doc)
	}
}

func TestDocumentConversationalResponseYieldsSentinel(t *testing.T) {
	g := New(WithOracle(&mockOracle{response: "There was nothing to change, the memory looks fine."}))
	doc, err := g.Document(context.Background(), sampleMemory())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != FailureSentinel {
		t.Errorf("expected failure sentinel, got %q", doc)
	}
}

func TestDocumentOracleErrorPropagates(t *testing.T) {
	g := New(WithOracle(&mockOracle{err: errors.New("rate limited")}))
	_, err := g.Document(context.Background(), sampleMemory())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestSkills(t *testing.T) {
	t.Run("no workflows", func(t *testing.T) {
		g := New(WithOracle(&mockOracle{}))
		skills, err := g.Skills(context.Background(), &memory.ProjectMemory{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(skills) != 0 {
			t.Errorf("expected no skills, got %v", skills)
		}
	})

	t.Run("oracle response", func(t *testing.T) {
		g := New(WithOracle(&mockOracle{response: "```json\n{\"deploy\": \"deploy\\n\\n## Steps\\n1. build\"}\n```"}))
		skills, err := g.Skills(context.Background(), sampleMemory())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(skills) != 1 || !strings.Contains(skills["deploy"], "## Steps") {
			t.Errorf("unexpected skills: %v", skills)
		}
	})

	t.Run("malformed response degrades to empty", func(t *testing.T) {
		g := New(WithOracle(&mockOracle{response: "no skills worth creating here"}))
		skills, err := g.Skills(context.Background(), sampleMemory())
		if err != nil {
			t.Fatalf("degrade should not error: %v", err)
		}
		if len(skills) != 0 {
			t.Errorf("expected empty skills, got %v", skills)
		}
	})
}

func TestTemplateSkills(t *testing.T) {
	skills := TemplateSkills(sampleMemory())

	// Only the workflow used at least twice becomes a skill.
	if len(skills) != 1 {
		t.Fatalf("got %d skills, want 1: %v", len(skills), skills)
	}
	content, ok := skills["deploy"]
	if !ok {
		t.Fatalf("missing deploy skill, got %v", skills)
	}
	if !strings.Contains(content, "## Steps") || !strings.Contains(content, "1. build") {
		t.Errorf("unexpected skill content:\n%s", content)
	}
}

func TestSkillName(t *testing.T) {
	tests := []struct {
		workflow string
		want     string
	}{
		{"Deploy to Production", "deploy-to-production"},
		{"run tests", "run-tests"},
		{"DB migrate (v2)!", "db-migrate-v2"},
		{"---", "---"},
	}
	for _, tt := range tests {
		if got := SkillName(tt.workflow); got != tt.want {
			t.Errorf("SkillName(%q) = %q, want %q", tt.workflow, got, tt.want)
		}
	}
}

func TestTasks(t *testing.T) {
	t.Run("nothing to fix", func(t *testing.T) {
		g := New(WithOracle(&mockOracle{}))
		tasks, err := g.Tasks(context.Background(), &memory.ProjectMemory{})
		if err != nil || tasks != nil {
			t.Errorf("tasks = %v, err = %v, want nil, nil", tasks, err)
		}
	})

	t.Run("oracle response", func(t *testing.T) {
		response := "```json\n" + `[{"title": "Fix flaky timeout", "description": "raise deadline", "task_type": "fix", "priority": "high"}]` + "\n```"
		g := New(WithOracle(&mockOracle{response: response}))
		tasks, err := g.Tasks(context.Background(), sampleMemory())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tasks) != 1 || tasks[0].TaskType != memory.TaskFix {
			t.Errorf("unexpected tasks: %+v", tasks)
		}
	})

	t.Run("malformed response degrades to none", func(t *testing.T) {
		g := New(WithOracle(&mockOracle{response: "nothing actionable"}))
		tasks, err := g.Tasks(context.Background(), sampleMemory())
		if err != nil || tasks != nil {
			t.Errorf("tasks = %v, err = %v, want nil, nil", tasks, err)
		}
	})
}

func TestQueryRequiresOracle(t *testing.T) {
	g := New()
	_, err := g.Query(context.Background(), sampleMemory(), "how do we deploy")
	if err == nil {
		t.Fatal("expected error without oracle")
	}
}
