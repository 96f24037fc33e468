package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSessionFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("failed to write session file: %v", err)
	}
	return path
}

func TestLoadTrace(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		maxChars int
		want     []string
		wantNot  []string
	}{
		{
			name: "user and assistant turns",
			lines: []string{
				`{"type":"user","message":{"content":"fix the failing test"}}`,
				`{"type":"assistant","message":{"content":[{"type":"text","text":"Looking at the test output."}]}}`,
			},
			want: []string{
				"=== USER ===\nfix the failing test",
				"=== ASSISTANT ===\nLooking at the test output.",
			},
		},
		{
			name: "meta lines skipped",
			lines: []string{
				`{"isMeta":true,"type":"user","message":{"content":"internal bookkeeping"}}`,
				`{"type":"user","message":{"content":"real question"}}`,
			},
			want:    []string{"real question"},
			wantNot: []string{"internal bookkeeping"},
		},
		{
			name: "empty content skipped",
			lines: []string{
				`{"type":"user","message":{"content":"   "}}`,
				`{"type":"user","message":{"content":"hello"}}`,
			},
			want: []string{"=== USER ===\nhello"},
		},
		{
			name: "tool use and result inlined",
			lines: []string{
				`{"type":"assistant","message":{"content":[{"type":"text","text":"Running the tests."},{"type":"tool_use","name":"bash","input":{"command":"go test ./..."}}]}}`,
				`{"type":"user","message":{"content":[{"type":"tool_result","content":"ok  mypkg  0.2s"}]}}`,
			},
			want: []string{
				"[Tool: bash] {\"command\":\"go test ./...\"}",
				"[Tool Result] ok  mypkg  0.2s",
			},
		},
		{
			name: "malformed lines ignored",
			lines: []string{
				`not json at all`,
				`{"type":"user","message":{"content":"still parsed"}}`,
			},
			want: []string{"still parsed"},
		},
		{
			name: "truncation marker",
			lines: []string{
				`{"type":"user","message":{"content":"` + strings.Repeat("x", 200) + `"}}`,
			},
			maxChars: 50,
			want:     []string{"[... trace truncated ...]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSessionFile(t, tt.lines...)
			trace, err := LoadTrace(path, tt.maxChars)
			if err != nil {
				t.Fatalf("LoadTrace() unexpected error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(trace, want) {
					t.Errorf("trace missing %q, got:\n%s", want, trace)
				}
			}
			for _, not := range tt.wantNot {
				if strings.Contains(trace, not) {
					t.Errorf("trace should not contain %q, got:\n%s", not, trace)
				}
			}
		})
	}
}

func TestLoadTraceTruncatesLongToolOutput(t *testing.T) {
	long := strings.Repeat("y", 2000)
	path := writeSessionFile(t,
		`{"type":"user","message":{"content":[{"type":"tool_result","content":"`+long+`"}]}}`)

	trace, err := LoadTrace(path, 0)
	if err != nil {
		t.Fatalf("LoadTrace() unexpected error: %v", err)
	}
	if !strings.Contains(trace, "...") {
		t.Error("expected tool result to be truncated")
	}
	if strings.Contains(trace, long) {
		t.Error("full tool result should not survive truncation")
	}
}

func TestLoadTraceMissingFile(t *testing.T) {
	_, err := LoadTrace(filepath.Join(t.TempDir(), "nope.jsonl"), 0)
	if err == nil {
		t.Fatal("LoadTrace() expected error for missing file")
	}
}
