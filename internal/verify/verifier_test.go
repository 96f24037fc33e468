package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/easeaico/session-memory/internal/llm"
	"github.com/easeaico/session-memory/internal/memory"
)

// mockOracle is a scripted Oracle implementation for testing.
type mockOracle struct {
	response string
	err      error
}

func (m *mockOracle) Complete(ctx context.Context, req llm.Request) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestVerify(t *testing.T) {
	mem := &memory.ProjectMemory{Project: "proj"}

	tests := []struct {
		name        string
		oracle      *mockOracle
		wantErr     bool
		checkReport func(*testing.T, *memory.VerificationReport)
	}{
		{
			name: "valid report",
			oracle: &mockOracle{response: "```json\n" + `{
				"is_valid": false,
				"score": 55,
				"issues": [
					{"type": "stale", "severity": "error", "description": "References removed zsh setup steps"},
					{"type": "vague", "severity": "warning", "description": "Deploy section lacks commands"}
				],
				"stale_items": ["zsh setup"],
				"summary": "One stale section"
			}` + "\n```"},
			checkReport: func(t *testing.T, r *memory.VerificationReport) {
				if r.IsValid {
					t.Error("IsValid = true, want false")
				}
				if r.Score != 55 {
					t.Errorf("Score = %d, want 55", r.Score)
				}
				if len(r.Issues) != 2 {
					t.Fatalf("got %d issues, want 2", len(r.Issues))
				}
				if got := r.ErrorIssues(); len(got) != 1 || got[0].Type != memory.IssueStale {
					t.Errorf("ErrorIssues() = %+v, want the single stale error", got)
				}
			},
		},
		{
			name:   "unparseable response degrades to permissive",
			oracle: &mockOracle{response: "The document looks mostly fine to me."},
			checkReport: func(t *testing.T, r *memory.VerificationReport) {
				if !r.IsValid {
					t.Error("degraded report must be permissive")
				}
				if r.Issues == nil || len(r.Issues) != 0 {
					t.Errorf("Issues = %v, want empty non-nil slice", r.Issues)
				}
			},
		},
		{
			name:   "nil issues normalized",
			oracle: &mockOracle{response: `{"is_valid": true, "score": 90}`},
			checkReport: func(t *testing.T, r *memory.VerificationReport) {
				if r.Issues == nil {
					t.Error("Issues must never be nil")
				}
			},
		},
		{
			name:    "oracle error propagates",
			oracle:  &mockOracle{err: errors.New("timeout")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.oracle)
			report, err := v.Verify(context.Background(), "# Doc", mem)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.checkReport != nil {
				tt.checkReport(t, report)
			}
		})
	}
}
