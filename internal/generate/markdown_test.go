package generate

import (
	"strings"
	"testing"
)

func TestExtractFinalMarkdown(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "clean document passes through",
			text: "# Project: myapp\n\n## Common Errors\n\n- crash: fixed",
			want: "# Project: myapp\n\n## Common Errors\n\n- crash: fixed",
		},
		{
			name: "preamble stripped",
			text: "Here's the updated document based on the memory:\n\n# Project: myapp\n\n## Conventions",
			want: "# Project: myapp\n\n## Conventions",
		},
		{
			name: "multi line preamble stripped",
			text: "Perfect. Now I have everything.\nLet me write the document.\n\n# Project: myapp",
			want: "# Project: myapp",
		},
		{
			name: "conversational reply yields sentinel",
			text: "I reviewed the memory and there is nothing new worth documenting at this time.",
			want: FailureSentinel,
		},
		{
			name: "change summary with no content yields sentinel",
			text: "## Key Changes\n\n### Removed\n- stale section\n\n### Verified\n- everything else",
			want: FailureSentinel,
		},
		{
			name: "change summary followed by real document",
			text: "## Key Changes\n\n### Removed\n- stale entry\n\n# Project: myapp\n\n## Conventions",
			want: "# Project: myapp\n\n## Conventions",
		},
		{
			name: "summary heading is not document content",
			text: "# Summary of updates\n\nI have removed two stale items.",
			want: FailureSentinel,
		},
		{
			name: "shebang is not a heading",
			text: "#!/bin/sh\necho hi",
			want: FailureSentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractFinalMarkdown(tt.text)
			if got != tt.want {
				t.Errorf("extractFinalMarkdown() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestFailureSentinelShape(t *testing.T) {
	if !strings.HasPrefix(FailureSentinel, "# Error: Generation Failed") {
		t.Errorf("sentinel must start with its error heading, got %q", FailureSentinel)
	}
}
