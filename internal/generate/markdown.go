package generate

import "strings"

// FailureSentinel is returned in place of a document when the model
// produced commentary instead of file content.
const FailureSentinel = "# Error: Generation Failed\n\nThe generator produced a summary instead of actual document content. Please regenerate."

// Headings that mark a change summary rather than document content.
var invalidContentPatterns = []string{
	"## key changes",
	"## changes made",
	"## summary of",
	"### removed",
	"### verified",
	"### kept",
	"the file now contains",
	"i have removed",
	"i have fixed",
}

// Conversational openers the model sometimes emits before the document.
var preamblePatterns = []string{
	"perfect", "now i", "let me", "i can see", "i'll", "here's",
	"based on", "looking at", "after", "this is", "the following",
	"great", "okay", "alright", "sure", "certainly",
}

// Words that flag a heading as a change summary instead of a title.
var summaryHeadingWords = []string{"changes", "summary", "removed", "verified", "fixed", "key "}

// extractFinalMarkdown strips model preamble from a document response and
// returns the content starting at its first real heading. When the
// response is a change summary or plain conversation with no usable
// heading, the failure sentinel is returned instead.
func extractFinalMarkdown(text string) string {
	text = strings.TrimSpace(text)
	lines := strings.Split(text, "\n")

	head := strings.ToLower(text)
	if len(head) > 200 {
		head = head[:200]
	}
	if containsAny(head, invalidContentPatterns) {
		// The response is a summary of changes; look for real content
		// after it.
		for i, line := range lines {
			stripped := strings.ToLower(strings.TrimSpace(line))
			if strings.HasPrefix(stripped, "# ") && !containsAny(stripped, summaryHeadingWords) {
				return strings.TrimSpace(strings.Join(lines[i:], "\n"))
			}
		}
		return FailureSentinel
	}

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		lower := strings.ToLower(stripped)
		if hasAnyPrefix(lower, preamblePatterns) {
			continue
		}
		if strings.HasPrefix(stripped, "#") && !strings.HasPrefix(stripped, "#!/") {
			if !containsAny(lower, summaryHeadingWords) {
				return strings.TrimSpace(strings.Join(lines[i:], "\n"))
			}
		}
	}

	return FailureSentinel
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
