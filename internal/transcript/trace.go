package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// DefaultMaxTraceChars bounds rendered traces to keep them within
	// model context limits.
	DefaultMaxTraceChars = 50000

	// maxToolChars bounds rendered tool inputs and results.
	maxToolChars = 500
)

type traceLine struct {
	IsMeta  bool   `json:"isMeta"`
	Type    string `json:"type"`
	Message struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

type contentBlock struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Name    string          `json:"name"`
	Input   json.RawMessage `json:"input"`
	Content json.RawMessage `json:"content"`
}

// LoadTrace reads a session file and renders it as a plain-text execution
// trace of USER and ASSISTANT turns, with tool activity inlined. Traces
// longer than maxChars are truncated with a marker; maxChars <= 0 selects
// the default limit.
func LoadTrace(sessionPath string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxTraceChars
	}

	f, err := os.Open(sessionPath)
	if err != nil {
		return "", fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	var parts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var line traceLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if line.IsMeta {
			continue
		}

		content := renderContent(line.Message.Content)
		if strings.TrimSpace(content) == "" {
			continue
		}

		label := "ASSISTANT"
		if line.Type == "user" {
			label = "USER"
		}
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s", label, content))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	trace := strings.Join(parts, "\n\n")
	if len(trace) > maxChars {
		trace = trace[:maxChars] + "\n\n[... trace truncated ...]"
	}

	return trace, nil
}

// renderContent flattens a message content value. Content is either a
// plain string or a list of typed blocks; text blocks come first, then
// tool activity.
func renderContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}

	var blocks []contentBlock
	if json.Unmarshal(raw, &blocks) != nil {
		return ""
	}

	var textParts, toolParts []string
	for _, block := range blocks {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "tool_use":
			toolParts = append(toolParts, fmt.Sprintf("[Tool: %s] %s",
				toolName(block.Name), truncate(compactJSON(block.Input), maxToolChars)))
		case "tool_result":
			toolParts = append(toolParts, "[Tool Result] "+truncate(rawText(block.Content), maxToolChars))
		}
	}

	return strings.Join(append(textParts, toolParts...), "\n")
}

func toolName(name string) string {
	if name == "" {
		return "tool"
	}
	return name
}

// rawText renders a value that may be a JSON string or any other JSON value.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return compactJSON(raw)
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf strings.Builder
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v any
	if dec.Decode(&v) != nil {
		return string(raw)
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if enc.Encode(v) != nil {
		return string(raw)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
