package verify

import (
	"strings"

	"github.com/easeaico/session-memory/internal/memory"
)

// baseStaleKeywords always count as stale markers regardless of what the
// verifier reported.
var baseStaleKeywords = []string{
	"zoxide", "zsh", "__zoxide_z", "oh-my-zsh", "environment-specific",
}

// issueKeywords are picked up from error-severity stale findings.
var issueKeywords = []string{"zoxide", "zsh", "oh-my-zsh", "shell configuration"}

// CleanStale returns a copy of the memory without items the verification
// flagged as stale and without anything scoped to one user's environment.
// Semantic memories are never cleaned; merged facts are too easy to lose
// to keyword matching. The input is not mutated.
func CleanStale(mem *memory.ProjectMemory, report *memory.VerificationReport) *memory.ProjectMemory {
	if report == nil || (len(report.StaleItems) == 0 && len(report.ErrorIssues()) == 0) {
		return mem.Clone()
	}

	keywords := append([]string(nil), baseStaleKeywords...)
	for _, item := range report.StaleItems {
		keywords = append(keywords, strings.ToLower(item))
	}
	for _, issue := range report.Issues {
		if issue.Type != memory.IssueStale || issue.Severity != memory.IssueError {
			continue
		}
		desc := strings.ToLower(issue.Description)
		for _, word := range issueKeywords {
			if strings.Contains(desc, word) {
				keywords = append(keywords, word)
			}
		}
	}

	isStale := func(text string) bool {
		lower := strings.ToLower(text)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}

	out := mem.Clone()

	episodic := out.Episodic[:0]
	for _, item := range out.Episodic {
		if item.Scope == memory.ScopeEnvironment || isStale(item.Incident) || isStale(item.Resolution) {
			continue
		}
		episodic = append(episodic, item)
	}
	out.Episodic = episodic

	gotchas := out.Gotchas[:0]
	for _, item := range out.Gotchas {
		if item.Scope == memory.ScopeEnvironment || isStale(item.Issue) || isStale(item.Solution) {
			continue
		}
		gotchas = append(gotchas, item)
	}
	out.Gotchas = gotchas

	procedural := out.Procedural[:0]
	for _, item := range out.Procedural {
		if isStale(item.Workflow) || anyStale(item.Steps, isStale) {
			continue
		}
		procedural = append(procedural, item)
	}
	out.Procedural = procedural

	decisions := out.Decisions[:0]
	for _, item := range out.Decisions {
		if isStale(item.Decision) || isStale(item.Rationale) {
			continue
		}
		decisions = append(decisions, item)
	}
	out.Decisions = decisions

	return out
}

func anyStale(items []string, isStale func(string) bool) bool {
	for _, item := range items {
		if isStale(item) {
			return true
		}
	}
	return false
}
