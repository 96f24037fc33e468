// Package memory defines the memory records produced by session analysis
// and the storage interfaces for the tiered project memory.
package memory

import "time"

// Severity classifies how serious an incident was.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Scope distinguishes project-wide knowledge from issues caused by one
// user's local machine, shell, or tooling.
type Scope string

const (
	ScopeUniversal   Scope = "universal"
	ScopeEnvironment Scope = "environment-specific"
)

// Confidence grades how well-supported a semantic fact is.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// DecisionStatus tracks the lifecycle of an architectural decision.
type DecisionStatus string

const (
	DecisionActive      DecisionStatus = "active"
	DecisionSuperseded  DecisionStatus = "superseded"
	DecisionUnderReview DecisionStatus = "under_review"
)

// EpisodicMemory is one concrete incident observed in one session.
type EpisodicMemory struct {
	Incident   string   `json:"incident"`
	Context    string   `json:"context"`
	Resolution string   `json:"resolution"`
	File       string   `json:"file,omitempty"`
	Severity   Severity `json:"severity"`
	Scope      Scope    `json:"scope"`
}

// SemanticMemory is a fact or rule learned about the codebase.
type SemanticMemory struct {
	Knowledge  string     `json:"knowledge"`
	Category   string     `json:"category"`
	Confidence Confidence `json:"confidence"`
}

// ProceduralMemory is a multi-step workflow discovered during a session.
type ProceduralMemory struct {
	Workflow string   `json:"workflow"`
	Steps    []string `json:"steps"`
	Trigger  string   `json:"trigger,omitempty"`
}

// Decision is an architectural or design choice made during a session.
// Alternatives are deduplicated as a set but their order is preserved
// for display.
type Decision struct {
	Decision     string   `json:"decision"`
	Rationale    string   `json:"rationale"`
	Alternatives []string `json:"alternatives_considered,omitempty"`
	Date         string   `json:"date,omitempty"`
}

// Gotcha is a non-obvious pitfall discovered in the codebase.
type Gotcha struct {
	Issue    string   `json:"issue"`
	Cause    string   `json:"cause,omitempty"`
	Solution string   `json:"solution,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Scope    Scope    `json:"scope"`
}

// SessionExtraction is the complete extraction result for one session.
// It is immutable once persisted and keyed by SessionID so re-extraction
// can be skipped.
type SessionExtraction struct {
	SessionID   string             `json:"session_id"`
	Project     string             `json:"project"`
	ExtractedAt time.Time          `json:"extracted_at"`
	Summary     string             `json:"session_summary"`
	Episodic    []EpisodicMemory   `json:"episodic"`
	Semantic    []SemanticMemory   `json:"semantic"`
	Procedural  []ProceduralMemory `json:"procedural"`
	Decisions   []Decision         `json:"decisions"`
	Gotchas     []Gotcha           `json:"gotchas"`
}

// ConsolidatedEpisodic is an incident merged across sessions with
// frequency tracking.
type ConsolidatedEpisodic struct {
	Incident    string   `json:"incident"`
	Resolution  string   `json:"resolution"`
	Occurrences int      `json:"occurrences"`
	Sessions    []string `json:"sessions"`
	LastSeen    string   `json:"last_seen,omitempty"`
	Severity    Severity `json:"severity,omitempty"`
	Scope       Scope    `json:"scope"`
}

// ConsolidatedSemantic is a fact merged across sessions with confidence
// weighting.
type ConsolidatedSemantic struct {
	Knowledge  string     `json:"knowledge"`
	Category   string     `json:"category"`
	Frequency  int        `json:"frequency"`
	Confidence Confidence `json:"confidence"`
}

// ConsolidatedProcedural is a workflow merged across sessions with usage
// tracking.
type ConsolidatedProcedural struct {
	Workflow  string   `json:"workflow"`
	Steps     []string `json:"steps"`
	Trigger   string   `json:"trigger,omitempty"`
	TimesUsed int      `json:"times_used"`
}

// ConsolidatedDecision is a decision with status tracking. Decisions are
// never merged across differing rationale; the latest write for a
// decision key wins.
type ConsolidatedDecision struct {
	Decision     string         `json:"decision"`
	Rationale    string         `json:"rationale"`
	Alternatives []string       `json:"alternatives_considered,omitempty"`
	Status       DecisionStatus `json:"status"`
	Date         string         `json:"date,omitempty"`
}

// ConsolidatedGotcha is a pitfall merged across sessions with frequency
// tracking.
type ConsolidatedGotcha struct {
	Issue     string   `json:"issue"`
	Cause     string   `json:"cause,omitempty"`
	Solution  string   `json:"solution,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Frequency int      `json:"frequency"`
	Scope     Scope    `json:"scope"`
}

// TaskType classifies what kind of follow-up a generated task is.
type TaskType string

const (
	TaskFix           TaskType = "fix"
	TaskAutomation    TaskType = "automation"
	TaskImprovement   TaskType = "improvement"
	TaskInvestigation TaskType = "investigation"
)

// Priority ranks generated tasks.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ActionableTask is a root-cause fix synthesized from project memory.
type ActionableTask struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	TaskType          TaskType `json:"task_type"`
	Priority          Priority `json:"priority"`
	SourceIssue       string   `json:"source_issue,omitempty"`
	SuggestedApproach string   `json:"suggested_approach,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

// ProjectMemory is the consolidated memory for one project. A new value
// supersedes the previous one on every consolidation run; prior versions
// are archived, never deleted.
type ProjectMemory struct {
	Project          string                   `json:"project"`
	ProjectPath      string                   `json:"project_path,omitempty"`
	GeneratedAt      time.Time                `json:"generated_at"`
	SessionsAnalyzed int                      `json:"sessions_analyzed"`
	LastSession      string                   `json:"last_session,omitempty"`
	Episodic         []ConsolidatedEpisodic   `json:"episodic"`
	Semantic         []ConsolidatedSemantic   `json:"semantic"`
	Procedural       []ConsolidatedProcedural `json:"procedural"`
	Decisions        []ConsolidatedDecision   `json:"decisions"`
	Gotchas          []ConsolidatedGotcha     `json:"gotchas"`
	Tasks            []ActionableTask         `json:"tasks,omitempty"`
}

// Clone returns a deep copy of the memory. Filtering and cleaning passes
// operate on copies so the stored memory is never mutated.
func (m *ProjectMemory) Clone() *ProjectMemory {
	out := *m
	out.Episodic = make([]ConsolidatedEpisodic, len(m.Episodic))
	copy(out.Episodic, m.Episodic)
	for i := range out.Episodic {
		out.Episodic[i].Sessions = append([]string(nil), m.Episodic[i].Sessions...)
	}
	out.Semantic = append([]ConsolidatedSemantic(nil), m.Semantic...)
	out.Procedural = make([]ConsolidatedProcedural, len(m.Procedural))
	copy(out.Procedural, m.Procedural)
	for i := range out.Procedural {
		out.Procedural[i].Steps = append([]string(nil), m.Procedural[i].Steps...)
	}
	out.Decisions = make([]ConsolidatedDecision, len(m.Decisions))
	copy(out.Decisions, m.Decisions)
	for i := range out.Decisions {
		out.Decisions[i].Alternatives = append([]string(nil), m.Decisions[i].Alternatives...)
	}
	out.Gotchas = make([]ConsolidatedGotcha, len(m.Gotchas))
	copy(out.Gotchas, m.Gotchas)
	for i := range out.Gotchas {
		out.Gotchas[i].Tags = append([]string(nil), m.Gotchas[i].Tags...)
	}
	out.Tasks = append([]ActionableTask(nil), m.Tasks...)
	return &out
}

// IssueType classifies a verification finding.
type IssueType string

const (
	IssueStale      IssueType = "stale"
	IssueDeprecated IssueType = "deprecated"
	IssueIncorrect  IssueType = "incorrect"
	IssueMissing    IssueType = "missing"
	IssueVague      IssueType = "vague"
	IssueFormatting IssueType = "formatting"
	IssueSensitive  IssueType = "sensitive"
)

// IssueSeverity grades a verification finding.
type IssueSeverity string

const (
	IssueError   IssueSeverity = "error"
	IssueWarning IssueSeverity = "warning"
	IssueInfo    IssueSeverity = "info"
)

// VerificationIssue is one finding reported by the verifier.
type VerificationIssue struct {
	Type        IssueType     `json:"type"`
	Severity    IssueSeverity `json:"severity"`
	Location    string        `json:"location,omitempty"`
	Description string        `json:"description"`
	Tested      bool          `json:"tested,omitempty"`
	TestResult  string        `json:"test_result,omitempty"`
	Suggestion  string        `json:"suggestion,omitempty"`
}

// VerificationReport is the verifier's structured assessment of a
// generated document.
type VerificationReport struct {
	IsValid    bool                `json:"is_valid"`
	Score      int                 `json:"score"`
	Issues     []VerificationIssue `json:"issues"`
	StaleItems []string            `json:"stale_items,omitempty"`
	Summary    string              `json:"summary,omitempty"`
}

// ErrorIssues returns the error-severity findings of the report.
func (r *VerificationReport) ErrorIssues() []VerificationIssue {
	var out []VerificationIssue
	for _, issue := range r.Issues {
		if issue.Severity == IssueError {
			out = append(out, issue)
		}
	}
	return out
}

// Bundle is one generated-artifact set for a project: the guidance
// document, zero or more skill files, a task list, the memory snapshot
// the document was rendered from, and an optional verification report.
type Bundle struct {
	Project      string              `json:"project"`
	RunID        string              `json:"run_id"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Document     string              `json:"document"`
	Skills       map[string]string   `json:"skills,omitempty"`
	Tasks        []ActionableTask    `json:"tasks,omitempty"`
	Snapshot     *ProjectMemory      `json:"snapshot,omitempty"`
	Verification *VerificationReport `json:"verification,omitempty"`
}
