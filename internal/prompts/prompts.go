// Package prompts holds the instruction templates for every oracle task in
// the memory pipeline. Templates are baked into the binary and filled in
// with simple placeholder substitution.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed templates/extract_system.md
var extractSystem string

//go:embed templates/extract_user.md
var extractUser string

//go:embed templates/consolidate_system.md
var consolidateSystem string

//go:embed templates/consolidate_user.md
var consolidateUser string

//go:embed templates/document_system.md
var documentSystem string

//go:embed templates/document_user.md
var documentUser string

//go:embed templates/skills_system.md
var skillsSystem string

//go:embed templates/skills_user.md
var skillsUser string

//go:embed templates/verify_system.md
var verifySystem string

//go:embed templates/verify_user.md
var verifyUser string

//go:embed templates/tasks_system.md
var tasksSystem string

//go:embed templates/tasks_user.md
var tasksUser string

//go:embed templates/query_system.md
var querySystem string

//go:embed templates/query_user.md
var queryUser string

// Tip selects an emphasis hint appended to extraction and document prompts.
type Tip string

const (
	TipThorough   Tip = "thorough"
	TipSelective  Tip = "selective"
	TipTechnical  Tip = "technical"
	TipPractical  Tip = "practical"
	TipConcise    Tip = "concise"
	TipDetailed   Tip = "detailed"
	TipActionable Tip = "actionable"
	TipDefensive  Tip = "defensive"
)

var extractionTips = map[Tip]string{
	TipThorough:  "Extract ALL learnings, even minor ones. More is better than missing important details.",
	TipSelective: "Focus only on high-value, non-obvious insights. Quality over quantity.",
	TipTechnical: "Emphasize technical details: specific commands, file paths, error messages, code patterns.",
	TipPractical: "Focus on actionable knowledge that will help in future sessions.",
}

var generationTips = map[Tip]string{
	TipConcise:    "Keep all content brief and scannable. Remove fluff.",
	TipDetailed:   "Include comprehensive context and examples.",
	TipActionable: "Every item should tell the agent exactly what to do.",
	TipDefensive:  "Emphasize gotchas and error prevention.",
}

// Extraction returns the system and user prompts for analyzing one
// session trace.
func Extraction(trace string, tip Tip) (system, user string) {
	hint, ok := extractionTips[tip]
	if !ok {
		hint = extractionTips[TipPractical]
	}
	user = strings.NewReplacer(
		"{tip}", hint,
		"{session_trace}", trace,
	).Replace(extractUser)
	return extractSystem, user
}

// Consolidation returns the prompts for merging session extractions into
// project memory. existingMemory may be empty for a first consolidation.
func Consolidation(extractions, existingMemory string) (system, user string) {
	if existingMemory == "" {
		existingMemory = "None - this is the first consolidation."
	}
	user = strings.NewReplacer(
		"{existing_memory}", existingMemory,
		"{extractions}", extractions,
	).Replace(consolidateUser)
	return consolidateSystem, user
}

// Document returns the prompts for rendering the guidance document.
func Document(memory string, tip Tip) (system, user string) {
	hint, ok := generationTips[tip]
	if !ok {
		hint = generationTips[TipActionable]
	}
	user = strings.NewReplacer(
		"{tip}", hint,
		"{memory}", memory,
	).Replace(documentUser)
	return documentSystem, user
}

// DocumentWithFeedback returns the document prompts with verifier feedback
// appended, instructing the model to emit only the corrected file.
func DocumentWithFeedback(memory, feedback string, tip Tip) (system, user string) {
	system, user = Document(memory, tip)
	user += fmt.Sprintf(`

## FEEDBACK FROM VERIFIER

The previous generation had these issues that MUST be fixed:

%s

## CRITICAL INSTRUCTION

You MUST output ONLY the corrected document content.
- Start with "# " followed by the project name
- Do NOT write a summary of changes
- Do NOT explain what you fixed
- Do NOT include any text before the "# " heading
- Just output the corrected file content directly
`, feedback)
	system += "\n\nCRITICAL: Output ONLY the document content. No explanations, no summaries, no 'here is the file'. Just the raw markdown starting with # heading."
	return system, user
}

// Skills returns the prompts for deriving slash-command skills.
func Skills(memory string) (system, user string) {
	return skillsSystem, strings.Replace(skillsUser, "{memory}", memory, 1)
}

// Verify returns the prompts for reviewing generated content against the
// memory it came from.
func Verify(content, memory string) (system, user string) {
	user = strings.NewReplacer(
		"{content}", content,
		"{memory}", memory,
	).Replace(verifyUser)
	return verifySystem, user
}

// Tasks returns the prompts for converting issues into root-cause tasks.
func Tasks(memory string) (system, user string) {
	return tasksSystem, strings.Replace(tasksUser, "{memory}", memory, 1)
}

// Query returns the prompts for answering a question from project memory.
func Query(question, memory string) (system, user string) {
	user = strings.NewReplacer(
		"{memory}", memory,
		"{question}", question,
	).Replace(queryUser)
	return querySystem, user
}
