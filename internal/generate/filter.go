package generate

import "github.com/easeaico/session-memory/internal/memory"

// DefaultMinFrequency is the repetition threshold an item must meet to be
// worth documenting.
const DefaultMinFrequency = 2

// FilterLowFrequency returns a copy of the memory without items seen
// fewer than minFrequency times. Decisions always survive: a one-off
// architectural choice is still worth documenting. The input is never
// mutated.
func FilterLowFrequency(mem *memory.ProjectMemory, minFrequency int) *memory.ProjectMemory {
	if minFrequency <= 0 {
		minFrequency = DefaultMinFrequency
	}

	out := mem.Clone()

	episodic := out.Episodic[:0]
	for _, item := range out.Episodic {
		if item.Occurrences >= minFrequency {
			episodic = append(episodic, item)
		}
	}
	out.Episodic = episodic

	semantic := out.Semantic[:0]
	for _, item := range out.Semantic {
		if item.Frequency >= minFrequency {
			semantic = append(semantic, item)
		}
	}
	out.Semantic = semantic

	procedural := out.Procedural[:0]
	for _, item := range out.Procedural {
		if item.TimesUsed >= minFrequency {
			procedural = append(procedural, item)
		}
	}
	out.Procedural = procedural

	gotchas := out.Gotchas[:0]
	for _, item := range out.Gotchas {
		if item.Frequency >= minFrequency {
			gotchas = append(gotchas, item)
		}
	}
	out.Gotchas = gotchas

	return out
}

// ExcludeEnvironmentSpecific returns a copy of the memory without items
// scoped to one user's local environment. Such items stay in the stored
// memory and its snapshots but never reach generated documents.
func ExcludeEnvironmentSpecific(mem *memory.ProjectMemory) *memory.ProjectMemory {
	out := mem.Clone()

	episodic := out.Episodic[:0]
	for _, item := range out.Episodic {
		if item.Scope != memory.ScopeEnvironment {
			episodic = append(episodic, item)
		}
	}
	out.Episodic = episodic

	gotchas := out.Gotchas[:0]
	for _, item := range out.Gotchas {
		if item.Scope != memory.ScopeEnvironment {
			gotchas = append(gotchas, item)
		}
	}
	out.Gotchas = gotchas

	return out
}
