// Package consolidate merges per-session extractions into a single
// project memory, deduplicating repeated observations and tracking how
// often each one recurs.
package consolidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/easeaico/session-memory/internal/llm"
	"github.com/easeaico/session-memory/internal/memory"
	"github.com/easeaico/session-memory/internal/prompts"
)

// ErrEmptyInput indicates there were no extractions to consolidate.
var ErrEmptyInput = errors.New("no extractions to consolidate")

// Consolidator merges session extractions into project memory. Without an
// oracle it runs a deterministic aggregation; with one, multi-session
// consolidations are delegated to the model and the result is normalized
// afterwards.
type Consolidator struct {
	oracle   llm.Oracle
	maxTurns int
}

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithOracle enables model-assisted consolidation.
func WithOracle(oracle llm.Oracle) Option {
	return func(c *Consolidator) { c.oracle = oracle }
}

// WithMaxTurns bounds the oracle exchange budget per consolidation.
func WithMaxTurns(n int) Option {
	return func(c *Consolidator) {
		if n > 0 {
			c.maxTurns = n
		}
	}
}

// New creates a Consolidator.
func New(opts ...Option) *Consolidator {
	c := &Consolidator{maxTurns: 30}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consolidate merges extractions into a fresh ProjectMemory. existing may
// be nil for a first consolidation; it is given to the oracle as context
// but the deterministic path always recomputes from the full extraction
// set. Fails with ErrEmptyInput when extractions is empty.
func (c *Consolidator) Consolidate(ctx context.Context, project string, extractions []memory.SessionExtraction, existing *memory.ProjectMemory) (*memory.ProjectMemory, error) {
	if len(extractions) == 0 {
		return nil, fmt.Errorf("project %s: %w", project, ErrEmptyInput)
	}

	sorted := append([]memory.SessionExtraction(nil), extractions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ExtractedAt.Before(sorted[j].ExtractedAt)
	})

	var mem *memory.ProjectMemory
	var err error
	if c.oracle != nil && len(sorted) > 1 {
		mem, err = c.consolidateWithOracle(ctx, sorted, existing)
	} else {
		mem, err = aggregate(sorted), nil
	}
	if err != nil {
		return nil, err
	}

	mem.Project = project
	mem.GeneratedAt = time.Now().UTC()
	mem.SessionsAnalyzed = len(sorted)
	mem.LastSession = sorted[len(sorted)-1].SessionID
	dedupe(mem)

	return mem, nil
}

// mergeKey normalizes an item's primary text for duplicate detection.
func mergeKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func dateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// aggregate performs deterministic consolidation: items with the same
// merge key collapse into one entry whose counters reflect the number of
// distinct sessions that contributed it. Insertion order is preserved.
func aggregate(extractions []memory.SessionExtraction) *memory.ProjectMemory {
	var (
		episodicKeys, semanticKeys, proceduralKeys, decisionKeys, gotchaKeys []string

		episodic   = map[string]*memory.ConsolidatedEpisodic{}
		semantic   = map[string]*memory.ConsolidatedSemantic{}
		procedural = map[string]*memory.ConsolidatedProcedural{}
		decisions  = map[string]*memory.ConsolidatedDecision{}
		gotchas    = map[string]*memory.ConsolidatedGotcha{}

		episodicSessions = map[string]map[string]bool{}
		semanticSessions = map[string]map[string]bool{}
		procedSessions   = map[string]map[string]bool{}
		gotchaSessions   = map[string]map[string]bool{}
	)

	for _, ext := range extractions {
		date := dateOf(ext.ExtractedAt)

		for _, item := range ext.Episodic {
			key := mergeKey(item.Incident)
			if key == "" {
				continue
			}
			entry, ok := episodic[key]
			if !ok {
				entry = &memory.ConsolidatedEpisodic{
					Incident:   item.Incident,
					Resolution: item.Resolution,
					Severity:   item.Severity,
					Scope:      item.Scope,
				}
				episodic[key] = entry
				episodicSessions[key] = map[string]bool{}
				episodicKeys = append(episodicKeys, key)
			}
			if !episodicSessions[key][ext.SessionID] {
				episodicSessions[key][ext.SessionID] = true
				entry.Occurrences++
				entry.Sessions = append(entry.Sessions, ext.SessionID)
			}
			if date > entry.LastSeen {
				entry.LastSeen = date
			}
			// keep the more complete resolution
			if len(item.Resolution) > len(entry.Resolution) {
				entry.Resolution = item.Resolution
			}
		}

		for _, item := range ext.Semantic {
			key := mergeKey(item.Knowledge)
			if key == "" {
				continue
			}
			entry, ok := semantic[key]
			if !ok {
				entry = &memory.ConsolidatedSemantic{
					Knowledge:  item.Knowledge,
					Category:   item.Category,
					Confidence: item.Confidence,
				}
				semantic[key] = entry
				semanticSessions[key] = map[string]bool{}
				semanticKeys = append(semanticKeys, key)
			}
			if !semanticSessions[key][ext.SessionID] {
				semanticSessions[key][ext.SessionID] = true
				entry.Frequency++
			}
			if entry.Frequency >= 3 {
				entry.Confidence = memory.ConfidenceHigh
			}
		}

		for _, item := range ext.Procedural {
			key := mergeKey(item.Workflow)
			if key == "" {
				continue
			}
			entry, ok := procedural[key]
			if !ok {
				entry = &memory.ConsolidatedProcedural{
					Workflow: item.Workflow,
					Steps:    append([]string(nil), item.Steps...),
					Trigger:  item.Trigger,
				}
				procedural[key] = entry
				procedSessions[key] = map[string]bool{}
				proceduralKeys = append(proceduralKeys, key)
			}
			if !procedSessions[key][ext.SessionID] {
				procedSessions[key][ext.SessionID] = true
				entry.TimesUsed++
			}
			if len(item.Steps) > len(entry.Steps) {
				entry.Steps = append([]string(nil), item.Steps...)
			}
		}

		for _, item := range ext.Decisions {
			key := mergeKey(item.Decision)
			if key == "" {
				continue
			}
			// last write wins; decisions are never merged across
			// differing rationale
			if _, ok := decisions[key]; !ok {
				decisionKeys = append(decisionKeys, key)
			}
			date := item.Date
			if date == "" {
				date = dateOf(ext.ExtractedAt)
			}
			decisions[key] = &memory.ConsolidatedDecision{
				Decision:     item.Decision,
				Rationale:    item.Rationale,
				Alternatives: append([]string(nil), item.Alternatives...),
				Status:       memory.DecisionActive,
				Date:         date,
			}
		}

		for _, item := range ext.Gotchas {
			key := mergeKey(item.Issue)
			if key == "" {
				continue
			}
			entry, ok := gotchas[key]
			if !ok {
				entry = &memory.ConsolidatedGotcha{
					Issue:    item.Issue,
					Cause:    item.Cause,
					Solution: item.Solution,
					Tags:     append([]string(nil), item.Tags...),
					Scope:    item.Scope,
				}
				gotchas[key] = entry
				gotchaSessions[key] = map[string]bool{}
				gotchaKeys = append(gotchaKeys, key)
			} else {
				entry.Tags = unionTags(entry.Tags, item.Tags)
			}
			if !gotchaSessions[key][ext.SessionID] {
				gotchaSessions[key][ext.SessionID] = true
				entry.Frequency++
			}
		}
	}

	mem := &memory.ProjectMemory{
		Episodic:   make([]memory.ConsolidatedEpisodic, 0, len(episodicKeys)),
		Semantic:   make([]memory.ConsolidatedSemantic, 0, len(semanticKeys)),
		Procedural: make([]memory.ConsolidatedProcedural, 0, len(proceduralKeys)),
		Decisions:  make([]memory.ConsolidatedDecision, 0, len(decisionKeys)),
		Gotchas:    make([]memory.ConsolidatedGotcha, 0, len(gotchaKeys)),
	}
	for _, key := range episodicKeys {
		mem.Episodic = append(mem.Episodic, *episodic[key])
	}
	for _, key := range semanticKeys {
		mem.Semantic = append(mem.Semantic, *semantic[key])
	}
	for _, key := range proceduralKeys {
		mem.Procedural = append(mem.Procedural, *procedural[key])
	}
	for _, key := range decisionKeys {
		mem.Decisions = append(mem.Decisions, *decisions[key])
	}
	for _, key := range gotchaKeys {
		mem.Gotchas = append(mem.Gotchas, *gotchas[key])
	}

	return mem
}

// unionTags merges two tag lists as a set, preserving first-seen order.
func unionTags(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, tag := range existing {
		seen[tag] = true
	}
	out := existing
	for _, tag := range extra {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// consolidateWithOracle asks the model to merge extractions, giving it
// any existing memory as context. A response that cannot be parsed fails
// with llm.ErrMalformedResponse.
func (c *Consolidator) consolidateWithOracle(ctx context.Context, extractions []memory.SessionExtraction, existing *memory.ProjectMemory) (*memory.ProjectMemory, error) {
	extJSON, err := json.MarshalIndent(extractions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode extractions: %w", err)
	}

	var existingJSON string
	if existing != nil {
		data, err := json.MarshalIndent(existing, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode existing memory: %w", err)
		}
		existingJSON = string(data)
	}

	system, user := prompts.Consolidation(string(extJSON), existingJSON)
	response, err := c.oracle.Complete(ctx, llm.Request{
		System:   system,
		Prompt:   user,
		MaxTurns: c.maxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("consolidation failed: %w", err)
	}

	var mem memory.ProjectMemory
	if err := llm.DecodeJSON(response, &mem); err != nil {
		return nil, fmt.Errorf("consolidation response: %w", err)
	}

	return &mem, nil
}

// dedupe enforces per-kind uniqueness on merge keys and duplicate-free
// session lists, regardless of which consolidation path produced the
// memory. The first entry for a key absorbs the counters of later
// duplicates.
func dedupe(mem *memory.ProjectMemory) {
	epiSeen := map[string]int{}
	episodic := mem.Episodic[:0]
	for _, item := range mem.Episodic {
		key := mergeKey(item.Incident)
		if idx, ok := epiSeen[key]; ok {
			kept := &episodic[idx]
			counted := len(kept.Sessions) > 0 && len(item.Sessions) > 0
			kept.Sessions = unionTags(kept.Sessions, item.Sessions)
			if counted {
				// Both entries name their sessions, so the distinct
				// session count is authoritative.
				kept.Occurrences = len(kept.Sessions)
			} else {
				kept.Occurrences = max(kept.Occurrences+item.Occurrences, len(kept.Sessions))
			}
			if item.LastSeen > kept.LastSeen {
				kept.LastSeen = item.LastSeen
			}
			continue
		}
		item.Sessions = unionTags(nil, item.Sessions)
		if item.Occurrences < len(item.Sessions) {
			item.Occurrences = len(item.Sessions)
		}
		epiSeen[key] = len(episodic)
		episodic = append(episodic, item)
	}
	mem.Episodic = episodic

	semSeen := map[string]int{}
	semantic := mem.Semantic[:0]
	for _, item := range mem.Semantic {
		key := mergeKey(item.Knowledge)
		if idx, ok := semSeen[key]; ok {
			semantic[idx].Frequency += item.Frequency
			if semantic[idx].Frequency >= 3 {
				semantic[idx].Confidence = memory.ConfidenceHigh
			}
			continue
		}
		semSeen[key] = len(semantic)
		semantic = append(semantic, item)
	}
	mem.Semantic = semantic

	procSeen := map[string]int{}
	procedural := mem.Procedural[:0]
	for _, item := range mem.Procedural {
		key := mergeKey(item.Workflow)
		if idx, ok := procSeen[key]; ok {
			procedural[idx].TimesUsed += item.TimesUsed
			if len(item.Steps) > len(procedural[idx].Steps) {
				procedural[idx].Steps = item.Steps
			}
			continue
		}
		procSeen[key] = len(procedural)
		procedural = append(procedural, item)
	}
	mem.Procedural = procedural

	decSeen := map[string]int{}
	decisions := mem.Decisions[:0]
	for _, item := range mem.Decisions {
		key := mergeKey(item.Decision)
		if item.Status == "" {
			item.Status = memory.DecisionActive
		}
		if idx, ok := decSeen[key]; ok {
			// later entries supersede earlier ones
			decisions[idx] = item
			continue
		}
		decSeen[key] = len(decisions)
		decisions = append(decisions, item)
	}
	mem.Decisions = decisions

	gotSeen := map[string]int{}
	gotchas := mem.Gotchas[:0]
	for _, item := range mem.Gotchas {
		key := mergeKey(item.Issue)
		if idx, ok := gotSeen[key]; ok {
			gotchas[idx].Frequency += item.Frequency
			gotchas[idx].Tags = unionTags(gotchas[idx].Tags, item.Tags)
			continue
		}
		gotSeen[key] = len(gotchas)
		gotchas = append(gotchas, item)
	}
	mem.Gotchas = gotchas
}
