// Package tools defines ADK tool declarations for the interactive memory
// assistant. The tools expose the stored project memory to the agent.
package tools

import (
	"context"
	"fmt"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/easeaico/session-memory/internal/memory"
)

// Embedder is an interface for generating text embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ToolsConfig holds dependencies for creating tools.
type ToolsConfig struct {
	Store    memory.Store
	Embedder Embedder
	Project  string
}

// SearchMemoryArgs is the input for the search_memory tool.
type SearchMemoryArgs struct {
	Query string `json:"query" jsonschema:"description=What to look for in the project memory: an error message, a workflow, a convention"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of results to return, defaults to 5"`
}

// SearchMemoryResult is the output for the search_memory tool.
type SearchMemoryResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MemoryOverviewArgs is the input for the memory_overview tool.
type MemoryOverviewArgs struct{}

// MemoryOverviewResult is the output for the memory_overview tool.
type MemoryOverviewResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// GuidanceArgs is the input for the read_guidance tool.
type GuidanceArgs struct{}

// GuidanceResult is the output for the read_guidance tool.
type GuidanceResult struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListProjectsArgs is the input for the list_projects tool.
type ListProjectsArgs struct{}

// ListProjectsResult is the output for the list_projects tool.
type ListProjectsResult struct {
	Success bool     `json:"success"`
	Data    []string `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func createSearchMemoryTool(cfg ToolsConfig) (tool.Tool, error) {
	handler := func(ctx tool.Context, args SearchMemoryArgs) (SearchMemoryResult, error) {
		if args.Query == "" {
			return SearchMemoryResult{Success: false, Error: "query is required"}, nil
		}
		limit := args.Limit
		if limit <= 0 {
			limit = 5
		}

		embedding, err := cfg.Embedder.Embed(ctx, args.Query)
		if err != nil {
			return SearchMemoryResult{Success: false, Error: fmt.Sprintf("failed to generate embedding: %v", err)}, nil
		}

		hits, err := cfg.Store.SearchItems(ctx, cfg.Project, embedding, limit)
		if err != nil {
			return SearchMemoryResult{Success: false, Error: fmt.Sprintf("failed to search memory: %v", err)}, nil
		}

		if len(hits) == 0 {
			return SearchMemoryResult{Success: true, Data: "No related items in project memory."}, nil
		}

		var results []map[string]interface{}
		for _, hit := range hits {
			results = append(results, map[string]interface{}{
				"kind":       string(hit.Kind),
				"text":       hit.Text,
				"detail":     hit.Detail,
				"similarity": fmt.Sprintf("%.2f%%", hit.Similarity*100),
			})
		}

		return SearchMemoryResult{Success: true, Data: results}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "search_memory",
		Description: "Search the project memory for incidents, facts, workflows, decisions and gotchas similar to a query. Use this before answering questions about past problems.",
	}, handler)
}

func createMemoryOverviewTool(cfg ToolsConfig) (tool.Tool, error) {
	handler := func(ctx tool.Context, args MemoryOverviewArgs) (MemoryOverviewResult, error) {
		mem, err := cfg.Store.GetMemory(ctx, cfg.Project)
		if err != nil {
			return MemoryOverviewResult{Success: false, Error: fmt.Sprintf("failed to load memory: %v", err)}, nil
		}

		return MemoryOverviewResult{Success: true, Data: map[string]interface{}{
			"project":           mem.Project,
			"sessions_analyzed": mem.SessionsAnalyzed,
			"episodic":          len(mem.Episodic),
			"semantic":          len(mem.Semantic),
			"procedural":        len(mem.Procedural),
			"decisions":         len(mem.Decisions),
			"gotchas":           len(mem.Gotchas),
			"generated_at":      mem.GeneratedAt,
		}}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "memory_overview",
		Description: "Summarize what the consolidated project memory contains: how many sessions were analyzed and how many items of each kind exist.",
	}, handler)
}

func createReadGuidanceTool(cfg ToolsConfig) (tool.Tool, error) {
	handler := func(ctx tool.Context, args GuidanceArgs) (GuidanceResult, error) {
		bundle, err := cfg.Store.GetBundle(ctx, cfg.Project)
		if err != nil {
			return GuidanceResult{Success: false, Error: fmt.Sprintf("failed to load bundle: %v", err)}, nil
		}

		return GuidanceResult{Success: true, Data: bundle.Document}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "read_guidance",
		Description: "Read the most recently generated guidance document for the project.",
	}, handler)
}

func createListProjectsTool(cfg ToolsConfig) (tool.Tool, error) {
	handler := func(ctx tool.Context, args ListProjectsArgs) (ListProjectsResult, error) {
		projects, err := cfg.Store.ListProjects(ctx)
		if err != nil {
			return ListProjectsResult{Success: false, Error: fmt.Sprintf("failed to list projects: %v", err)}, nil
		}

		return ListProjectsResult{Success: true, Data: projects}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "list_projects",
		Description: "List all projects that have extracted session memory.",
	}, handler)
}

// BuildTools creates all tools for the assistant.
func BuildTools(cfg ToolsConfig) ([]tool.Tool, error) {
	builders := []func(ToolsConfig) (tool.Tool, error){
		createSearchMemoryTool,
		createMemoryOverviewTool,
		createReadGuidanceTool,
		createListProjectsTool,
	}

	var out []tool.Tool
	for _, build := range builders {
		t, err := build(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, nil
}
