// Package assist runs an interactive agent over the stored project memory.
package assist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/full"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/easeaico/session-memory/internal/memory"
	"github.com/easeaico/session-memory/internal/tools"
)

// Config holds dependencies for the interactive assistant.
type Config struct {
	Store    memory.Store
	Embedder tools.Embedder
	APIKey   string
	Model    string
	Project  string
}

// Run builds the agent and hands control to the ADK launcher. It blocks
// until the interactive session ends or ctx is cancelled.
func Run(ctx context.Context, cfg Config, args []string) error {
	agentTools, err := tools.BuildTools(tools.ToolsConfig{
		Store:    cfg.Store,
		Embedder: cfg.Embedder,
		Project:  cfg.Project,
	})
	if err != nil {
		return fmt.Errorf("failed to build tools: %w", err)
	}

	llmModel, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	llmAgent, err := llmagent.New(llmagent.Config{
		Name:        "memory_assistant",
		Description: "Answers questions about a project using memory distilled from past coding sessions",
		Model:       llmModel,
		Instruction: buildSystemPrompt(ctx, cfg),
		Tools:       agentTools,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	launcherCfg := &launcher.Config{
		AgentLoader: agent.NewSingleLoader(llmAgent),
	}
	l := full.NewLauncher()
	if err := l.Execute(ctx, launcherCfg, args); err != nil {
		return fmt.Errorf("%w\n\n%s", err, l.CommandLineSyntax())
	}
	return nil
}

var systemPromptTmpl = template.Must(template.New("systemPrompt").Parse(`
You are a project memory assistant for the project "{{.Project}}".
You answer questions using knowledge distilled from past coding sessions:
recurring errors and their fixes, conventions, workflows, decisions and gotchas.

You have the following tools:
1. search_memory finds memory items similar to a query
2. memory_overview summarizes what the memory contains
3. read_guidance reads the generated guidance document
4. list_projects lists all projects with stored memory

{{- if .HasDocument }}

The current guidance document for this project:

{{.Document}}
{{- end }}

When answering:
- Search the memory before claiming something has not happened before
- Prefer concrete past resolutions over generic advice
- Say so plainly when the memory holds nothing relevant
`))

func buildSystemPrompt(ctx context.Context, cfg Config) string {
	data := struct {
		Project     string
		Document    string
		HasDocument bool
	}{Project: cfg.Project}

	bundle, err := cfg.Store.GetBundle(ctx, cfg.Project)
	if err == nil && bundle.Document != "" {
		data.Document = bundle.Document
		data.HasDocument = true
	} else if err != nil && !errors.Is(err, memory.ErrNotFound) {
		// tolerate a missing bundle, not a broken store
		data.HasDocument = false
	}

	var buf bytes.Buffer
	_ = systemPromptTmpl.Execute(&buf, data)
	return buf.String()
}
