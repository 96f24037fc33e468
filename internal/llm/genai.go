package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the completion model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

const (
	defaultEmbeddingModel = "text-embedding-004"
	defaultMaxTurns       = 20
)

// Client wraps the Google GenAI client and implements both the Oracle
// and Embedder interfaces.
type Client struct {
	client         *genai.Client
	model          string
	embeddingModel string
	maxTurns       int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithModel sets the completion model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTurns sets the default exchange budget for completions.
func WithMaxTurns(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTurns = n
		}
	}
}

// NewClient creates a new LLM client with the given API key.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := &Client{
		client:         client,
		model:          DefaultModel,
		embeddingModel: defaultEmbeddingModel,
		maxTurns:       defaultMaxTurns,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Complete runs a completion task, continuing truncated responses until
// the model finishes or the exchange budget runs out. Partial output from
// an exhausted budget or a canceled context is discarded.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	maxTurns := req.MaxTurns
	if maxTurns <= 0 {
		maxTurns = c.maxTurns
	}

	var config *genai.GenerateContentConfig
	if req.System != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}

	history := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	var sb strings.Builder
	for turn := 0; turn < maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.model, history, config)
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("%w: empty candidate", ErrMalformedResponse)
		}

		candidate := resp.Candidates[0]
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}

		if candidate.FinishReason != genai.FinishReasonMaxTokens {
			return sb.String(), nil
		}

		// The response was cut off by the output token limit. Carry the
		// partial content forward and ask the model to continue.
		history = append(history,
			candidate.Content,
			genai.NewContentFromText("continue", genai.RoleUser),
		)
	}

	return "", fmt.Errorf("%w: response incomplete after %d turns", ErrBudgetExceeded, maxTurns)
}

// Close is a no-op; the genai client holds no resources that need
// explicit release.
func (c *Client) Close() error {
	return nil
}

// Embed generates an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return resp.Embeddings[0].Values, nil
}

// Ensure Client implements both interfaces
var (
	_ Oracle   = (*Client)(nil)
	_ Embedder = (*Client)(nil)
)
