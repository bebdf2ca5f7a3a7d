// Package llm produces agent turns by calling the model provider with
// streaming output.
package llm

import (
	"context"

	"github.com/opennotebook/workshop/pkg/models"
)

// Tool is a capability an agent may invoke while producing a turn.
type Tool interface {
	Name() string
	Description() string
	// InputSchema returns the JSON schema for the tool input.
	InputSchema() map[string]any
	Execute(ctx context.Context, input map[string]any) (string, error)
}

// TurnRequest describes one agent invocation.
type TurnRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	Temperature  float64
	MaxTokens    int64
	Tools        []Tool
}

// TurnResult is the completed output of one agent invocation. ToolCalls
// records every tool the agent invoked, in order, with its output.
type TurnResult struct {
	Content      string
	ToolCalls    []models.ToolCall
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// Client generates agent turns. Implementations call onDelta for each text
// fragment as it is produced; onDelta may be nil for buffered generation.
type Client interface {
	GenerateTurn(ctx context.Context, req TurnRequest, onDelta func(string)) (*TurnResult, error)
}
