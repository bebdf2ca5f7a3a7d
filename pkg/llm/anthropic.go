package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"

	"github.com/opennotebook/workshop/pkg/models"
)

// maxToolIterations bounds the tool-use loop for a single turn.
const maxToolIterations = 5

// AnthropicClient generates turns via the Anthropic Messages API with
// streaming.
type AnthropicClient struct {
	client     anthropic.Client
	maxRetries int
}

// NewAnthropicClient creates a client authenticated with the given API key.
func NewAnthropicClient(apiKey string, maxRetries int) *AnthropicClient {
	return &AnthropicClient{
		client:     anthropic.NewClient(option.WithAPIKey(apiKey)),
		maxRetries: maxRetries,
	}
}

// GenerateTurn streams one agent turn, running requested tools and feeding
// their results back to the model until it produces a final text response.
func (c *AnthropicClient) GenerateTurn(ctx context.Context, req TurnRequest, onDelta func(string)) (*TurnResult, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}

	result := &TurnResult{}
	var content strings.Builder

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		attempt, err := c.streamOnce(ctx, req, messages, func(delta string) {
			content.WriteString(delta)
			if onDelta != nil {
				onDelta(delta)
			}
		})
		if err != nil {
			return nil, err
		}

		result.StopReason = attempt.stopReason
		result.InputTokens += attempt.inputTokens
		result.OutputTokens += attempt.outputTokens

		if attempt.stopReason != "tool_use" || len(attempt.toolUses) == 0 {
			result.Content = content.String()
			return result, nil
		}

		// The model requested tools. Execute them, record the calls, and
		// continue the conversation with their results.
		var assistantBlocks []anthropic.ContentBlockParamUnion
		if attempt.text != "" {
			assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(attempt.text))
		}
		var resultBlocks []anthropic.ContentBlockParamUnion
		for _, use := range attempt.toolUses {
			assistantBlocks = append(assistantBlocks, anthropic.NewToolUseBlock(use.id, use.input, use.name))

			output, execErr := executeTool(ctx, req.Tools, use.name, use.input)
			isError := execErr != nil
			if isError {
				output = execErr.Error()
				slog.Warn("Tool execution failed", "tool", use.name, "error", execErr)
			}
			result.ToolCalls = append(result.ToolCalls, models.ToolCall{
				Tool:   use.name,
				Input:  use.input,
				Output: output,
			})
			resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(use.id, output, isError))
		}

		messages = append(messages,
			anthropic.NewAssistantMessage(assistantBlocks...),
			anthropic.NewUserMessage(resultBlocks...),
		)
	}

	result.Content = content.String()
	return result, fmt.Errorf("tool-use loop exceeded %d iterations", maxToolIterations)
}

// toolUse is one tool invocation requested by the model in a stream.
type toolUse struct {
	id    string
	name  string
	input map[string]any
}

// streamAttempt is the outcome of a single streamed API call.
type streamAttempt struct {
	text         string
	stopReason   string
	toolUses     []toolUse
	inputTokens  int
	outputTokens int
}

// streamOnce performs one streamed Messages API call. Connection failures
// before any delta was emitted are retried with exponential backoff; once a
// delta reached the caller the error is returned as-is so the caller never
// sees duplicated output.
func (c *AnthropicClient) streamOnce(ctx context.Context, req TurnRequest, messages []anthropic.MessageParam, onDelta func(string)) (*streamAttempt, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	var attempt *streamAttempt
	operation := func() error {
		emitted := false
		a, err := c.consumeStream(ctx, params, func(delta string) {
			emitted = true
			onDelta(delta)
		})
		if err != nil {
			if emitted || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			slog.Warn("LLM stream failed before output, retrying", "error", err)
			return err
		}
		attempt = a
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("message stream failed: %w", err)
	}
	return attempt, nil
}

func (c *AnthropicClient) consumeStream(ctx context.Context, params anthropic.MessageNewParams, onDelta func(string)) (*streamAttempt, error) {
	stream := c.client.Messages.NewStreaming(ctx, params)

	attempt := &streamAttempt{}
	var text strings.Builder

	// Tool input JSON arrives as deltas, accumulated per content block index.
	inputBuffers := make(map[int64]*strings.Builder)
	blockToolIndex := make(map[int64]int)

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			attempt.inputTokens = int(event.Message.Usage.InputTokens)

		case "content_block_start":
			if event.ContentBlock.Type == "tool_use" {
				blockToolIndex[event.Index] = len(attempt.toolUses)
				attempt.toolUses = append(attempt.toolUses, toolUse{
					id:    event.ContentBlock.ID,
					name:  event.ContentBlock.Name,
					input: map[string]any{},
				})
				inputBuffers[event.Index] = &strings.Builder{}
			}

		case "content_block_delta":
			switch event.Delta.Type {
			case "text_delta":
				if event.Delta.Text != "" {
					text.WriteString(event.Delta.Text)
					onDelta(event.Delta.Text)
				}
			case "input_json_delta":
				if buf, ok := inputBuffers[event.Index]; ok {
					buf.WriteString(event.Delta.PartialJSON)
				}
			}

		case "content_block_stop":
			if buf, ok := inputBuffers[event.Index]; ok && buf.Len() > 0 {
				var input map[string]any
				if err := json.Unmarshal([]byte(buf.String()), &input); err == nil {
					if idx, ok := blockToolIndex[event.Index]; ok && idx < len(attempt.toolUses) {
						attempt.toolUses[idx].input = input
					}
				}
				delete(inputBuffers, event.Index)
			}

		case "message_delta":
			if event.Delta.StopReason != "" {
				attempt.stopReason = string(event.Delta.StopReason)
			}
			if event.Usage.OutputTokens > 0 {
				attempt.outputTokens = int(event.Usage.OutputTokens)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, err
	}

	attempt.text = text.String()
	return attempt, nil
}

func convertTools(tools []Tool) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolParam, len(tools))
	for i, tool := range tools {
		params[i] = anthropic.ToolParam{
			Name:        tool.Name(),
			Description: anthropic.String(tool.Description()),
		}
		if schema := tool.InputSchema(); schema != nil {
			schemaJSON, _ := json.Marshal(schema)
			var inputSchema anthropic.ToolInputSchemaParam
			_ = json.Unmarshal(schemaJSON, &inputSchema)
			params[i].InputSchema = inputSchema
		}
	}

	unions := make([]anthropic.ToolUnionParam, len(params))
	for i := range params {
		unions[i] = anthropic.ToolUnionParam{OfTool: &params[i]}
	}
	return unions
}

func executeTool(ctx context.Context, tools []Tool, name string, input map[string]any) (string, error) {
	for _, tool := range tools {
		if tool.Name() == name {
			return tool.Execute(ctx, input)
		}
	}
	return "", fmt.Errorf("unknown tool: %s", name)
}

var _ Client = (*AnthropicClient)(nil)
