// Package anthropic adapts the Anthropic Messages API (including tool use)
// to the generic backend.Backend interface.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/taskweave/taskweave/backend"
	"github.com/taskweave/taskweave/core"
)

// Options configure the Anthropic backend adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Backend wraps the Anthropic Messages API behind backend.Backend.
type Backend struct {
	client *anthropic.Client
	opts   Options
}

var _ backend.Backend = (*Backend)(nil)

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// New creates an Anthropic backend using the official client.
func New(optFns ...func(o *Options)) *Backend {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Backend{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic backend from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Backend {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{client: client, opts: opts}
}

// Complete implements backend.Backend.
func (b *Backend) Complete(ctx context.Context, req backend.Request) (*backend.Completion, error) {
	params := anthropic.MessageNewParams{
		Model:       b.opts.Model,
		Messages:    buildMessages(req.Turns),
		MaxTokens:   b.opts.MaxTokens,
		Temperature: anthropic.Float(b.opts.Temperature),
	}
	if system := buildSystem(req); len(system) > 0 {
		params.System = system
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	completion := &backend.Completion{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			completion.Text += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := map[string]any{}
			if toolBlock.Input != nil {
				data, err := json.Marshal(toolBlock.Input)
				if err != nil {
					return nil, fmt.Errorf("read tool input for %q: %w", toolBlock.Name, err)
				}
				if err := json.Unmarshal(data, &args); err != nil {
					return nil, fmt.Errorf("unparseable tool input for %q: %w", toolBlock.Name, err)
				}
			}
			completion.ToolCalls = append(completion.ToolCalls, core.ToolCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}
	return completion, nil
}

// Info implements backend.Backend.
func (b *Backend) Info() backend.Info {
	return backend.Info{Name: string(b.opts.Model), Provider: "anthropic"}
}

// buildSystem folds the instruction string and any system turns into system
// blocks; Anthropic carries them outside the message list.
func buildSystem(req backend.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if req.Instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.Instructions})
	}
	for _, turn := range req.Turns {
		if turn.Role == core.RoleSystem && turn.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: turn.Content})
		}
	}
	return blocks
}

// buildMessages converts turns into Anthropic messages. Observations become
// user-role tool_result blocks as the Messages API requires.
func buildMessages(turns []core.Turn) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, turn := range turns {
		switch turn.Role {
		case core.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		case core.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if turn.Content != "" {
				content = append(content, anthropic.NewTextBlock(turn.Content))
			}
			for _, call := range turn.ToolCalls {
				content = append(content, anthropic.NewToolUseBlock(call.ID, call.Arguments, call.Name))
			}
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		case core.RoleObservation:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(turn.ToolCallID, turn.Content, false)))
		}
	}
	return messages
}

// buildTools converts ToolSpecs into Anthropic tool definitions.
func buildTools(specs []core.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(specs))
	for i, spec := range specs {
		schema := spec.JSONSchema()
		inputSchema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if properties, ok := schema["properties"]; ok {
			inputSchema.Properties = properties
		}
		if required, ok := schema["required"].([]string); ok {
			inputSchema.Required = required
		}
		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, spec.Name)
	}
	return tools
}
