package models

import (
	"context"
	"encoding/json"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

// ---------------------------- Anthropic --------------------------------------

type Anthropic struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropic(apiKey, model string) *Anthropic {
	cl := anthropic.NewClient(anthropicopt.WithAPIKey(apiKey))
	return &Anthropic{client: &cl, model: model, maxTokens: 1024}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Generate(ctx context.Context, req Request) (Reply, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Tools: anthropicTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return Reply{}, errors.Wrap(err, "anthropic messages")
	}

	var reply Reply
	var b strings.Builder
	for _, cb := range msg.Content {
		switch block := cb.AsAny().(type) {
		case anthropic.TextBlock:
			b.WriteString(block.Text)
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			// Malformed arguments are tolerated: the call still names a tool.
			_ = json.Unmarshal(block.Input, &args)
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				Name:      block.Name,
				Arguments: args,
			})
		}
	}
	reply.Content = b.String()
	return reply, nil
}

func anthropicTools(schemas []ToolSchema) []anthropic.ToolUnionParam {
	if len(schemas) == 0 {
		return nil
	}
	tools := make([]anthropic.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        s.Name,
				Description: anthropic.String(s.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: s.Parameters.Properties,
					Required:   s.Parameters.Required,
				},
			},
		})
	}
	return tools
}
