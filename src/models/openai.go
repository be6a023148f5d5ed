package models

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// ---------------------------- OpenAI -----------------------------------------

type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{client: openai.NewClient(apiKey), model: model}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, req Request) (Reply, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	ccr := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		Tools:       openaiTools(req.Tools),
	}

	resp, err := o.client.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return Reply{}, errors.Wrap(err, "openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return Reply{}, errors.New("openai: no choices in response")
	}

	msg := resp.Choices[0].Message
	reply := Reply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			// Malformed arguments are tolerated: the call still names a tool.
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return reply, nil
}

func openaiTools(schemas []ToolSchema) []openai.Tool {
	if len(schemas) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(schemas))
	for _, s := range schemas {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return tools
}
