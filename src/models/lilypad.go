package models

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// ---------------------------- Lilypad ----------------------------------------

// DefaultLilypadEndpoint is the anura testnet OpenAI-compatible gateway.
const DefaultLilypadEndpoint = "https://anura-testnet.lilypad.tech/api/v1"

// Lilypad drives the Lilypad network through its OpenAI-compatible API.
// Every request names its model explicitly; the orchestrator picks one per
// subtask.
type Lilypad struct {
	client       *openai.Client
	defaultModel string
}

func NewLilypad(endpoint, apiToken, defaultModel string) *Lilypad {
	if endpoint == "" {
		endpoint = DefaultLilypadEndpoint
	}
	cfg := openai.DefaultConfig(apiToken)
	cfg.BaseURL = endpoint
	return &Lilypad{
		client:       openai.NewClientWithConfig(cfg),
		defaultModel: defaultModel,
	}
}

func (l *Lilypad) Name() string { return "lilypad" }

func (l *Lilypad) Generate(ctx context.Context, req Request) (Reply, error) {
	model := req.Model
	if model == "" {
		model = l.defaultModel
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

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		Tools:       openaiTools(req.Tools),
	})
	if err != nil {
		return Reply{}, errors.Wrapf(err, "lilypad: model %s", model)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, errors.Errorf("lilypad: model %s returned no choices", model)
	}

	msg := resp.Choices[0].Message
	reply := Reply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return reply, nil
}
