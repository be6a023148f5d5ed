// Package models wraps the supported LLM providers behind one interface so
// the runtime can swap backends without touching the orchestration loop.
package models

import "context"

// Property is a single parameter in a tool's JSON schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Parameters is the JSON-schema object describing a tool's arguments.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ToolSchema describes one callable tool to the model.
type ToolSchema struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// ToolCall is a model-emitted request to invoke a tool.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Request is a single-turn generation request.
type Request struct {
	Prompt      string
	System      string
	Model       string // optional per-request model override
	Temperature float64
	Tools       []ToolSchema // empty disables function calling
}

// Reply is the backend's answer. ToolCalls is non-empty only when the model
// chose to call a tool instead of (or before) answering in text.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

// Backend is a text-generation provider.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (Reply, error)
}
