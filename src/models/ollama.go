package models

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
	"github.com/pkg/errors"
)

// ---------------------------- Ollama -----------------------------------------

// Ollama talks to an Ollama server. Plain generation goes through the
// official client; tool-enabled calls use the /api/chat endpoint directly
// because function calling needs the chat message shape.
type Ollama struct {
	client     *ollama.Client
	httpClient *http.Client
	host       string
	model      string
}

func NewOllama(host, model string) (*Ollama, error) {
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ollama host %q", host)
	}
	httpClient := &http.Client{Timeout: 120 * time.Second}
	return &Ollama{
		client:     ollama.NewClient(u, httpClient),
		httpClient: httpClient,
		host:       strings.TrimRight(host, "/"),
		model:      model,
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Generate(ctx context.Context, req Request) (Reply, error) {
	if len(req.Tools) > 0 {
		return o.chatWithTools(ctx, req)
	}
	return o.generate(ctx, req)
}

func (o *Ollama) generate(ctx context.Context, req Request) (Reply, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	gr := &ollama.GenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
	}
	if req.Temperature > 0 {
		gr.Options = map[string]any{"temperature": req.Temperature}
	}

	var text strings.Builder
	if err := o.client.Generate(ctx, gr, func(resp ollama.GenerateResponse) error {
		if resp.Response != "" {
			text.WriteString(resp.Response)
		}
		return nil
	}); err != nil {
		return Reply{}, errors.Wrap(err, "ollama generate")
	}

	return Reply{Content: text.String()}, nil
}

// chat wire types for /api/chat. Arguments arrive as a JSON object, not a
// string, so the official generate types cannot carry them.
type ollamaChatMessage struct {
	Role      string               `json:"role"`
	Content   string               `json:"content"`
	ToolCalls []ollamaChatToolCall `json:"tool_calls,omitempty"`
}

type ollamaChatToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaChatTool struct {
	Type     string     `json:"type"`
	Function ToolSchema `json:"function"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Tools    []ollamaChatTool    `json:"tools,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

func (o *Ollama) chatWithTools(ctx context.Context, req Request) (Reply, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	var messages []ollamaChatMessage
	if req.System != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ollamaChatMessage{Role: "user", Content: req.Prompt})

	body := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, ollamaChatTool{Type: "function", Function: t})
	}
	if req.Temperature > 0 {
		body.Options = map[string]any{"temperature": req.Temperature}
	}

	raw, err := o.Raw(ctx, "/api/chat", body)
	if err != nil {
		return Reply{}, err
	}

	var resp ollamaChatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Reply{}, errors.Wrap(err, "ollama chat: decode response")
	}

	reply := Reply{Content: resp.Message.Content}
	for _, tc := range resp.Message.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return reply, nil
}

// Raw posts an arbitrary JSON body to an Ollama endpoint and returns the
// response bytes verbatim. Used by the proxy endpoints as well.
func (o *Ollama) Raw(ctx context.Context, path string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "ollama: encode request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+path, bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrap(err, "ollama: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "ollama: %s", path)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "ollama: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("ollama: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// Tags fetches the installed model list from /api/tags.
func (o *Ollama) Tags(ctx context.Context) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.host+"/api/tags", nil)
	if err != nil {
		return nil, errors.Wrap(err, "ollama: build request")
	}
	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "ollama: /api/tags")
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "ollama: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("ollama: /api/tags returned %d", resp.StatusCode)
	}
	return out, nil
}
