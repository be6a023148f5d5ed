// Package runtime drives the character chat loop: persona prompt assembly,
// tool dispatch against the on-chain data catalog, folding tool results back
// into a second generation pass, and transcript persistence.
package runtime

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/character"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/history"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/tools"
)

// DefaultModel is used when a request names no model.
const DefaultModel = "qwen2.5:3b"

const generationTemperature = 0.7

// Agent orchestrates model calls, tool execution, and chat history.
type Agent struct {
	backend      models.Backend
	tools        *tools.Catalog
	dispatcher   *tools.Dispatcher
	history      history.Store
	orchestrator *Orchestrator
	defaultModel string
	log          zerolog.Logger
}

// Options configure a new Agent.
type Options struct {
	Backend      models.Backend
	Tools        *tools.Catalog
	Dispatcher   *tools.Dispatcher
	History      history.Store
	Orchestrator *Orchestrator
	DefaultModel string
	Logger       zerolog.Logger
}

// New creates an Agent with the provided options.
func New(opts Options) (*Agent, error) {
	if opts.Backend == nil {
		return nil, errors.New("agent requires a model backend")
	}
	if opts.Tools == nil {
		return nil, errors.New("agent requires a tool catalog")
	}
	if opts.History == nil {
		return nil, errors.New("agent requires a history store")
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tools.NewDispatcher()
	}
	model := opts.DefaultModel
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}

	return &Agent{
		backend:      opts.Backend,
		tools:        opts.Tools,
		dispatcher:   dispatcher,
		history:      opts.History,
		orchestrator: opts.Orchestrator,
		defaultModel: model,
		log:          opts.Logger,
	}, nil
}

// ChatRequest is one user turn addressed to a character.
type ChatRequest struct {
	Card      character.Character
	UserName  string
	Prompt    string
	HistoryID string
	Model     string
	Lilypad   bool
}

// ChatResult is the agent's reply. History carries the id under which the
// updated transcript was saved; tool fields are set when a tool ran.
type ChatResult struct {
	Response       string     `json:"response"`
	CharacterName  string     `json:"character_name"`
	History        string     `json:"history,omitempty"`
	ToolUsed       string     `json:"tool_used,omitempty"`
	ToolArgs       tools.Args `json:"tool_args,omitempty"`
	ToolResponse   any        `json:"tool_response,omitempty"`
	ModelsUsed     []string   `json:"models_used,omitempty"`
	ProcessingTime string     `json:"processing_time,omitempty"`
	Fallback       bool       `json:"fallback,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Chat answers one user turn. The prompt is first matched against the regex
// dispatcher; a hit runs the tool directly and folds its result. Otherwise
// the model generates with tool schemas attached, and any tool call it makes
// (native or embedded as JSON in the text) is executed and folded the same
// way. At most one tool runs per request.
func (a *Agent) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return ChatResult{}, errors.New("prompt is empty")
	}

	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = a.defaultModel
	}

	turns := a.loadHistory(ctx, req.HistoryID)

	if req.Lilypad && a.orchestrator != nil {
		result, err := a.orchestrator.Process(ctx, req.Prompt, req.Card, req.UserName)
		if err == nil {
			out := ChatResult{
				Response:       result.Response,
				CharacterName:  result.CharacterName,
				ModelsUsed:     result.ModelsUsed,
				ProcessingTime: result.ProcessingTime,
				Fallback:       result.Fallback,
				Error:          result.Error,
			}
			out.History = a.saveHistory(ctx, turns, req.Prompt, out.Response)
			return out, nil
		}
		a.log.Error().Err(err).Msg("lilypad processing failed, falling back to local model")
	}

	out, err := a.converse(ctx, req.Card, req.UserName, req.Prompt, turns, model)
	if err != nil {
		return ChatResult{}, err
	}
	out.History = a.saveHistory(ctx, turns, req.Prompt, out.Response)
	return out, nil
}

// Roleplay runs the tool-aware generation loop against a caller-supplied
// character and transcript, without persisting anything.
func (a *Agent) Roleplay(ctx context.Context, card character.Character, userName, prompt string, turns []history.Turn, model string) (ChatResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return ChatResult{}, errors.New("prompt is empty")
	}
	if strings.TrimSpace(model) == "" {
		model = a.defaultModel
	}
	return a.converse(ctx, card, userName, prompt, turns, model)
}

// GenerateWithCharacter is the plain persona generation variant: system
// prompt plus full transcript, no tools, no persistence.
func (a *Agent) GenerateWithCharacter(ctx context.Context, card character.Character, userName, prompt string, turns []history.Turn, model string) (ChatResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return ChatResult{}, errors.New("prompt is empty")
	}
	if strings.TrimSpace(model) == "" {
		model = a.defaultModel
	}

	system := BuildSystemPrompt(card, userName)
	full := BuildFullPrompt(system, card, userName, prompt, turns)
	reply, err := a.backend.Generate(ctx, models.Request{
		Prompt:      full,
		Model:       model,
		Temperature: generationTemperature,
	})
	if err != nil {
		return ChatResult{}, errors.Wrap(err, "runtime: generate with character")
	}
	return ChatResult{
		Response:      CleanRoleplayResponse(reply.Content, card.Name),
		CharacterName: card.Name,
	}, nil
}

// converse is the shared generation core: regex dispatch, first-pass
// generation with tool schemas, tool execution, and the folded follow-up.
func (a *Agent) converse(ctx context.Context, card character.Character, userName, prompt string, turns []history.Turn, model string) (ChatResult, error) {
	if inv, ok := a.dispatcher.Detect(prompt); ok {
		a.log.Info().Str("tool", inv.Tool).Msg("tool intent detected in prompt")
		outcome, handled := a.tools.Execute(ctx, models.ToolCall{Name: inv.Tool, Arguments: inv.Args})
		if handled {
			return a.respondWithOutcome(ctx, card, userName, prompt, turns, model, outcome)
		}
	}

	roleplayPrompt := BuildRoleplayPrompt(card, userName, prompt, turns)
	reply, err := a.backend.Generate(ctx, models.Request{
		Prompt:      roleplayPrompt,
		Model:       model,
		Temperature: generationTemperature,
		Tools:       a.tools.Schemas(),
	})
	if err != nil {
		return ChatResult{}, errors.Wrap(err, "runtime: generate")
	}

	if call, ok := a.requestedToolCall(reply); ok {
		if outcome, handled := a.tools.Execute(ctx, call); handled {
			result, foldErr := a.respondWithOutcome(ctx, card, userName, prompt, turns, model, outcome)
			if foldErr == nil {
				return result, nil
			}
			a.log.Error().Err(foldErr).Msg("follow-up generation failed, keeping first-pass answer")
		}
	}

	return ChatResult{
		Response:      CleanRoleplayResponse(reply.Content, card.Name),
		CharacterName: card.Name,
	}, nil
}

// requestedToolCall returns the tool call the model asked for, either as a
// native tool_calls entry or embedded as JSON in the reply text.
func (a *Agent) requestedToolCall(reply models.Reply) (models.ToolCall, bool) {
	if len(reply.ToolCalls) > 0 {
		return reply.ToolCalls[0], true
	}
	return ExtractToolCall(reply.Content)
}

// respondWithOutcome runs the follow-up pass: the tool outcome is rendered as
// a data block and the model answers from it with function calling disabled.
func (a *Agent) respondWithOutcome(ctx context.Context, card character.Character, userName, prompt string, turns []history.Turn, model string, outcome tools.Outcome) (ChatResult, error) {
	dataPrompt := FoldOutcome(outcome)
	followUp := BuildRoleplayPromptWithData(card, userName, prompt, turns, dataPrompt)

	reply, err := a.backend.Generate(ctx, models.Request{
		Prompt:      followUp,
		Model:       model,
		Temperature: generationTemperature,
	})
	if err != nil {
		if outcome.Tool == tools.NameGasPrice {
			// Gas lookups have a canned in-character rendering.
			a.log.Error().Err(err).Msg("follow-up generation failed, using canned gas summary")
			return ChatResult{
				Response:      FormatGasPriceSummary(card, outcome),
				CharacterName: card.Name,
				ToolUsed:      outcome.Tool,
				ToolArgs:      outcome.Args,
				ToolResponse:  toolResponsePayload(outcome),
			}, nil
		}
		return ChatResult{}, errors.Wrap(err, "runtime: generate with tool data")
	}

	return ChatResult{
		Response:      CleanRoleplayResponse(reply.Content, card.Name),
		CharacterName: card.Name,
		ToolUsed:      outcome.Tool,
		ToolArgs:      outcome.Args,
		ToolResponse:  toolResponsePayload(outcome),
	}, nil
}

func toolResponsePayload(o tools.Outcome) any {
	switch o.Kind {
	case tools.OutcomeError:
		return map[string]string{"error": o.ErrText}
	case tools.OutcomeEmpty:
		return map[string]string{"message": o.Message}
	default:
		return o.Data
	}
}

// loadHistory fetches the transcript behind id. A missing or unreadable
// transcript is logged and the conversation starts fresh.
func (a *Agent) loadHistory(ctx context.Context, id string) []history.Turn {
	if id == "" {
		return nil
	}
	turns, err := a.history.Load(ctx, id)
	if err != nil {
		a.log.Error().Err(err).Str("history_id", id).Msg("failed to load chat history")
		return nil
	}
	a.log.Debug().Str("history_id", id).Int("turns", len(turns)).Msg("chat history loaded")
	return turns
}

// saveHistory appends the exchange and persists the transcript under a fresh
// id, returned to the client for the next turn. A failed save is logged and
// the reply goes out without a history id.
func (a *Agent) saveHistory(ctx context.Context, turns []history.Turn, prompt, response string) string {
	turns = append(turns,
		history.Turn{Role: "user", Content: prompt},
		history.Turn{Role: "assistant", Content: response},
	)
	id := uuid.NewString()
	if err := a.history.Save(ctx, id, turns); err != nil {
		a.log.Error().Err(err).Msg("failed to save chat history")
		return ""
	}
	return id
}
