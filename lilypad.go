package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/character"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/concurrent"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/retry"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/session"
)

// Specialized models per task category on the Lilypad network.
var lilypadModels = map[string]string{
	"explanation":  "deepseek-r1:7b",
	"critique":     "phi4:14b",
	"optimization": "mistral:7b",
	"orchestrator": "llama3.1:8b",
	"coding":       "qwen2.5-coder:7b",
	"math":         "mistral:7b",
	"creative":     "openthinker:7b",
	"default":      "llama3.1:8b",
}

const (
	routingTimeout     = 45 * time.Second
	taskTimeout        = 90 * time.Second
	aggregationTimeout = 90 * time.Second
	maxSubtaskWorkers  = 4
)

var lilypadRetry = retry.Config{Attempts: 3, Delay: 2 * time.Second, Timeout: 60 * time.Second}

func modelFor(taskType string) string {
	if m, ok := lilypadModels[taskType]; ok {
		return m
	}
	return lilypadModels["default"]
}

const routerSystemPrompt = `You are an AI task router. Analyze the user query and return JSON specifying which specialized models to use. The JSON should have this structure:
{
  "subtasks": [
    {
      "task_type": "task_category",
      "query": "specific_question",
      "recommended_model": "model_name"
    }
  ]
}

Available task categories: coding, math, explanation, critique, optimization, creative

IMPORTANT:
1. Return ONLY valid JSON
2. Use double quotes
3. Break down complex queries into separate subtasks
4. Match each subtask to the most specialized model

MOST IMPORTANT: You need to SIMPLY grab the ENTIRE response returned from Multiple models in the end and display them while summarising the results`

var routeToModelTool = models.ToolSchema{
	Name:        "route_to_model",
	Description: "Route a subtask to the appropriate specialized model",
	Parameters: models.Parameters{
		Type: "object",
		Properties: map[string]models.Property{
			"task_type": {
				Type:        "string",
				Enum:        []string{"explanation", "critique", "optimization", "coding", "math", "creative"},
				Description: "Type of subtask",
			},
			"query": {
				Type:        "string",
				Description: "The specific subtask query",
			},
		},
		Required: []string{"task_type", "query"},
	},
}

// Orchestrator fans a query out across specialized Lilypad models: a router
// model splits it into typed subtasks, each subtask runs on its specialist,
// and an aggregation pass merges the results in the character's voice.
type Orchestrator struct {
	backend  models.Backend
	sessions *session.Store
	log      zerolog.Logger
}

func NewOrchestrator(backend models.Backend, sessions *session.Store, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{backend: backend, sessions: sessions, log: log}
}

// LilypadResult is the orchestrated answer. Error is set when processing
// failed and Response carries the in-character apology instead.
type LilypadResult struct {
	Response       string
	CharacterName  string
	ModelsUsed     []string
	ProcessingTime string
	Fallback       bool
	Error          string
}

type subtask struct {
	TaskType         string `json:"task_type"`
	Query            string `json:"query"`
	RecommendedModel string `json:"recommended_model"`
}

type routePlan struct {
	Subtasks []subtask `json:"subtasks"`
}

type subtaskResult struct {
	TaskType string
	Result   string
}

// modelSet records which models answered, preserving first-use order.
type modelSet struct {
	mu   sync.Mutex
	seen map[string]bool
	list []string
}

func newModelSet() *modelSet {
	return &modelSet{seen: make(map[string]bool)}
}

func (m *modelSet) add(model string) {
	m.mu.Lock()
	if !m.seen[model] {
		m.seen[model] = true
		m.list = append(m.list, model)
	}
	m.mu.Unlock()
}

func (m *modelSet) models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.list...)
}

// Process answers one query through the multi-model pipeline. Failures never
// surface as transport errors; the result carries an in-character apology
// and the failure text in Error.
func (o *Orchestrator) Process(ctx context.Context, query string, card character.Character, userName string) (LilypadResult, error) {
	sessionID := o.sessions.Begin(card.Name, query)
	defer o.sessions.End(sessionID)

	slog := o.sessions.Logger(o.log, sessionID)
	start := time.Now()
	used := newModelSet()

	fail := func(err error) (LilypadResult, error) {
		slog.Error().Err(err).Msg("lilypad processing failed")
		return LilypadResult{
			Response:       fmt.Sprintf("I'm sorry, I encountered an error while processing your request: %s", err.Error()),
			CharacterName:  card.Name,
			ModelsUsed:     used.models(),
			ProcessingTime: elapsed(start),
			Error:          err.Error(),
		}, nil
	}

	slog.Info().Str("query", query).Msg("orchestration started")

	if len(strings.Fields(query)) < 3 {
		return o.directResponse(ctx, slog, card, userName, query, start, used)
	}

	plan, err := o.route(ctx, slog, query, used)
	if err != nil {
		return fail(err)
	}
	if len(plan.Subtasks) == 0 {
		return fail(errors.New("Failed to generate subtasks"))
	}

	o.sessions.SetStatus(sessionID, session.StatusRunning)
	results := concurrent.Settled(ctx, plan.Subtasks, maxSubtaskWorkers, func(ctx context.Context, st subtask) (subtaskResult, error) {
		return o.runSubtask(ctx, slog, st, used)
	})
	if len(results) == 0 {
		return fail(errors.New("No results from subtasks"))
	}

	o.sessions.SetStatus(sessionID, session.StatusAggregating)
	final, err := o.aggregate(ctx, slog, card, results, used)
	if err != nil {
		slog.Warn().Err(err).Msg("aggregation failed, concatenating subtask results")
		parts := make([]string, 0, len(results))
		for _, res := range results {
			parts = append(parts, fmt.Sprintf("## %s\n%s", res.TaskType, res.Result))
		}
		return LilypadResult{
			Response:       CleanRoleplayResponse(strings.Join(parts, "\n\n"), card.Name),
			CharacterName:  card.Name,
			ModelsUsed:     used.models(),
			ProcessingTime: elapsed(start),
			Fallback:       true,
		}, nil
	}

	return LilypadResult{
		Response:       CleanRoleplayResponse(final, card.Name),
		CharacterName:  card.Name,
		ModelsUsed:     used.models(),
		ProcessingTime: elapsed(start),
	}, nil
}

func elapsed(start time.Time) string {
	return fmt.Sprintf("%.2f seconds", time.Since(start).Seconds())
}

// callModel is one retried Lilypad call.
func (o *Orchestrator) callModel(ctx context.Context, model, system, prompt string, tools []models.ToolSchema, temperature float64) (models.Reply, error) {
	return retry.Do(ctx, lilypadRetry, func(ctx context.Context) (models.Reply, error) {
		return o.backend.Generate(ctx, models.Request{
			Prompt:      prompt,
			System:      system,
			Model:       model,
			Temperature: temperature,
			Tools:       tools,
		})
	})
}

// directResponse answers trivially short queries with a single persona call.
func (o *Orchestrator) directResponse(ctx context.Context, slog zerolog.Logger, card character.Character, userName, query string, start time.Time, used *modelSet) (LilypadResult, error) {
	slog.Info().Msg("short query, answering directly")
	used.add(lilypadModels["orchestrator"])

	scenario := card.Scenario
	if scenario == "" {
		scenario = "You're having a conversation."
	}
	system := fmt.Sprintf(`You are %s, a character with the following personality: %s.
You're in a scenario where: %s
Respond to the user (%s) in your character's voice.`, card.Name, card.Personality, scenario, userName)

	reply, err := o.callModel(ctx, lilypadModels["default"], system, query, nil, 0.7)
	used.add(lilypadModels["default"])
	if err != nil {
		err = errors.New("Failed to generate direct response")
		slog.Error().Err(err).Msg("direct response failed")
		return LilypadResult{
			Response:       fmt.Sprintf("I'm sorry, I encountered an error while processing your request: %s", err.Error()),
			CharacterName:  card.Name,
			ModelsUsed:     used.models(),
			ProcessingTime: elapsed(start),
			Error:          err.Error(),
		}, nil
	}

	return LilypadResult{
		Response:       CleanRoleplayResponse(reply.Content, card.Name),
		CharacterName:  card.Name,
		ModelsUsed:     used.models(),
		ProcessingTime: elapsed(start),
	}, nil
}

// route asks the router model to split the query into typed subtasks. An
// unparseable answer falls back to local keyword detection.
func (o *Orchestrator) route(ctx context.Context, slog zerolog.Logger, query string, used *modelSet) (routePlan, error) {
	reply, err := o.callModel(ctx, lilypadModels["orchestrator"], routerSystemPrompt, query, nil, 0.2)
	used.add(lilypadModels["orchestrator"])
	if err != nil {
		return routePlan{}, errors.New("Orchestration failed")
	}

	if raw, ok := extractJSON(reply.Content); ok {
		var plan routePlan
		if jsonErr := json.Unmarshal(raw, &plan); jsonErr == nil && len(plan.Subtasks) > 0 {
			slog.Info().Int("subtasks", len(plan.Subtasks)).Msg("router produced subtasks")
			return plan, nil
		}
	}

	slog.Warn().Msg("router output was not valid JSON, using keyword detection")
	taskType := DetectTaskType(query)
	return routePlan{Subtasks: []subtask{{
		TaskType:         taskType,
		Query:            query,
		RecommendedModel: modelFor(taskType),
	}}}, nil
}

// runSubtask routes one subtask through the route_to_model function call,
// then executes the chosen specialist.
func (o *Orchestrator) runSubtask(ctx context.Context, slog zerolog.Logger, st subtask, used *modelSet) (subtaskResult, error) {
	taskType := st.TaskType
	if taskType == "" {
		taskType = "default"
	}
	slog.Info().Str("task_type", taskType).Str("query", st.Query).Msg("scheduling subtask")

	routeCtx, cancel := context.WithTimeout(ctx, routingTimeout)
	reply, err := o.callModel(routeCtx, lilypadModels["orchestrator"],
		fmt.Sprintf("Route this %s task", taskType), st.Query,
		[]models.ToolSchema{routeToModelTool}, 0.2)
	cancel()
	used.add(lilypadModels["orchestrator"])
	if err != nil {
		slog.Error().Err(err).Str("task_type", taskType).Msg("subtask routing failed")
		return subtaskResult{}, err
	}

	for _, call := range reply.ToolCalls {
		if call.Name != "route_to_model" {
			continue
		}
		args := call.Arguments
		routedType, _ := args["task_type"].(string)
		routedQuery, _ := args["query"].(string)
		if routedType == "" || routedQuery == "" {
			continue
		}

		model := modelFor(routedType)
		slog.Info().Str("task_type", routedType).Str("model", model).Msg("executing subtask")

		taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
		result, err := o.callModel(taskCtx, model, "", routedQuery, nil, 0.2)
		cancel()
		if err != nil {
			slog.Error().Err(err).Str("task_type", routedType).Msg("subtask execution failed")
			continue
		}
		if result.Content == "" {
			continue
		}
		used.add(model)
		return subtaskResult{TaskType: routedType, Result: result.Content}, nil
	}

	return subtaskResult{}, errors.Errorf("subtask %s produced no result", taskType)
}

// aggregate merges the subtask results into one reply in the character's
// voice.
func (o *Orchestrator) aggregate(ctx context.Context, slog zerolog.Logger, card character.Character, results []subtaskResult, used *modelSet) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Combine these results into one coherent response, in the voice of %s, a character with the personality: %s:\n\n", card.Name, card.Personality)
	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, fmt.Sprintf("### %s\n%s", res.TaskType, res.Result))
	}
	b.WriteString(strings.Join(parts, "\n\n"))

	system := fmt.Sprintf(`You are %s, a character with the following personality: %s.
Synthesize these inputs into one polished response that sounds like you.`, card.Name, card.Personality)

	aggCtx, cancel := context.WithTimeout(ctx, aggregationTimeout)
	defer cancel()

	reply, err := o.callModel(aggCtx, lilypadModels["orchestrator"], system, b.String(), nil, 0.7)
	used.add(lilypadModels["orchestrator"])
	if err != nil {
		return "", err
	}
	if reply.Content == "" {
		return "", errors.New("aggregator returned empty content")
	}
	slog.Info().Msg("aggregation complete")
	return reply.Content, nil
}

var (
	jsonCodeBlockPattern = regexp.MustCompile("(?s)```(?:json)?\n({.*?})\n```")
	jsonObjectPattern    = regexp.MustCompile(`(?s){(?:[^{}]|{[^{}]*})*}`)
)

// extractJSON pulls a JSON object out of model output, trying a direct
// parse, then a fenced code block, then the first object-shaped run.
func extractJSON(content string) ([]byte, bool) {
	if content == "" {
		return nil, false
	}
	if json.Valid([]byte(content)) {
		return []byte(content), true
	}
	if m := jsonCodeBlockPattern.FindStringSubmatch(content); m != nil {
		if json.Valid([]byte(m[1])) {
			return []byte(m[1]), true
		}
	}
	if m := jsonObjectPattern.FindString(content); m != "" {
		if json.Valid([]byte(m)) {
			return []byte(m), true
		}
	}
	return nil, false
}

// DetectTaskType classifies a query by keyword when the router model fails
// to produce usable JSON. First match wins.
func DetectTaskType(query string) string {
	q := strings.ToLower(query)

	switch {
	case containsAny(q, "story", "narrative", "poem", "creative"):
		return "creative"
	case containsAny(q, "code", "implement"):
		return "coding"
	case containsAny(q, "math", "equation", "formula"):
		return "math"
	case containsAny(q, "explain", "how to"):
		return "explanation"
	case containsAny(q, "critique", "analyze", "issues"):
		return "critique"
	case containsAny(q, "optimize", "improve"):
		return "optimization"
	case containsAny(q, "calculate", "solve"):
		return "math"
	case containsAny(q, "wrong", "problem"):
		return "critique"
	}
	return "default"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
