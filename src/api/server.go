// Package api exposes the agent over HTTP: the authenticated chat endpoint,
// the raw Ollama proxies, and the unauthenticated character endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	runtime "github.com/gabrielantonyxaviour/franky-hedera-sub000"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/auth"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/character"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/history"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/payment"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/session"
)

// AgentResolver resolves a registered agent's metadata and character card.
type AgentResolver interface {
	Fetch(ctx context.Context, agentID string) (*character.Agent, error)
}

// Authorizer checks an API key against the on-chain registry.
type Authorizer interface {
	Status(ctx context.Context, agentAddress, apiKey, ownerKeyHash string) (int, common.Address, error)
}

// Payments charges the per-call fee before generation.
type Payments interface {
	Charge(ctx context.Context, caller common.Address, owner string, feeEther float64) error
}

// ModelProxy forwards raw requests to the local model server.
type ModelProxy interface {
	Raw(ctx context.Context, path string, payload any) ([]byte, error)
	Tags(ctx context.Context) ([]byte, error)
}

// Server wires the HTTP surface to the runtime.
type Server struct {
	agent     *runtime.Agent
	resolver  AgentResolver
	auth      Authorizer
	payments  Payments
	proxy     ModelProxy
	sessions  *session.Store
	log       zerolog.Logger
	startedAt time.Time
}

// Options configure a Server. Agent and Resolver are required; the rest
// degrade individual endpoints when absent.
type Options struct {
	Agent    *runtime.Agent
	Resolver AgentResolver
	Auth     Authorizer
	Payments Payments
	Proxy    ModelProxy
	Sessions *session.Store
	Logger   zerolog.Logger
}

func NewServer(opts Options) (*Server, error) {
	if opts.Agent == nil {
		return nil, errors.New("api: server requires an agent")
	}
	if opts.Resolver == nil {
		return nil, errors.New("api: server requires an agent resolver")
	}
	if opts.Auth == nil {
		return nil, errors.New("api: server requires an authorizer")
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore()
	}
	return &Server{
		agent:     opts.Agent,
		resolver:  opts.Resolver,
		auth:      opts.Auth,
		payments:  opts.Payments,
		proxy:     opts.Proxy,
		sessions:  sessions,
		log:       opts.Logger,
		startedAt: time.Now(),
	}, nil
}

// Router builds the chi router for the service.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/", s.handleChat)
	r.Post("/generate", s.handleGenerate)
	r.Post("/roleplay-character", s.handleRoleplayCharacter)
	r.Post("/generate-with-character", s.handleGenerateWithCharacter)
	r.Get("/models", s.handleModels)
	r.Post("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type chatBody struct {
	Prompt   string `json:"prompt"`
	History  string `json:"history,omitempty"`
	UserName string `json:"user_name,omitempty"`
	Model    string `json:"model,omitempty"`
}

// handleChat is the main endpoint: header auth, on-chain verification,
// payment, then the tool-aware chat loop.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	apiKey := r.Header.Get("api-key")
	agentID := r.Header.Get("agent-id")
	if apiKey == "" || agentID == "" {
		writeError(w, http.StatusUnauthorized, "API key and agent ID are required")
		return
	}
	lilypad := r.Header.Get("isLilypad") == "true"

	agentData, err := s.resolver.Fetch(ctx, agentID)
	if err != nil {
		if errors.Is(err, character.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, "Agent not found")
			return
		}
		s.log.Error().Err(err).Str("agent_id", agentID).Msg("agent fetch failed")
		writeError(w, http.StatusBadGateway, "Failed to fetch agent data")
		return
	}

	status, caller, err := s.auth.Status(ctx, agentData.ID, apiKey, agentData.KeyHash)
	if err != nil {
		s.log.Warn().Err(err).Str("agent_id", agentID).Msg("api key verification failed")
		status = auth.StatusDenied
	}
	if status == auth.StatusDenied {
		writeError(w, http.StatusUnauthorized, "Invalid API key or agent ID")
		return
	}

	var body chatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Prompt == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required in request body")
		return
	}

	// Owners use their own agent for free; users pay the per-call fee.
	if status == auth.StatusUser && agentData.PerAPICallFee > 0 && s.payments != nil {
		if err := s.payments.Charge(ctx, caller, agentData.Owner, agentData.PerAPICallFee); err != nil {
			s.writePaymentError(w, err)
			return
		}
	}

	result, err := s.agent.Chat(ctx, runtime.ChatRequest{
		Card:      agentData.Character,
		UserName:  body.UserName,
		Prompt:    body.Prompt,
		HistoryID: body.History,
		Model:     body.Model,
		Lilypad:   lilypad,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("chat generation failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, "Invalid address format")
	case errors.Is(err, payment.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, "Insufficient balance")
	default:
		s.log.Error().Err(err).Msg("payment failed")
		writeError(w, http.StatusBadGateway, "Payment transaction failed")
	}
}

// handleGenerate is an authenticated verbatim proxy to the model server's
// generate endpoint.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	apiKey := r.Header.Get("api-key")
	agentID := r.Header.Get("agent-id")
	if apiKey == "" || agentID == "" {
		writeError(w, http.StatusUnauthorized, "API key and agent ID are required")
		return
	}

	agentData, err := s.resolver.Fetch(ctx, agentID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch agent data")
		return
	}
	status, _, err := s.auth.Status(ctx, agentData.ID, apiKey, agentData.KeyHash)
	if err != nil || status == auth.StatusDenied {
		writeError(w, http.StatusUnauthorized, "Invalid API key or agent ID")
		return
	}

	if s.proxy == nil {
		writeError(w, http.StatusBadGateway, "Model server unavailable")
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	raw, err := s.proxy.Raw(ctx, "/api/generate", payload)
	if err != nil {
		s.log.Error().Err(err).Msg("generate proxy failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

type roleplayBody struct {
	Model       string              `json:"model"`
	Prompt      string              `json:"prompt"`
	Character   character.Character `json:"character_data"`
	ChatHistory []history.Turn      `json:"chat_history,omitempty"`
	UserName    string              `json:"user_name,omitempty"`
}

// handleRoleplayCharacter runs the tool-aware roleplay loop against a
// caller-supplied character. No auth, no payment, nothing persisted.
func (s *Server) handleRoleplayCharacter(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeRoleplayBody(w, r)
	if !ok {
		return
	}

	result, err := s.agent.Roleplay(r.Context(), body.Character, body.UserName, body.Prompt, body.ChatHistory, body.Model)
	if err != nil {
		s.log.Error().Err(err).Msg("roleplay generation failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGenerateWithCharacter is the plain persona variant without tools.
func (s *Server) handleGenerateWithCharacter(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeRoleplayBody(w, r)
	if !ok {
		return
	}

	result, err := s.agent.GenerateWithCharacter(r.Context(), body.Character, body.UserName, body.Prompt, body.ChatHistory, body.Model)
	if err != nil {
		s.log.Error().Err(err).Msg("character generation failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeRoleplayBody(w http.ResponseWriter, r *http.Request) (roleplayBody, bool) {
	var body roleplayBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return body, false
	}
	if body.Model == "" || body.Prompt == "" {
		writeError(w, http.StatusBadRequest, "Model and prompt are required")
		return body, false
	}
	if !body.Character.Valid() {
		writeError(w, http.StatusBadRequest, "Character data must include a name and personality")
		return body, false
	}
	return body, true
}

// handleModels proxies the model server's tag listing.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.proxy == nil {
		writeError(w, http.StatusBadGateway, "Model server unavailable")
		return
	}
	raw, err := s.proxy.Tags(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("models proxy failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// handleHealth verifies that an agent's character config is resolvable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgentAddress string `json:"agentAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AgentAddress == "" {
		writeError(w, http.StatusBadRequest, "agentAddress is required")
		return
	}

	agentData, err := s.resolver.Fetch(r.Context(), body.AgentAddress)
	if err != nil {
		if errors.Is(err, character.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, "Character config not found")
			return
		}
		writeError(w, http.StatusBadGateway, "Failed to fetch character config")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"character_name": agentData.Character.Name,
	})
}

// handleStatus reports process health for monitoring.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"uptime":          fmt.Sprintf("%.0f seconds", time.Since(s.startedAt).Seconds()),
		"active_sessions": s.sessions.Active(),
	})
}
