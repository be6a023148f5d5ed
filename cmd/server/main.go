// Character agent server: persona chat with on-chain tools, registry-backed
// auth, per-call payments, and multi-model orchestration over Lilypad.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	runtime "github.com/gabrielantonyxaviour/franky-hedera-sub000"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/api"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/auth"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/character"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/config"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/history"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/payment"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/session"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/tools"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newHistoryStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.HistoryBackend).Msg("history store init failed")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("history store close failed")
		}
	}()
	log.Info().Str("backend", cfg.HistoryBackend).Msg("history store ready")

	ollama, err := models.NewOllama(cfg.OllamaBaseURL, cfg.OllamaModel)
	if err != nil {
		log.Fatal().Err(err).Msg("ollama client init failed")
	}

	backend, err := newBackend(ctx, cfg, ollama)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.ModelProvider).Msg("model backend init failed")
	}
	log.Info().Str("provider", backend.Name()).Msg("model backend ready")

	registryClient, err := ethclient.DialContext(ctx, cfg.RegistryRPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("registry rpc dial failed")
	}
	defer registryClient.Close()

	verifier, err := auth.NewVerifier(registryClient, cfg.RegistryAddress, log)
	if err != nil {
		log.Fatal().Err(err).Msg("verifier init failed")
	}

	paymentClient, err := ethclient.DialContext(ctx, cfg.PaymentRPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("payment rpc dial failed")
	}
	defer paymentClient.Close()

	gate, err := payment.NewGate(paymentClient, cfg.PrivateKey, log)
	if err != nil {
		log.Fatal().Err(err).Msg("payment gate init failed")
	}
	log.Info().Str("wallet", gate.Wallet().Hex()).Msg("payment gate ready")

	sessions := session.NewStore()
	lilypad := models.NewLilypad(cfg.LilypadEndpoint, cfg.LilypadToken, "llama3.1:8b")
	orchestrator := runtime.NewOrchestrator(lilypad, sessions, log)

	catalog := tools.NewCatalog(tools.NewOneInch(cfg.OneInchBaseURL, cfg.OneInchKey, log), log)

	agent, err := runtime.New(runtime.Options{
		Backend:      backend,
		Tools:        catalog,
		History:      store,
		Orchestrator: orchestrator,
		DefaultModel: cfg.OllamaModel,
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("agent init failed")
	}

	server, err := api.NewServer(api.Options{
		Agent:    agent,
		Resolver: character.NewFetcher(cfg.APIBaseURL, cfg.CharacterCacheTTL, log),
		Auth:     verifier,
		Payments: gate,
		Proxy:    ollama,
		Sessions: sessions,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // orchestrated requests are slow
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func newHistoryStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (history.Store, error) {
	switch cfg.HistoryBackend {
	case "sqlite":
		return history.NewSQLiteStore(ctx, cfg.SQLitePath)
	case "postgres":
		return history.NewPostgresStore(ctx, cfg.PostgresDSN)
	case "mongo":
		return history.NewMongoStore(ctx, cfg.MongoURI, "agent", "conversations")
	case "akave":
		return history.NewAkaveStore(ctx, cfg.AkaveBaseURL, "chat-history", log)
	default:
		return history.NewMemoryStore(), nil
	}
}

func newBackend(ctx context.Context, cfg *config.Config, ollama *models.Ollama) (models.Backend, error) {
	switch cfg.ModelProvider {
	case "openai":
		return models.NewOpenAI(cfg.OpenAIKey, cfg.OllamaModel), nil
	case "anthropic":
		return models.NewAnthropic(cfg.AnthropicKey, cfg.OllamaModel), nil
	case "gemini":
		return models.NewGemini(ctx, cfg.GeminiKey, cfg.OllamaModel)
	default:
		return ollama, nil
	}
}
