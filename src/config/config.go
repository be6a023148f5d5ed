// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port string

	// Model backends.
	ModelProvider string // ollama | openai | anthropic | gemini
	OllamaBaseURL string
	OllamaModel   string
	OpenAIKey     string
	AnthropicKey  string
	GeminiKey     string

	// Lilypad multi-model backend.
	LilypadEndpoint string
	LilypadToken    string

	// Agent registry and payments.
	APIBaseURL      string
	RegistryRPCURL  string
	PaymentRPCURL   string
	RegistryAddress string
	PrivateKey      string

	// Tool data provider.
	OneInchKey     string
	OneInchBaseURL string

	// Chat history persistence.
	HistoryBackend string // memory | sqlite | postgres | mongo | akave
	SQLitePath     string
	PostgresDSN    string
	MongoURI       string
	AkaveBaseURL   string

	CharacterCacheTTL time.Duration
}

// required environment variables; the process refuses to start without them.
var required = []string{
	"OLLAMA_BASE_URL",
	"OLLAMA_MODEL",
	"API_BASE_URL",
	"PRIVATE_KEY",
	"LILYPAD_API_TOKEN",
	"ONEINCH_API_KEY",
}

// Load reads .env (when present) and the environment. It returns an error
// naming every missing required variable so startup logs are actionable.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if missing := Missing(); len(missing) > 0 {
		return nil, errors.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		ModelProvider: strings.ToLower(getEnv("MODEL_PROVIDER", "ollama")),
		OllamaBaseURL: os.Getenv("OLLAMA_BASE_URL"),
		OllamaModel:   os.Getenv("OLLAMA_MODEL"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),

		LilypadEndpoint: getEnv("LILYPAD_ENDPOINT", "https://anura-testnet.lilypad.tech/api/v1"),
		LilypadToken:    os.Getenv("LILYPAD_API_TOKEN"),

		APIBaseURL:      os.Getenv("API_BASE_URL"),
		RegistryRPCURL:  getEnv("REGISTRY_RPC_URL", "https://sepolia.base.org"),
		PaymentRPCURL:   getEnv("PAYMENT_RPC_URL", "https://api.calibration.node.glif.io/rpc/v1"),
		RegistryAddress: getEnv("REGISTRY_ADDRESS", "0x486989cd189ED5DB6f519712eA794Cee42d75b29"),
		PrivateKey:      os.Getenv("PRIVATE_KEY"),

		OneInchKey:     os.Getenv("ONEINCH_API_KEY"),
		OneInchBaseURL: getEnv("ONEINCH_BASE_URL", "https://api.1inch.dev"),

		HistoryBackend: strings.ToLower(getEnv("HISTORY_BACKEND", "memory")),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/history.db"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		AkaveBaseURL:   os.Getenv("AKAVE_API_URL"),

		CharacterCacheTTL: getEnvDuration("CHARACTER_CACHE_TTL", 5*time.Minute),
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Missing returns the names of required variables absent from the environment.
func Missing() []string {
	var missing []string
	for _, name := range required {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func (c *Config) validate() error {
	switch c.ModelProvider {
	case "ollama":
	case "openai":
		if c.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.AnthropicKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.GeminiKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		return errors.Errorf("unknown MODEL_PROVIDER %q", c.ModelProvider)
	}
	switch c.HistoryBackend {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH cannot be empty")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres history backend")
		}
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo history backend")
		}
	case "akave":
		if c.AkaveBaseURL == "" {
			return errors.New("AKAVE_API_URL is required for the akave history backend")
		}
	default:
		return errors.Errorf("unknown HISTORY_BACKEND %q", c.HistoryBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
