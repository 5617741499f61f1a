package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Providers understood by the chat-model factory.
const (
	ProviderTogether  = "together"
	ProviderAnthropic = "anthropic"
)

// Session store backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
	SessionMongo  = "mongo"
)

// Config carries every runtime knob for the fraud analysis agent. It is
// loaded once at process start and passed by reference to the components
// that need it; nothing reads the environment after Load returns.
type Config struct {
	// Generation backend
	LLMProvider     string  `envconfig:"FRAUDLENS_LLM_PROVIDER" default:"together"`
	TogetherAPIKey  string  `envconfig:"TOGETHER_API_KEY"`
	AnthropicAPIKey string  `envconfig:"ANTHROPIC_API_KEY"`
	LLMBaseURL      string  `envconfig:"FRAUDLENS_LLM_BASE_URL" default:"https://api.together.xyz/v1"`
	PrimaryModel    string  `envconfig:"PRIMARY_MODEL" default:"meta-llama/Meta-Llama-3.1-405B-Instruct-Turbo"`
	RoutingModel    string  `envconfig:"ROUTING_MODEL" default:"meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo"`
	EmbeddingModel  string  `envconfig:"EMBEDDING_MODEL" default:"togethercomputer/m2-bert-80M-8k-retrieval"`
	EmbeddingDim    int     `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	Temperature     float64 `envconfig:"FRAUDLENS_TEMPERATURE" default:"0.1"`

	// PostgreSQL (fraud_transactions table and pgvector passages)
	PostgresHost     string        `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int           `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string        `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string        `envconfig:"POSTGRES_PASSWORD"`
	PostgresDB       string        `envconfig:"POSTGRES_DB" default:"fraudlens"`
	PostgresSSLMode  string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	QueryTimeout     time.Duration `envconfig:"SQL_QUERY_TIMEOUT" default:"10s"`

	// Conversation transcript store
	SessionBackend  string `envconfig:"SESSION_BACKEND" default:"memory"`
	RedisAddr       string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	RedisDB         int    `envconfig:"REDIS_DB" default:"0"`
	MongoURI        string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDatabase   string `envconfig:"MONGODB_DB" default:"fraudlens"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"transcripts"`

	// Telemetry
	DisableTelemetry bool   `envconfig:"FRAUDLENS_DISABLE_TELEMETRY" default:"false"`
	Environment      string `envconfig:"FRAUDLENS_ENV" default:"development"`
}

// Load reads configuration from the environment, honouring a local .env file
// when present, and validates the result.
func Load() (*Config, error) {
	// Missing .env is fine; explicit environment variables win either way.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field consistency of the loaded configuration.
func (c *Config) Validate() error {
	v := NewValidator()

	v.ValidateOneOf("FRAUDLENS_LLM_PROVIDER", c.LLMProvider, ProviderTogether, ProviderAnthropic)
	switch c.LLMProvider {
	case ProviderTogether:
		v.RequireNonEmpty("TOGETHER_API_KEY", c.TogetherAPIKey)
	case ProviderAnthropic:
		v.RequireNonEmpty("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	}
	// Embeddings always go through the OpenAI-compatible endpoint.
	v.RequireNonEmpty("TOGETHER_API_KEY (embeddings)", c.TogetherAPIKey)
	v.RequireNonEmpty("PRIMARY_MODEL", c.PrimaryModel)
	v.RequireNonEmpty("ROUTING_MODEL", c.RoutingModel)
	v.RequireNonEmpty("EMBEDDING_MODEL", c.EmbeddingModel)
	v.RequirePositive("EMBEDDING_DIMENSIONS", c.EmbeddingDim)

	v.RequireNonEmpty("POSTGRES_HOST", c.PostgresHost)
	v.ValidatePort("POSTGRES_PORT", c.PostgresPort)
	v.RequireNonEmpty("POSTGRES_USER", c.PostgresUser)
	v.RequireNonEmpty("POSTGRES_DB", c.PostgresDB)
	v.ValidateOneOf("POSTGRES_SSLMODE", c.PostgresSSLMode, "disable", "require", "verify-ca", "verify-full")

	v.ValidateOneOf("SESSION_BACKEND", c.SessionBackend, SessionMemory, SessionRedis, SessionMongo)
	if c.SessionBackend == SessionRedis {
		v.RequireNonEmpty("REDIS_ADDR", c.RedisAddr)
		v.ValidateRange("REDIS_DB", c.RedisDB, 0, 15)
	}
	if c.SessionBackend == SessionMongo {
		v.RequireNonEmpty("MONGODB_URI", c.MongoURI)
		v.RequireNonEmpty("MONGODB_DB", c.MongoDatabase)
		v.RequireNonEmpty("MONGODB_COLLECTION", c.MongoCollection)
	}

	return v.Error()
}
