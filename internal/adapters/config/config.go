package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"fiatrouter/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Agent         AgentConfig
	Store         StoreConfig
	Redis         RedisConfig
	Postgres      PostgresConfig
	Kafka         KafkaConfig
	AI            AIConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"fiatrouter"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8000"`
}

// AgentConfig identifies this agent and the price-quoting peer on the transport
type AgentConfig struct {
	Address          string        `envconfig:"AGENT_ADDRESS" default:"fiatrouter-icm"`
	PeerPriceAddress string        `envconfig:"PEER_PRICE_AGENT_ADDRESS" default:"agent1qfkgrw7tayq4ng6tpx5azhvxmm3aeug3uf9sm78erm7zp4jk4p26jyms85a"`
	InboxTopicPrefix string        `envconfig:"AGENT_INBOX_TOPIC_PREFIX" default:"agents.inbox."`
	HandlerTimeout   time.Duration `envconfig:"AGENT_HANDLER_TIMEOUT" default:"30s"`
}

// InboxTopic returns the Kafka topic that carries messages addressed to address
func (c AgentConfig) InboxTopic(address string) string {
	return c.InboxTopicPrefix + address
}

// StoreConfig selects the pending-request store backend
type StoreConfig struct {
	Backend string `envconfig:"STORE_BACKEND" default:"redis"` // redis | memory
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	KeySpace string `envconfig:"REDIS_KEYSPACE" default:"fiatrouter"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PostgresConfig backs the optional signal journal
type PostgresConfig struct {
	JournalEnabled bool   `envconfig:"SIGNAL_JOURNAL_ENABLED" default:"false"`
	Host           string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port           int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User           string `envconfig:"POSTGRES_USER" default:"fiatrouter"`
	Password       string `envconfig:"POSTGRES_PASSWORD"`
	Database       string `envconfig:"POSTGRES_DB" default:"fiatrouter"`
	SSLMode        string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns       int    `envconfig:"POSTGRES_MAX_CONNS" default:"5"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"fiatrouter"`
}

// AIConfig configures the language model behind the portfolio analyst
type AIConfig struct {
	Provider     string        `envconfig:"AI_PROVIDER" default:"openai"` // openai | gemini | none
	OpenAIKey    string        `envconfig:"OPENAI_API_KEY"`
	OpenAIURL    string        `envconfig:"OPENAI_BASE_URL"` // OpenAI-compatible endpoints (ASI:One, DeepSeek)
	GeminiKey    string        `envconfig:"GEMINI_API_KEY"`
	Model        string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	ReqPerMinute float64       `envconfig:"AI_REQUESTS_PER_MINUTE" default:"60"`
	Burst        int           `envconfig:"AI_BURST" default:"5"`
	Timeout      time.Duration `envconfig:"AI_TIMEOUT" default:"30s"`
	CacheTTL     time.Duration `envconfig:"AI_CACHE_TTL" default:"3m"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	PendingMonitorInterval time.Duration `envconfig:"WORKER_PENDING_MONITOR_INTERVAL" default:"30s"`
	PendingStaleAfter      time.Duration `envconfig:"WORKER_PENDING_STALE_AFTER" default:"5m"`
	StopTimeout            time.Duration `envconfig:"WORKER_STOP_TIMEOUT" default:"30s"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "redis", "memory":
	default:
		return errors.NewValidationError("STORE_BACKEND", "must be redis or memory", c.Store.Backend)
	}

	switch c.AI.Provider {
	case "openai", "gemini", "none":
	default:
		return errors.NewValidationError("AI_PROVIDER", "must be openai, gemini or none", c.AI.Provider)
	}

	if c.Agent.Address == "" {
		return errors.NewValidationError("AGENT_ADDRESS", "must not be empty", c.Agent.Address)
	}
	if c.Agent.PeerPriceAddress == "" {
		return errors.NewValidationError("PEER_PRICE_AGENT_ADDRESS", "must not be empty", c.Agent.PeerPriceAddress)
	}
	if c.Agent.Address == c.Agent.PeerPriceAddress {
		return errors.NewValidationError("PEER_PRICE_AGENT_ADDRESS", "must differ from AGENT_ADDRESS", c.Agent.PeerPriceAddress)
	}
	if len(c.Kafka.Brokers) == 0 {
		return errors.NewValidationError("KAFKA_BROKERS", "at least one broker is required", c.Kafka.Brokers)
	}

	return nil
}
