package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiatrouter/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fiatrouter", cfg.App.Name)
	assert.Equal(t, "fiatrouter-icm", cfg.Agent.Address)
	assert.Equal(t, "agents.inbox.fiatrouter-icm", cfg.Agent.InboxTopic(cfg.Agent.Address))
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Workers.PendingMonitorInterval)
	assert.Equal(t, 5*time.Minute, cfg.Workers.PendingStaleAfter)
	assert.Equal(t, 3*time.Minute, cfg.AI.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AGENT_ADDRESS", "router-a")
	t.Setenv("PEER_PRICE_AGENT_ADDRESS", "coingecko")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("AI_PROVIDER", "gemini")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "router-a", cfg.Agent.Address)
	assert.Equal(t, "agents.inbox.coingecko", cfg.Agent.InboxTopic(cfg.Agent.PeerPriceAddress))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "gemini", cfg.AI.Provider)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{
			name:   "unknown store backend",
			mutate: func(c *Config) { c.Store.Backend = "etcd" },
			field:  "STORE_BACKEND",
		},
		{
			name:   "unknown ai provider",
			mutate: func(c *Config) { c.AI.Provider = "claude" },
			field:  "AI_PROVIDER",
		},
		{
			name:   "peer equals self",
			mutate: func(c *Config) { c.Agent.PeerPriceAddress = c.Agent.Address },
			field:  "PEER_PRICE_AGENT_ADDRESS",
		},
		{
			name:   "no brokers",
			mutate: func(c *Config) { c.Kafka.Brokers = nil },
			field:  "KAFKA_BROKERS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))

			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func validConfig() *Config {
	return &Config{
		Agent: AgentConfig{Address: "self", PeerPriceAddress: "peer"},
		Store: StoreConfig{Backend: "memory"},
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}},
		AI:    AIConfig{Provider: "none"},
	}
}
