package ai

import (
	"context"
	"strings"

	"fiatrouter/internal/adapters/config"
	"fiatrouter/pkg/errors"
)

// NewClient builds the configured language model client, rate limited.
func NewClient(ctx context.Context, cfg config.AIConfig) (Client, error) {
	var (
		client Client
		err    error
	)

	switch NormalizeProviderName(cfg.Provider) {
	case ProviderOpenAI:
		client, err = NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIURL, cfg.Model, cfg.Timeout)
	case ProviderGemini:
		client, err = NewGeminiClient(ctx, cfg.GeminiKey, cfg.Model, cfg.Timeout)
	case ProviderNone, "":
		return DisabledClient{}, nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown AI provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewRateLimitedClient(client, cfg.ReqPerMinute, cfg.Burst), nil
}

// NormalizeProviderName makes provider lookup more forgiving.
func NormalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
