package ai

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// GeminiClient talks to the Gemini API
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

// NewGeminiClient creates a Gemini client
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "gemini API key is required")
	}
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = "gemini-2.0-flash"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
		log:     logger.Get().With("component", "gemini_chat", "model", model),
	}, nil
}

// Name returns provider name
func (c *GeminiClient) Name() string { return ProviderGemini }

// Complete generates content for prompt with system as the system instruction
func (c *GeminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.Wrapf(errors.ErrInvalidInput, "prompt cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", errors.Wrapf(errors.ErrExternal, "gemini generate content: %v", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.Wrapf(errors.ErrExternal, "gemini returned empty content")
	}

	c.log.Debugw("Completion received", "prompt_length", len(prompt))

	return text, nil
}
