package ai

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// OpenAIClient talks to the OpenAI chat completions API or any compatible endpoint
type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

// NewOpenAIClient creates an OpenAI client. baseURL is optional.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "openai API key is required")
	}
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
		log:     logger.Get().With("component", "openai_chat", "model", model),
	}, nil
}

// Name returns provider name
func (c *OpenAIClient) Name() string { return ProviderOpenAI }

// Complete sends one system + user turn and returns the first choice
func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.Wrapf(errors.ErrInvalidInput, "prompt cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", errors.Wrapf(errors.ErrExternal, "openai chat completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrapf(errors.ErrExternal, "openai returned no choices")
	}

	c.log.Debugw("Completion received",
		"prompt_length", len(prompt),
		"tokens_used", resp.Usage.TotalTokens,
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
