package ai

import (
	"context"

	"golang.org/x/time/rate"

	"fiatrouter/pkg/errors"
)

// RateLimitedClient throttles calls to the wrapped client
type RateLimitedClient struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps next with a token bucket of reqPerMinute and burst.
// A non-positive reqPerMinute disables limiting.
func NewRateLimitedClient(next Client, reqPerMinute float64, burst int) *RateLimitedClient {
	limit := rate.Inf
	if reqPerMinute > 0 {
		limit = rate.Limit(reqPerMinute / 60.0)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Name returns the wrapped provider name
func (c *RateLimitedClient) Name() string { return c.next.Name() }

// Complete waits for a token, then delegates
func (c *RateLimitedClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrapf(err, "rate limiter wait cancelled for provider %s", c.next.Name())
	}
	return c.next.Complete(ctx, system, prompt)
}

// DisabledClient is used when AI_PROVIDER=none
type DisabledClient struct{}

// Name returns provider name
func (DisabledClient) Name() string { return ProviderNone }

// Complete always fails with ErrUnavailable
func (DisabledClient) Complete(context.Context, string, string) (string, error) {
	return "", errors.Wrap(errors.ErrUnavailable, "no language model configured")
}
