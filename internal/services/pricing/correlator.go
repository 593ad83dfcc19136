package pricing

import (
	"context"
	"strings"
	"sync"

	"fiatrouter/internal/domain/pending"
	"fiatrouter/internal/metrics"
	"fiatrouter/internal/services/quote"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// Outcome classifies how a peer reply was handled
type Outcome string

const (
	OutcomeNotAQuote Outcome = "not_a_quote"
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeMatched   Outcome = "matched"
)

// Correlator matches peer quotes against pending requests. One quote
// resolves every request whose token occurs in the reply text.
type Correlator struct {
	// mu serializes scan, dispatch and delete so two replies never
	// complete the same request
	mu sync.Mutex

	store   pending.Store
	chat    CompletionHandler
	trading CompletionHandler
	log     *logger.Logger
}

// NewCorrelator creates a correlator dispatching to the per-kind handlers
func NewCorrelator(store pending.Store, chat, trading CompletionHandler) *Correlator {
	return &Correlator{
		store:   store,
		chat:    chat,
		trading: trading,
		log:     logger.Get().With("component", "correlator"),
	}
}

// HandleReply processes one free-text reply from the peer price agent.
// Completion failures are logged and never abort the pass: every matched
// request is removed from the store whether or not its reply went out.
func (c *Correlator) HandleReply(ctx context.Context, text string) (Outcome, error) {
	q, ok := quote.Parse(strings.TrimSpace(text))
	if !ok {
		metrics.QuotesTotal.WithLabelValues(string(OutcomeNotAQuote)).Inc()
		c.log.Debugw("Peer reply carries no quote", "text", text)
		return OutcomeNotAQuote, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, err := c.store.GetAll(ctx)
	if err != nil {
		return "", errors.Wrap(err, "snapshot pending requests")
	}

	var matched []*pending.Request
	for _, req := range snapshot {
		if !q.Mentions(req.Token) {
			continue
		}
		matched = append(matched, req)

		if err := c.complete(ctx, req, q); err != nil {
			c.log.Errorw("Failed to complete pending request",
				"key", req.Key(),
				"token", req.Token,
				"error", err,
			)
		}
	}

	if len(matched) == 0 {
		metrics.QuotesTotal.WithLabelValues(string(OutcomeNoMatch)).Inc()
		c.log.Infow("Quote matched no pending request", "token", q.Token, "price", q.Price)
		return OutcomeNoMatch, nil
	}

	for _, req := range matched {
		deleted, err := c.store.DeleteIfGeneration(ctx, req.Key(), req.Generation)
		if err != nil {
			c.log.Errorw("Failed to remove completed request", "key", req.Key(), "error", err)
			continue
		}
		if !deleted {
			c.log.Debugw("Request replaced during completion, keeping newer entry", "key", req.Key())
		}
	}

	metrics.QuotesTotal.WithLabelValues(string(OutcomeMatched)).Inc()
	metrics.QuoteFanOut.Observe(float64(len(matched)))
	c.log.Infow("Quote resolved pending requests",
		"token", q.Token,
		"price", q.Price,
		"resolved", len(matched),
	)
	return OutcomeMatched, nil
}

func (c *Correlator) complete(ctx context.Context, req *pending.Request, q quote.Quote) error {
	switch req.Kind {
	case pending.KindChat:
		return c.chat.Complete(ctx, req, q)
	case pending.KindTrading:
		return c.trading.Complete(ctx, req, q)
	default:
		return errors.Wrapf(errors.ErrInvalidInput, "unknown request kind %q", req.Kind)
	}
}
