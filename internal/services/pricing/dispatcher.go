package pricing

import (
	"context"
	"strings"

	"fiatrouter/internal/domain/message"
	"fiatrouter/internal/domain/pending"
	"fiatrouter/internal/metrics"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// Dispatcher sends price lookups to the peer price agent
type Dispatcher struct {
	store     pending.Store
	messenger Messenger
	peer      string
	log       *logger.Logger
}

// NewDispatcher creates a dispatcher for the peer at peerAddress
func NewDispatcher(store pending.Store, messenger Messenger, peerAddress string) *Dispatcher {
	return &Dispatcher{
		store:     store,
		messenger: messenger,
		peer:      peerAddress,
		log:       logger.Get().With("component", "price_dispatcher"),
	}
}

// LookupText is the question sent to the peer for token
func LookupText(token string) string {
	return "What is the price of " + token + "?"
}

// Request sends one lookup for token. When the send fails every pending
// request for that token is removed, since no reply will ever arrive for it,
// and ErrSendFailed is returned. There is no retry.
func (d *Dispatcher) Request(ctx context.Context, token string) error {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return errors.NewValidationError("token", "must not be empty", token)
	}

	err := d.messenger.Send(ctx, d.peer, message.NewTextChat(LookupText(token), false))
	if err == nil {
		metrics.PriceLookups.WithLabelValues("sent").Inc()
		d.log.Infow("Price lookup sent", "token", token, "peer", d.peer)
		return nil
	}

	metrics.PriceLookups.WithLabelValues("failed").Inc()
	d.log.Errorw("Price lookup send failed", "token", token, "peer", d.peer, "error", err)

	purged := d.purge(ctx, token)
	d.log.Warnw("Purged pending requests for failed lookup", "token", token, "purged", purged)

	return errors.Wrapf(errors.ErrSendFailed, "price lookup for %s: %v", token, err)
}

func (d *Dispatcher) purge(ctx context.Context, token string) int {
	snapshot, err := d.store.GetAll(ctx)
	if err != nil {
		d.log.Errorw("Failed to read pending requests for purge", "token", token, "error", err)
		return 0
	}

	purged := 0
	for _, req := range snapshot {
		if !req.MatchesToken(token) {
			continue
		}
		deleted, err := d.store.DeleteIfGeneration(ctx, req.Key(), req.Generation)
		if err != nil {
			d.log.Errorw("Failed to purge pending request", "key", req.Key(), "error", err)
			continue
		}
		if deleted {
			purged++
		}
	}

	metrics.PurgedRequests.Add(float64(purged))
	return purged
}
