package consumers

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"fiatrouter/internal/domain/message"
	"fiatrouter/internal/metrics"
	"fiatrouter/pkg/logger"
	"fiatrouter/pkg/reconnect"
)

// readBackoff paces retries while the broker is unreachable
var readBackoff = reconnect.Config{
	MinBackoff:        100 * time.Millisecond,
	MaxBackoff:        10 * time.Second,
	BackoffMultiplier: 2,
	MaxRetries:        20,
	CircuitResetAfter: time.Minute,
}

// MessageReader is the read side of a Kafka consumer
type MessageReader interface {
	ReadMessageWithShutdownCheck(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// EnvelopeHandler processes one decoded inbox message
type EnvelopeHandler interface {
	Handle(ctx context.Context, env *message.Envelope) error
}

// InboxConsumer reads this agent's inbox topic and hands every envelope to the
// handler, one at a time, in arrival order
type InboxConsumer struct {
	reader  MessageReader
	handler EnvelopeHandler
	address string
	timeout time.Duration
	backoff *reconnect.Manager
	log     *logger.Logger
}

// NewInboxConsumer creates a new inbox consumer. timeout bounds each handler
// call; zero means no per-message limit.
func NewInboxConsumer(
	reader MessageReader,
	handler EnvelopeHandler,
	address string,
	timeout time.Duration,
	log *logger.Logger,
) *InboxConsumer {
	log = log.With("component", "inbox_consumer")
	return &InboxConsumer{
		reader:  reader,
		handler: handler,
		address: address,
		timeout: timeout,
		backoff: reconnect.NewManager(readBackoff, log),
		log:     log,
	}
}

// Start consumes until ctx is cancelled, then closes the reader
func (ic *InboxConsumer) Start(ctx context.Context) error {
	ic.log.Infow("Starting inbox consumer...", "address", ic.address)

	defer func() {
		ic.log.Info("Closing inbox consumer...")
		if err := ic.reader.Close(); err != nil {
			ic.log.Errorw("Failed to close inbox consumer", "error", err)
		} else {
			ic.log.Info("✓ Inbox consumer closed")
		}
	}()

	for {
		msg, err := ic.reader.ReadMessageWithShutdownCheck(ctx)
		if err != nil {
			if ctx.Err() != nil {
				ic.log.Info("Inbox consumer stopped (context cancelled)")
				return nil
			}

			metrics.RecordKafkaMessage("in", err)
			ic.log.Errorw("Failed to read message", "error", err)
			ic.backoff.RecordFailure()
			if err := ic.backoff.Wait(ctx); err != nil {
				ic.log.Info("Inbox consumer stopped (context cancelled)")
				return nil
			}
			continue
		}
		metrics.RecordKafkaMessage("in", nil)
		ic.backoff.RecordSuccess()

		ic.process(ctx, msg)
	}
}

func (ic *InboxConsumer) process(ctx context.Context, msg kafkago.Message) {
	env, err := message.Decode(msg.Value)
	if err != nil {
		metrics.RecordInboxMessage("malformed", 0, err)
		ic.log.Warnw("Dropping malformed message", "offset", msg.Offset, "error", err)
		return
	}

	if env.Recipient != "" && env.Recipient != ic.address {
		metrics.RecordInboxMessage("misrouted", 0, nil)
		ic.log.Warnw("Dropping message addressed to another agent",
			"recipient", env.Recipient,
			"sender", env.Sender,
			"type", env.Type,
		)
		return
	}

	hctx := ctx
	if ic.timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, ic.timeout)
		defer cancel()
	}

	start := time.Now()
	err = ic.handler.Handle(hctx, env)
	metrics.RecordInboxMessage(string(env.Type), time.Since(start), err)

	if err != nil {
		ic.log.Errorw("Failed to handle inbox message",
			"type", env.Type,
			"sender", env.Sender,
			"envelope_id", env.ID,
			"offset", msg.Offset,
			"error", err,
		)
	}
}
