// Package events carries agent messages over Kafka. Every agent reads its own
// inbox topic; sending means publishing an envelope to the recipient's inbox.
package events

import (
	"context"

	"fiatrouter/internal/adapters/kafka"
	"fiatrouter/internal/domain/message"
	"fiatrouter/internal/metrics"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// Publisher writes raw records to a topic
type Publisher interface {
	PublishBinary(ctx context.Context, topic string, key, value []byte) error
}

// TopicFunc maps an agent address to its inbox topic
type TopicFunc func(address string) string

// KafkaMessenger sends payloads to other agents' inbox topics
type KafkaMessenger struct {
	publisher Publisher
	sender    string
	topicFor  TopicFunc
	log       *logger.Logger
}

// NewKafkaMessenger creates a messenger that signs envelopes as sender
func NewKafkaMessenger(publisher Publisher, sender string, topicFor TopicFunc) *KafkaMessenger {
	return &KafkaMessenger{
		publisher: publisher,
		sender:    sender,
		topicFor:  topicFor,
		log:       logger.Get().With("component", "messenger", "sender", sender),
	}
}

// Send wraps payload in an envelope and publishes it to recipient's inbox.
// Records are keyed by sender so one sender's messages stay ordered.
func (m *KafkaMessenger) Send(ctx context.Context, recipient string, payload message.Payload) error {
	if recipient == "" {
		return errors.NewValidationError("recipient", "must not be empty", recipient)
	}

	env, err := message.NewEnvelope(m.sender, recipient, payload)
	if err != nil {
		return err
	}
	data, err := env.Encode()
	if err != nil {
		return errors.Wrap(err, "encode envelope")
	}

	topic := kafka.TopicName(m.topicFor(recipient))
	err = m.publisher.PublishBinary(ctx, topic, []byte(m.sender), data)
	metrics.RecordKafkaMessage("out", err)
	if err != nil {
		if !errors.Is(err, errors.ErrSendFailed) {
			err = errors.Wrapf(errors.ErrSendFailed, "%v", err)
		}
		return errors.Wrapf(err, "send %s to %s", env.Type, recipient)
	}

	m.log.Debugw("Message sent",
		"recipient", recipient,
		"type", env.Type,
		"envelope_id", env.ID,
	)
	return nil
}
