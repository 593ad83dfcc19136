package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"fiatrouter/pkg/logger"
)

// Consumer handles Kafka message consumption
type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 10e3 // 10KB
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6 // 10MB
	}

	log := logger.Get().With("component", "kafka_consumer", "topic", cfg.Topic)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		// A fresh agent has no use for messages sent before it existed
		StartOffset: kafka.LastOffset,
	})

	log.Infow("Kafka consumer created",
		"brokers", cfg.Brokers,
		"group_id", cfg.GroupID,
		"topic", cfg.Topic,
	)

	return &Consumer{
		reader: reader,
		log:    log,
	}
}

// MessageHandler is a function that processes a message
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// Consume reads messages one at a time and hands each to handler until ctx is
// cancelled. Handler errors are logged and the loop moves on.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	c.log.Infow("Starting consumer")

	for {
		msg, err := c.ReadMessageWithShutdownCheck(ctx)
		if err != nil {
			// Check if shutdown was requested
			if ctx.Err() != nil {
				c.log.Infow("Consumer stopped")
				return ctx.Err()
			}
			c.log.Errorw("Failed to read message", "error", err)
			continue
		}

		c.log.Debugw("Received message", "key", string(msg.Key), "offset", msg.Offset)

		// One bad message never stops the inbox
		if err := handler(ctx, msg); err != nil {
			c.log.Errorw("Failed to handle message", "key", string(msg.Key), "error", err)
		}
	}
}

// ReadMessageWithShutdownCheck reads the next message, checking for shutdown
// before blocking. Returns ctx.Err() once shutdown is requested.
func (c *Consumer) ReadMessageWithShutdownCheck(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	default:
	}

	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return kafka.Message{}, ctx.Err()
		}
		return kafka.Message{}, err
	}

	return msg, nil
}

// Topic returns the topic this consumer reads
func (c *Consumer) Topic() string {
	return c.reader.Config().Topic
}

// Close closes the consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
