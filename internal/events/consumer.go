package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler reacts to one product created event.
type Handler func(ctx context.Context, event ProductCreated) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads product created events from Kafka and hands each one to a
// Handler. Bad payloads and handler failures are logged and skipped.
type Consumer struct {
	reader  messageReader
	handler Handler
	log     *zap.Logger
}

func NewConsumer(handler Handler, log *zap.Logger, topic, groupID string, brokers ...string) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, handler: handler, log: log}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.log.Warn("error reading message", zap.Error(err))
		return
	}

	if t := eventType(m); t != "" && t != EventTypeProductCreated {
		return
	}

	var event ProductCreated
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Warn("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}
	if event.ProductID == "" {
		c.log.Warn("event without product_id", zap.Int64("offset", m.Offset))
		return
	}

	if err := c.handler(ctx, event); err != nil {
		c.log.Warn("product created handler failed", zap.String("product_id", event.ProductID), zap.Error(err))
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
