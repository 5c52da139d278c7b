package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_bazar/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic            = "catalog.products.created"
	EventTypeProductCreated = "product_created"
)

type ProductCreated struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	Images    int       `json:"images"`
	CreatedAt time.Time `json:"created_at"`
}

type Publisher interface {
	PublishProductCreated(ctx context.Context, p *domain.Product) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	payload, err := json.Marshal(ProductCreated{
		ProductID: product.ID,
		Title:     product.Title,
		Category:  product.Category,
		Price:     product.Price,
		Stock:     product.Stock,
		Images:    len(product.Images),
		CreatedAt: product.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal product created event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(product.ID), // product id keeps events of one product ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeProductCreated)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish product created: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishProductCreated(context.Context, *domain.Product) error { return nil }
func (NopPublisher) Close() error                                                { return nil }
