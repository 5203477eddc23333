// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"modamarket/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Type names an order lifecycle event.
type Type string

const (
	OrderCreated          Type = "order.created"
	OrderPaymentSubmitted Type = "order.payment_submitted"
	OrderPaymentConfirmed Type = "order.payment_confirmed"
	OrderStatusChanged    Type = "order.status_changed"
	OrderCancelled        Type = "order.cancelled"
)

// Event is the payload published for every successful order transition.
type Event struct {
	Type        Type              `json:"type"`
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserID      uuid.UUID         `json:"userId"`
	VendorID    uuid.UUID         `json:"vendorId"`
	Status      model.OrderStatus `json:"status"`
	ActorID     *uuid.UUID        `json:"actorId,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

// NewEvent builds an event from the order as it stands after the transition.
func NewEvent(t Type, order *model.Order, actor *uuid.UUID) Event {
	return Event{
		Type:        t,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		VendorID:    order.VendorID,
		Status:      order.Status,
		ActorID:     actor,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer MessageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates a Publisher writing JSON messages keyed by order id.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w MessageWriter, logger zerolog.Logger) Publisher {
	return &kafkaPublisher{
		writer: w,
		logger: logger.With().Str("component", "kafka-publisher").Logger(),
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug().
		Str("type", string(event.Type)).
		Str("order_number", event.OrderNumber).
		Msg("event published")
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type logPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a Publisher that only writes events to the log.
func NewLogPublisher(logger zerolog.Logger) Publisher {
	return &logPublisher{logger: logger.With().Str("component", "event-log").Logger()}
}

func (p *logPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.Info().
		Str("type", string(event.Type)).
		Str("order_id", event.OrderID.String()).
		Str("order_number", event.OrderNumber).
		Str("status", string(event.Status)).
		Msg("order event")
	return nil
}

func (p *logPublisher) Close() error {
	return nil
}
