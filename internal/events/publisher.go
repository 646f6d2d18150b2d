// Package events publishes document-generation outcomes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeGenerated = "dispute.document.generated"
	TypeFailed    = "dispute.document.failed"
)

// Outcome is the payload of a generation event.
type Outcome struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id,omitempty"`
	PaymentID  string    `json:"payment_id"`
	Category   string    `json:"category,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	Degraded   []string  `json:"degraded_slots,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits outcome events.
type Publisher interface {
	Publish(ctx context.Context, o Outcome) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes outcomes to one topic, keyed by payment id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher builds a publisher for the given brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}, nil
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, o Outcome) error {
	if o.OccurredAt.IsZero() {
		o.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", o.Type, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(o.PaymentID),
		Value: payload,
		Time:  o.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(o.Type)},
		},
	})
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Outcome) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }

// New returns a Kafka publisher, or Noop when no brokers are configured.
func New(brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		return Noop{}, nil
	}
	return NewKafkaPublisher(brokers, topic)
}
