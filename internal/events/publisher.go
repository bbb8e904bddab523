// Package events publishes bulk mutation outcomes for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventTypeBatchCompleted = "CatalogBatchCompleted"

type BatchEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   BatchPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type BatchPayload struct {
	Action    string            `json:"action"`
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// Publisher sends batch outcomes. Implementations must not fail the batch
// they describe; errors are for logging only.
type Publisher interface {
	PublishBatch(ctx context.Context, action string, succeeded []string, failed map[string]error) error
	Close() error
}

func NewBatchEvent(action string, succeeded []string, failed map[string]error, at time.Time) BatchEvent {
	p := BatchPayload{Action: action, Succeeded: make([]string, len(succeeded))}
	for i, id := range succeeded {
		p.Succeeded[i] = identity.Normalize(id)
	}
	if len(failed) > 0 {
		p.Failed = make(map[string]string, len(failed))
		for id, err := range failed {
			p.Failed[identity.Normalize(id)] = err.Error()
		}
	}
	return BatchEvent{
		EventID:   uuid.New().String(),
		EventType: EventTypeBatchCompleted,
		Payload:   p,
		Timestamp: at,
	}
}

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
	logger logger.ZapLogger
	now    func() time.Time
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer MessageWriter, log logger.ZapLogger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: log, now: time.Now}
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, action string, succeeded []string, failed map[string]error) error {
	event := NewBatchEvent(action, succeeded, failed, p.now().UTC())
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(action),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		p.logger.Error("Failed to publish batch event", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishBatch(context.Context, string, []string, map[string]error) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
