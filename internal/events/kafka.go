package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const producerName = "fulfillment-api"

// KafkaPublisher writes event envelopes to a single Kafka topic, partitioned
// by order id so per-order ordering is preserved. Writes are asynchronous;
// delivery failures are logged, never surfaced to the request path.
type KafkaPublisher struct {
	w  *kafka.Writer
	lg *zap.Logger
}

// NewKafkaPublisher builds a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, lg *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{lg: lg}
	p.w = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				lg.Error("event delivery failed",
					zap.Int("messages", len(messages)),
					zap.Error(err),
				)
			}
		},
	}
	return p
}

// Publish marshals the payload into an envelope and hands it to the async
// writer. Marshal failures are programming errors and are only logged.
func (p *KafkaPublisher) Publish(eventType, orderID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.lg.Error("marshal event payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	env := Envelope{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Producer:   producerName,
		Payload:    raw,
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.lg.Error("marshal event envelope", zap.String("type", eventType), zap.Error(err))
		return
	}

	err = p.w.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(orderID),
		Value: value,
		Time:  env.OccurredAt,
	})
	if err != nil {
		// Async mode only errors synchronously on misconfiguration.
		p.lg.Error("enqueue event", zap.String("type", eventType), zap.Error(err))
	}
}

// Close flushes buffered messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
