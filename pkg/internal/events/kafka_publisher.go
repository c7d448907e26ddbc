package events

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher writes events keyed by poll id, so every event of one
// poll lands on the same partition and keeps its order.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		Compression:  kafka.Snappy,
	}
	return &KafkaPublisher{writer: w}, nil
}

func (v *KafkaPublisher) Publish(ctx context.Context, event PollEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	raw, err := jsoniter.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal poll event: %v", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.PollID),
		Value: raw,
	}
	if err := v.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write poll event to kafka: %v", err)
	}
	return nil
}

func (v *KafkaPublisher) Close() error {
	if err := v.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %v", err)
	}
	return nil
}
