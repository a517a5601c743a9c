package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaBatchTimeout bounds how long a synchronous write waits for its batch
// to fill. kafka-go defaults to one second.
const kafkaBatchTimeout = 10 * time.Millisecond

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: newKafkaWriter(brokers, topic)}
}

func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: kafkaBatchTimeout,
		WriteTimeout: 2 * time.Second,
	}
}

// Publish keys messages by event type and entity so updates to one entity
// stay on one partition.
func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	b, err := e.body()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Type, err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   e.key(),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
