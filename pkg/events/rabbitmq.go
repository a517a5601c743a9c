package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher sends events to a durable topic exchange using the event
// type as routing key.
type RabbitMQPublisher struct {
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
	mu       *sync.Mutex
}

func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &RabbitMQPublisher{
		exchange: exchange,
		conn:     conn,
		ch:       ch,
		mu:       &sync.Mutex{},
	}, nil
}

func (r *RabbitMQPublisher) Publish(ctx context.Context, e Event) error {
	body, err := e.body()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Type, err)
	}

	// amqp channels are not safe for concurrent publishing.
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	return r.ch.PublishWithContext(ctx, r.exchange, e.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    string(e.key()),
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
}

func (r *RabbitMQPublisher) Close() error {
	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
