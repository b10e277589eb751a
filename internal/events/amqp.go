package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"storefront/internal/config"
)

const RoutingOrderPlaced = "order.placed"

// Channel is the publishing side of an AMQP channel.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPForwarder republishes events to a RabbitMQ topic exchange. Subscribe
// its Handle method on a Bus.
type AMQPForwarder struct {
	mu       sync.Mutex
	ch       Channel
	exchange string
	closer   func() error
}

func NewAMQPForwarder(ch Channel, exchange string) *AMQPForwarder {
	return &AMQPForwarder{ch: ch, exchange: exchange, closer: func() error { return nil }}
}

// DialAMQP connects to RabbitMQ and declares the durable topic exchange.
func DialAMQP(cfg config.MQConfig) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	f := NewAMQPForwarder(ch, cfg.Exchange)
	f.closer = func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return f, nil
}

func (f *AMQPForwarder) Handle(_ context.Context, e OrderPlaced) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ch.Publish(f.exchange, RoutingOrderPlaced, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.AttemptID,
		Timestamp:    e.PlacedAt,
		Body:         body,
	})
}

func (f *AMQPForwarder) Close() error {
	return f.closer()
}
