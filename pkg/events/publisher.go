// Package events publishes ledger mutations to an AMQP topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"finledger/pkg/ledger"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const publishTimeout = 5 * time.Second

// channel is the part of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher is a ledger.Notifier sending one message per mutation. Consumers bind with
// patterns such as "expense.*" or "*.deleted".
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       channel
	exchange string
}

var _ ledger.Notifier = (*AMQPPublisher)(nil)

// Dial connects to the broker and declares the durable topic exchange.
func Dial(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// RoutingKey is "<kind>.<action>", e.g. "saving.created".
func RoutingKey(e ledger.Event) string {
	return string(e.Kind) + "." + string(e.Action)
}

func (p *AMQPPublisher) Notify(ctx context.Context, e ledger.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(
		ctx,
		p.exchange,    // exchange
		RoutingKey(e), // routing key
		false,         // mandatory
		false,         // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    e.At,
			MessageId:    e.RecordID,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	zerolog.Ctx(ctx).Debug().
		Str("exchange", p.exchange).
		Str("routing_key", RoutingKey(e)).
		Msg("record event published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
