package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "gotransact.events"

	confirmBuffer = 256
)

var (
	ErrPublishNacked = errors.New("message was nacked by broker")
	ErrChannelClosed = errors.New("amqp channel closed")
)

// Channel is the subset of *amqp.Channel the broker uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Broker publishes result events to a durable topic exchange with publisher
// confirms. The topic becomes the routing key.
type Broker struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	confirms chan amqp.Confirmation

	mu      sync.Mutex
	nextTag uint64
}

// Dial connects to url and prepares a confirming channel.
func Dial(url, exchange string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	broker, err := NewBroker(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	broker.conn = conn

	return broker, nil
}

// NewBroker declares the exchange on ch and enables confirm mode.
func NewBroker(ch Channel, exchange string) (*Broker, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable confirm mode: %w", err)
	}

	return &Broker{
		ch:       ch,
		exchange: exchange,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer)),
	}, nil
}

// Send publishes the payload and waits for the broker to confirm it.
func (b *Broker) Send(ctx context.Context, topic, key string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    key,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{"partition-key": key},
		Body:         payload,
	}

	if err := b.ch.PublishWithContext(ctx, b.exchange, topic, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	b.nextTag++

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for confirm: %w", ctx.Err())
		case confirm, ok := <-b.confirms:
			if !ok {
				return ErrChannelClosed
			}
			// Late confirms for publishes that already timed out.
			if confirm.DeliveryTag < b.nextTag {
				continue
			}
			if !confirm.Ack {
				return ErrPublishNacked
			}
			return nil
		}
	}
}

// Close closes the channel and the owned connection.
func (b *Broker) Close() error {
	err := b.ch.Close()
	if b.conn != nil {
		if cerr := b.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
