// Package amqp relays invalidation events between server instances through
// a RabbitMQ fanout exchange.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// channel is the subset of *amqp091.Channel the forwarder uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

// Forwarder implements dashboard.EventForwarder. Each instance tags outgoing
// events with its origin id and ignores its own events when consuming.
type Forwarder struct {
	conn     *amqp091.Connection
	ch       channel
	exchange string
	origin   string
	logger   *slog.Logger
}

var _ dashboard.EventForwarder = (*Forwarder)(nil)

// Dial connects to url and declares the fanout exchange.
func Dial(url, exchange, origin string, logger *slog.Logger) (*Forwarder, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	f, err := newForwarder(ch, exchange, origin, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	f.conn = conn
	return f, nil
}

func newForwarder(ch channel, exchange, origin string, logger *slog.Logger) (*Forwarder, error) {
	if exchange == "" {
		return nil, errors.New("amqp: exchange is required")
	}
	if origin == "" {
		return nil, errors.New("amqp: origin is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Forwarder{ch: ch, exchange: exchange, origin: origin, logger: logger}, nil
}

// Forward publishes event to the exchange.
func (f *Forwarder) Forward(ctx context.Context, event dashboard.InvalidationEvent) error {
	event.Origin = f.origin
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = f.ch.PublishWithContext(ctx, f.exchange, "", false, false, amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   event.At,
		AppId:       f.origin,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	f.logger.DebugContext(ctx, "invalidation forwarded", "user_id", event.UserID, "tags", event.Tags)
	return nil
}

// Consume binds an exclusive queue to the exchange and hands events from
// other instances to deliver until ctx is done. Pass the bus's Deliver so
// consumed events are not forwarded again.
func (f *Forwarder) Consume(ctx context.Context, deliver func(dashboard.InvalidationEvent)) error {
	queue, err := f.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := f.ch.QueueBind(queue.Name, "", f.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	msgs, err := f.ch.Consume(queue.Name, f.origin, true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	f.logger.InfoContext(ctx, "consuming invalidation events", "exchange", f.exchange, "queue", queue.Name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("amqp: delivery channel closed")
			}
			var event dashboard.InvalidationEvent
			if err := json.Unmarshal(delivery.Body, &event); err != nil {
				f.logger.ErrorContext(ctx, "failed to unmarshal invalidation event", "error", err)
				continue
			}
			if event.Origin == f.origin {
				continue
			}
			deliver(event)
		}
	}
}

// Close closes the channel and connection.
func (f *Forwarder) Close() error {
	var errs []error
	if f.ch != nil {
		errs = append(errs, f.ch.Close())
	}
	if f.conn != nil {
		errs = append(errs, f.conn.Close())
	}
	return errors.Join(errs...)
}
