package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/pkg/logger"
)

const (
	EventShiftClockedIn   = "shift.clocked_in"
	EventShiftClockedOut  = "shift.clocked_out"
	EventInvoiceGenerated = "invoice.generated"
)

// Event is a domain event. Type doubles as the routing key.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type ShiftEventData struct {
	ShiftID   uint      `json:"shift_id"`
	UserID    uint      `json:"user_id"`
	ProjectID uint      `json:"project_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end,omitzero"`
}

type InvoiceEventData struct {
	InvoiceID   uint      `json:"invoice_id"`
	UserID      uint      `json:"user_id"`
	Number      int       `json:"number"`
	AmountCents int64     `json:"amount_cents"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	ShiftCount  int       `json:"shift_count"`
}

// EventPublisher delivers domain events. Publish failures never undo the
// change that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                        { return nil }

// NewEventPublisher returns an AMQP publisher when RabbitMQ is enabled.
func NewEventPublisher(cfg *config.RabbitMQConfig) EventPublisher {
	if cfg == nil || !cfg.Enabled {
		logger.Infof("[Events] RabbitMQ disabled, events will be dropped")
		return NoopPublisher{}
	}
	logger.Infof("[Events] Publishing to exchange %q", cfg.Exchange)
	return NewAMQPPublisher(cfg.URL, cfg.Exchange)
}

// AMQPPublisher publishes persistent JSON messages to a topic exchange.
// The connection is opened on first use and reopened after a failure.
type AMQPPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, exchange string) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: exchange}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		p.exchange,
		event.Type,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// publishQuietly logs instead of returning publish errors.
func publishQuietly(ctx context.Context, pub EventPublisher, eventType string, at time.Time, data interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, Event{Type: eventType, OccurredAt: at, Data: data}); err != nil {
		logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
