package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/internal/repository/publisher"
)

var _ publisher.EventPublisher = (*EventPublisher)(nil)

const (
	ExchangeName = "chalosafe.events"
	QueueName    = "safety_alerts"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type EventPublisher struct {
	mu  sync.Mutex
	ch  channel
	now func() time.Time
}

// Declare sets up the fanout exchange and the durable queue bound to it.
func Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func NewEventPublisher(conn *amqp.Connection) (*EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := Declare(ch); err != nil {
		return nil, err
	}
	return &EventPublisher{ch: ch, now: time.Now}, nil
}

func (p *EventPublisher) PublishAlert(ctx context.Context, alert *domain.Alert) error {
	return p.publish(ctx, domain.EventMessage{
		Type:      domain.EventAlert,
		SubjectID: alert.SubjectID,
		Alert:     alert,
	})
}

func (p *EventPublisher) PublishEmergency(ctx context.Context, e *domain.Emergency) error {
	return p.publish(ctx, domain.EventMessage{
		Type:      domain.EventEmergency,
		SubjectID: e.SubjectID,
		Emergency: e,
	})
}

func (p *EventPublisher) publish(ctx context.Context, msg domain.EventMessage) error {
	msg.PublishedAt = p.now()
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         string(msg.Type),
		Timestamp:    msg.PublishedAt,
		Body:         body,
	})
}
