package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/llm-proxy-admin/internal/queue"
)

// Publisher sends audit events to the auth.events queue. It is best-effort:
// every error is logged and returned, and callers ignore failures so a
// broker outage never fails an auth operation. A nil *Publisher is valid
// and drops all events.
type Publisher struct {
	url string
	log *slog.Logger
}

func NewPublisher(url string, log *slog.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Publish declares the durable queue and sends one persistent message. The
// connection is per-call; audit volume is a handful of events per admin
// action, not a hot path.
func (p *Publisher) Publish(ctx context.Context, event queue.AuthEvent) error {
	if p == nil {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("audit publish: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("audit publish: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.AuthEventQueue, true, false, false, false, nil); err != nil {
		p.log.Warn("audit publish: queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("audit publish: marshal failed", "error", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.AuthEventQueue, false, false, pub); err != nil {
		p.log.Warn("audit publish: publish failed", "error", err)
		return err
	}
	return nil
}

// emit builds and publishes an audit event, already masked.
func (p *Publisher) emit(ctx context.Context, kind, maskedEmail string) {
	if p == nil {
		return
	}
	_ = p.Publish(ctx, queue.AuthEvent{
		Kind:       kind,
		Email:      maskedEmail,
		OccurredAt: time.Now().UTC(),
	})
}
