package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/llm-proxy-admin/internal/repository"
)

// StartAuditConsumer connects to the broker, declares the auth.events queue
// (durable) and persists every event into the audit table. It runs a
// reconnect loop with capped backoff and keeps running across broker
// restarts; a message that cannot be handled is rejected without requeue so
// the consumer never spins on a poison message.
func StartAuditConsumer(url string, audits *repository.AuditRepo, log *slog.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("audit consumer: dial failed", "error", err, "retry_in", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, audits, log); err != nil {
			log.Warn("audit consumer: loop ended, reconnecting", "error", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, audits *repository.AuditRepo, log *slog.Logger) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("audit consumer: set QoS failed", "error", err)
	}

	if _, err := ch.QueueDeclare(AuthEventQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(AuthEventQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, audits); err != nil {
			log.Warn("audit consumer: handle message failed", "error", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, audits *repository.AuditRepo) error {
	var ev AuthEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := audits.Insert(ctx, ev.Kind, ev.Email, ev.OccurredAt); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
