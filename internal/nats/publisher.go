package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// 事件主题后缀
const (
	SubjectHandEnded    = "hand.ended"
	SubjectGameExported = "game.exported"
)

// EventPublisher 以 JSON 发布牌局事件
type EventPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewEventPublisher 创建事件发布器，prefix 为主题前缀，如 "kifu"
func NewEventPublisher(conn *nats.Conn, prefix string) *EventPublisher {
	return &EventPublisher{
		conn:   conn,
		prefix: prefix,
		logger: slog.Default().With("component", "event-publisher"),
	}
}

// Subject 拼接完整主题
func (p *EventPublisher) Subject(event string) string {
	if p.prefix == "" {
		return event
	}
	return p.prefix + "." + event
}

// Publish 发布事件
func (p *EventPublisher) Publish(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.Subject(event)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event", "subject", subject, "error", err)
		return err
	}

	p.logger.Debug("Event published", "subject", subject, "size", len(data))
	return nil
}
