package service

import (
	"context"
	"log/slog"
	"time"

	"guildkeeper/internal/notifications"
)

// EventPublisher delivers account and content events.
type EventPublisher interface {
	PublishUser(ctx context.Context, userID string, e notifications.Event) error
	PublishBroadcast(ctx context.Context, e notifications.Event) error
}

// events publishes best effort. A failed publish is logged and never fails the request.
type events struct {
	pub EventPublisher
}

const publishTimeout = 2 * time.Second

func (e events) toUser(ctx context.Context, userID string, ev notifications.Event) {
	if e.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := e.pub.PublishUser(ctx, userID, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "type", ev.Type, "user_id", userID, "error", err)
	}
}

func (e events) broadcast(ctx context.Context, ev notifications.Event) {
	if e.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := e.pub.PublishBroadcast(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "type", ev.Type, "error", err)
	}
}
