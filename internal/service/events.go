package service

import (
	"context"

	"geosocial/internal/middleware"
)

// EventPublisher delivers user-scoped events. notifications.Notifier satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, userID uint, eventType string, payload map[string]interface{}) error
}

// publishEvent is best effort: delivery failures are logged and never fail the caller.
func publishEvent(ctx context.Context, events EventPublisher, userID uint, eventType string, payload map[string]interface{}) {
	if events == nil || userID == 0 {
		return
	}
	if err := events.PublishEvent(ctx, userID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			"type", eventType, "user_id", userID, "error", err)
	}
}
