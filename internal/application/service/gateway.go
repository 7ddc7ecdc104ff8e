package service

import (
	"context"
	"medreminder/internal/domain/entity"
)

// NotificationGateway is the platform capability reminders are registered with.
type NotificationGateway interface {
	// RequestPermission reports whether ownerID may receive reminders.
	RequestPermission(ctx context.Context, ownerID string) (bool, error)
	// Schedule registers a daily trigger and returns its reminder id.
	Schedule(ctx context.Context, ownerID string, trigger entity.Trigger) (string, error)
	// Cancel removes a trigger. Unknown ids are not an error.
	Cancel(ctx context.Context, reminderID string) error
}
