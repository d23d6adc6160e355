package repository

import (
	"context"

	"apptrueq/internal/domain/entity"
	"apptrueq/pkg/stream"
)

type NotificationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.NotificationItem, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]*entity.NotificationItem, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id string) error
	// MarkAllRead returns how many items changed.
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	WatchByRecipient(ctx context.Context, recipientID string) <-chan stream.Snapshot[*entity.NotificationItem]
}
