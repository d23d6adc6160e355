package usecase

import (
	"context"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/utils"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationUseCase(notificationRepo repository.NotificationRepository) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
	}
}

func (uc *NotificationUseCase) List(ctx context.Context, userID string, unreadOnly bool, page utils.PaginationParams) ([]*entity.NotificationItem, int64, error) {
	items, err := uc.notificationRepo.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	items = notificationView(unreadOnly)([][]*entity.NotificationItem{items})
	start, end := page.Window(len(items))
	return items[start:end], int64(len(items)), nil
}

func (uc *NotificationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead is idempotent: an already read item is returned unchanged.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, id string) (*entity.NotificationItem, error) {
	item, err := uc.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.RecipientID != userID {
		// don't reveal other users' notifications
		return nil, errors.NotFound("Notification", nil)
	}
	if item.IsRead {
		return item, nil
	}

	if err := uc.notificationRepo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	item.IsRead = true
	return item, nil
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, userID string) (int, error) {
	updated, err := uc.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return updated, err
	}
	logger.Debug("Marked %d notifications read for %s", updated, userID)
	return updated, nil
}
