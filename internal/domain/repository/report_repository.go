package repository

import (
	"context"

	"apptrueq/internal/domain/entity"
)

type ReportRepository interface {
	// Create assigns a fresh id to every filing and fails with CONFLICT while the
	// reporter has a pending report on the same target.
	Create(ctx context.Context, report *entity.Report) error
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context, status entity.ReportStatus, limit, offset int) ([]*entity.Report, int64, error)
	// Resolve closes a pending report, releases its lock and stores the reporter
	// notification in the same transaction.
	Resolve(ctx context.Context, id string, status entity.ReportStatus, moderatorID, resolution string, notification *entity.NotificationItem) (*entity.Report, error)
}
