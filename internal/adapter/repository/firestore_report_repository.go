package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/pkg/errors"
)

const errReportPending = "You already reported this and it is still under review"

type firestoreReportRepository struct {
	client *firestore.Client
}

func NewFirestoreReportRepository(client *firestore.Client) repository.ReportRepository {
	return &firestoreReportRepository{
		client: client,
	}
}

func (r *firestoreReportRepository) Create(ctx context.Context, report *entity.Report) error {
	reports := r.client.Collection(collectionReports)
	if report.ID == "" {
		report.ID = reports.NewDoc().ID
	}
	ref := reports.Doc(report.ID)
	lockRef := r.client.Collection(collectionReportLocks).Doc(report.LockID())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		lock, err := tx.Get(lockRef)
		if err == nil && lock.Exists() {
			return errors.Conflict(errReportPending)
		}
		if err != nil && !IsNotFound(err) {
			return errors.Internal("Failed to check existing report", err)
		}

		if err := tx.Create(lockRef, entity.ReportLock{
			ID:        lockRef.ID,
			ReportID:  report.ID,
			CreatedAt: report.CreatedAt,
		}); err != nil {
			return err
		}
		return tx.Create(ref, report)
	})
	if err != nil {
		return translateTxError(err, errReportPending, "Failed to create report")
	}
	return nil
}

func (r *firestoreReportRepository) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	return getDoc[entity.Report](ctx, r.client.Collection(collectionReports).Doc(id), "Report")
}

func (r *firestoreReportRepository) List(ctx context.Context, status entity.ReportStatus, limit, offset int) ([]*entity.Report, int64, error) {
	query := r.client.Collection(collectionReports).Query
	if status != "" {
		query = query.Where("status", "==", status)
	}

	total, err := countQuery(ctx, query, "reports")
	if err != nil {
		return nil, 0, err
	}

	query = query.OrderBy("createdAt", firestore.Desc)
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	reports, err := queryAll[entity.Report](ctx, query, "reports")
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *firestoreReportRepository) Resolve(ctx context.Context, id string, status entity.ReportStatus, moderatorID, resolution string, notification *entity.NotificationItem) (*entity.Report, error) {
	ref := r.client.Collection(collectionReports).Doc(id)

	var resolved *entity.Report
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		resolved = nil

		doc, err := tx.Get(ref)
		if err != nil {
			if IsNotFound(err) {
				return errors.NotFound("Report", err)
			}
			return errors.Internal("Failed to get report", err)
		}

		var report entity.Report
		if err := doc.DataTo(&report); err != nil {
			return errors.Internal("Failed to parse report data", err)
		}
		if report.Status.Terminal() {
			return errors.Conflict("Report already resolved")
		}

		now := time.Now()
		report.Status = status
		report.ResolvedBy = moderatorID
		report.Resolution = resolution
		report.ResolvedAt = &now

		if err := tx.Set(ref, &report); err != nil {
			return err
		}
		if err := tx.Delete(r.client.Collection(collectionReportLocks).Doc(report.LockID())); err != nil {
			return err
		}

		if notification != nil {
			notification.RecipientID = report.ReporterID
			prepareNotification(notification, report.ID, now)
			if err := tx.Create(r.client.Collection(collectionNotifications).Doc(notification.ID), notification); err != nil {
				return err
			}
		}

		resolved = &report
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.Internal("Failed to resolve report", err)
	}
	return resolved, nil
}
