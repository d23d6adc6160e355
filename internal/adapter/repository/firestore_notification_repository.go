package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/stream"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) GetByID(ctx context.Context, id string) (*entity.NotificationItem, error) {
	return getDoc[entity.NotificationItem](ctx, r.client.Collection(collectionNotifications).Doc(id), "Notification")
}

func (r *firestoreNotificationRepository) byRecipient(recipientID string) firestore.Query {
	return r.client.Collection(collectionNotifications).
		Where("recipientId", "==", recipientID).
		OrderBy("createdAt", firestore.Desc)
}

func (r *firestoreNotificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*entity.NotificationItem, error) {
	return queryAll[entity.NotificationItem](ctx, r.byRecipient(recipientID), "notifications")
}

func (r *firestoreNotificationRepository) unread(recipientID string) firestore.Query {
	return r.client.Collection(collectionNotifications).
		Where("recipientId", "==", recipientID).
		Where("isRead", "==", false)
}

func (r *firestoreNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return countQuery(ctx, r.unread(recipientID), "notifications")
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.client.Collection(collectionNotifications).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isRead", Value: true},
	})
	if err != nil {
		if IsNotFound(err) {
			return errors.NotFound("Notification", err)
		}
		return errors.Internal("Failed to mark notification as read", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	iter := r.unread(recipientID).Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to iterate notifications", err)
		}

		job, err := bw.Update(doc.Ref, []firestore.Update{{Path: "isRead", Value: true}})
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to queue notification update", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	updated := 0
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return updated, errors.Internal("Failed to mark notifications as read", err)
		}
		updated++
	}
	return updated, nil
}

func (r *firestoreNotificationRepository) WatchByRecipient(ctx context.Context, recipientID string) <-chan stream.Snapshot[*entity.NotificationItem] {
	return watchQuery[entity.NotificationItem](ctx, r.byRecipient(recipientID), "notifications")
}
