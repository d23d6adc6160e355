package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.UserProfile) (*entity.UserProfile, error) {
	ref := r.client.Collection(collectionUsers).Doc(user.ID)

	var stored *entity.UserProfile
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		stored = nil

		doc, err := tx.Get(ref)
		if err == nil && doc.Exists() {
			var existing entity.UserProfile
			if err := doc.DataTo(&existing); err != nil {
				return errors.Internal("Failed to parse user data", err)
			}
			stored = &existing
			return nil
		}
		if err != nil && !IsNotFound(err) {
			return errors.Internal("Failed to get user", err)
		}

		now := time.Now()
		user.CreatedAt = now
		user.UpdatedAt = now
		if user.Role == "" {
			user.Role = entity.RoleUser
		}
		stored = user
		return tx.Create(ref, user)
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.Internal("Failed to create user", err)
	}
	return stored, nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.UserProfile, error) {
	return getDoc[entity.UserProfile](ctx, r.client.Collection(collectionUsers).Doc(id), "User")
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.UserProfile) error {
	user.UpdatedAt = time.Now()

	// role and identity fields are never written from here
	updateData := map[string]interface{}{
		"displayName": user.DisplayName,
		"photoUrl":    user.PhotoURL,
		"location":    user.Location,
		"updatedAt":   user.UpdatedAt,
	}

	_, err := r.client.Collection(collectionUsers).Doc(user.ID).Set(ctx, updateData, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update user", err)
	}
	return nil
}
