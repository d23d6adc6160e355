package repository

import (
	"context"

	"apptrueq/internal/domain/entity"
)

type UserRepository interface {
	// Create stores the profile only if none exists and returns the stored one.
	Create(ctx context.Context, user *entity.UserProfile) (*entity.UserProfile, error)
	GetByID(ctx context.Context, id string) (*entity.UserProfile, error)
	Update(ctx context.Context, user *entity.UserProfile) error
}
