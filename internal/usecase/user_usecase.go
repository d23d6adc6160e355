package usecase

import (
	"context"
	"strings"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/internal/domain/service"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
)

type UserUseCase struct {
	userRepo repository.UserRepository
	identity service.IdentityService
}

func NewUserUseCase(userRepo repository.UserRepository, identity service.IdentityService) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		identity: identity,
	}
}

type UpdateProfileInput struct {
	DisplayName *string
	PhotoURL    *string
	Location    *string
}

// GetMe returns the caller's profile, creating it from the auth record the
// first time.
func (uc *UserUseCase) GetMe(ctx context.Context, uid string) (*entity.UserProfile, error) {
	if uid == "" {
		return nil, errors.Unauthorized("You must be signed in", nil)
	}

	profile, err := uc.userRepo.GetByID(ctx, uid)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	identity, err := uc.identity.GetIdentity(ctx, uid)
	if err != nil {
		return nil, err
	}

	name := identity.DisplayName
	if name == "" && identity.Email != "" {
		name = strings.Split(identity.Email, "@")[0]
	}

	profile, err = uc.userRepo.Create(ctx, &entity.UserProfile{
		ID:          uid,
		DisplayName: name,
		Email:       identity.Email,
		PhotoURL:    identity.PhotoURL,
		Role:        entity.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Created profile for %s", uid)
	return profile, nil
}

func (uc *UserUseCase) UpdateMe(ctx context.Context, uid string, input UpdateProfileInput) (*entity.UserProfile, error) {
	profile, err := uc.GetMe(ctx, uid)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, errors.Validation("display_name cannot be empty")
		}
		profile.DisplayName = name
	}
	if input.PhotoURL != nil {
		profile.PhotoURL = strings.TrimSpace(*input.PhotoURL)
	}
	if input.Location != nil {
		profile.Location = strings.TrimSpace(*input.Location)
	}

	if err := uc.userRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Get returns the public view of a profile.
func (uc *UserUseCase) Get(ctx context.Context, id string) (*entity.UserProfile, error) {
	profile, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	public := *profile
	public.Email = ""
	return &public, nil
}
