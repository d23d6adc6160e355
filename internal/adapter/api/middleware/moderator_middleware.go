package middleware

import (
	"github.com/labstack/echo/v4"

	"apptrueq/internal/domain/repository"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/response"
)

type ModeratorMiddleware struct {
	userRepo repository.UserRepository
}

func NewModeratorMiddleware(userRepo repository.UserRepository) *ModeratorMiddleware {
	return &ModeratorMiddleware{
		userRepo: userRepo,
	}
}

func (m *ModeratorMiddleware) ModeratorOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid := UserID(c)
		if uid == "" {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		user, err := m.userRepo.GetByID(c.Request().Context(), uid)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return response.Error(c, errors.Forbidden("Moderator privileges required", nil))
			}
			return response.Error(c, errors.Internal("Failed to verify moderator privileges", err))
		}

		if !user.IsModerator() {
			return response.Error(c, errors.Forbidden("Moderator privileges required", nil))
		}

		c.Set("moderator", user)
		return next(c)
	}
}
