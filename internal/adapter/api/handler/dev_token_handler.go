package handler

import (
	"github.com/labstack/echo/v4"

	"apptrueq/internal/domain/service"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/response"
)

type DevTokenHandler struct {
	identity service.IdentityService
}

var devTokenHandler *DevTokenHandler

func NewDevTokenHandler(identity service.IdentityService) *DevTokenHandler {
	return &DevTokenHandler{
		identity: identity,
	}
}

func SetupDevTokenHandler(identity service.IdentityService) {
	devTokenHandler = NewDevTokenHandler(identity)
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}

// GenerateToken mints a custom token for an existing auth user.
func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return response.Error(c, errors.BadRequest("uid is required", nil))
	}

	identity, err := h.identity.GetIdentity(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	token, err := h.identity.GenerateToken(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	logger.Warn("Issued development token for %s", uid)
	return response.Success(c, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":           identity.UID,
			"email":        identity.Email,
			"display_name": identity.DisplayName,
		},
	})
}
