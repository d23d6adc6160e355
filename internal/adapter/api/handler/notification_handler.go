package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"apptrueq/internal/usecase"
	"apptrueq/pkg/response"
	"apptrueq/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	unreadOnly, _ := strconv.ParseBool(c.QueryParam("unread"))
	pagination := utils.GetPaginationParams(c)

	items, total, err := h.notificationUseCase.List(c.Request().Context(), currentUser(c), unreadOnly, pagination)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, items, total, pagination.Page, pagination.PageSize)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	count, err := h.notificationUseCase.UnreadCount(c.Request().Context(), currentUser(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int64{
		"count": count,
	})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	item, err := h.notificationUseCase.MarkRead(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, item)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	updated, err := h.notificationUseCase.MarkAllRead(c.Request().Context(), currentUser(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{
		"updated": updated,
	})
}
