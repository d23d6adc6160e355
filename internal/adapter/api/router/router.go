package router

import (
	"apptrueq/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, moderatorMiddleware *middleware.ModeratorMiddleware) {
	SetupUserRouter(e, authMiddleware)
	SetupPublicationRouter(e, authMiddleware)
	SetupProposalRouter(e, authMiddleware)
	SetupTradeRouter(e, authMiddleware)
	SetupNotificationRouter(e, authMiddleware)
	SetupReportRouter(e, authMiddleware, moderatorMiddleware)
	SetupHealthRouter(e)
}
