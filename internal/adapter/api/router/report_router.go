package router

import (
	"apptrueq/internal/adapter/api/handler"
	"apptrueq/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupReportRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, moderatorMiddleware *middleware.ModeratorMiddleware) {
	reportHandler := handler.GetReportHandler()

	e.POST("/v1/reports", reportHandler.CreateReport, authMiddleware.Authenticate)

	moderation := e.Group("/v1/moderation/reports")
	moderation.Use(authMiddleware.Authenticate)
	moderation.Use(moderatorMiddleware.ModeratorOnly)

	moderation.GET("", reportHandler.ListReports)
	moderation.POST("/:id/resolve", reportHandler.ResolveReport)
}
