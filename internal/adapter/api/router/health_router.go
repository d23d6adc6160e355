package router

import (
	"net/http"

	"apptrueq/internal/adapter/api/handler"

	"github.com/labstack/echo/v4"
)

func SetupHealthRouter(e *echo.Echo) {
	healthHandler := handler.GetHealthHandler()
	e.GET("/health", healthHandler.CheckHealth)
}

// SetupMetricsRouter exposes the Prometheus registry.
func SetupMetricsRouter(e *echo.Echo, metricsHandler http.Handler) {
	e.GET("/metrics", echo.WrapHandler(metricsHandler))
}
