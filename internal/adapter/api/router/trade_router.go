package router

import (
	"apptrueq/internal/adapter/api/handler"
	"apptrueq/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupTradeRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	tradeHandler := handler.GetTradeHandler()

	trades := e.Group("/v1/trades")
	trades.Use(authMiddleware.Authenticate)

	trades.GET("", tradeHandler.ListMyTrades)
	trades.GET("/:id", tradeHandler.GetTrade)
}
