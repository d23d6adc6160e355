package router

import (
	"github.com/labstack/echo/v4"

	"apptrueq/internal/adapter/api/handler"
	"apptrueq/internal/adapter/api/middleware"
)

// SetupWebSocketRouter sets up the live list endpoint. The token travels in
// the query string because browsers cannot set headers on the handshake.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/ws", wsHandler.HandleWebSocket, authMiddleware.AuthenticateQuery)
}
