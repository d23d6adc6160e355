package router

import (
	"apptrueq/internal/adapter/api/handler"
	"apptrueq/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupProposalRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	proposalHandler := handler.GetProposalHandler()

	proposals := e.Group("/v1/proposals")
	proposals.Use(authMiddleware.Authenticate)

	proposals.POST("", proposalHandler.SubmitProposal)
	proposals.GET("/sent", proposalHandler.ListSent)
	proposals.GET("/received", proposalHandler.ListReceived)
	proposals.GET("/:id", proposalHandler.GetProposal)
	proposals.POST("/:id/accept", proposalHandler.AcceptProposal)
	proposals.POST("/:id/reject", proposalHandler.RejectProposal)
}
