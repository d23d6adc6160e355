package router

import (
	"apptrueq/internal/adapter/api/handler"
	"apptrueq/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupPublicationRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	publicationHandler := handler.GetPublicationHandler()
	proposalHandler := handler.GetProposalHandler()

	publications := e.Group("/v1/publications")

	publications.GET("", publicationHandler.ExplorePublications, authMiddleware.OptionalAuth)
	publications.GET("/:id", publicationHandler.GetPublication)
	publications.POST("", publicationHandler.CreatePublication, authMiddleware.Authenticate)
	publications.POST("/images", publicationHandler.UploadImage, authMiddleware.Authenticate)
	publications.GET("/:id/proposals", proposalHandler.ListForPublication, authMiddleware.Authenticate)

	e.GET("/v1/my-publications", publicationHandler.ListMyPublications, authMiddleware.Authenticate)
}
