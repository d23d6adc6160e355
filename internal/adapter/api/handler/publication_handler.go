package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/service"
	"apptrueq/internal/usecase"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/response"
)

type PublicationHandler struct {
	publicationUseCase *usecase.PublicationUseCase
}

func NewPublicationHandler(publicationUseCase *usecase.PublicationUseCase) *PublicationHandler {
	return &PublicationHandler{
		publicationUseCase: publicationUseCase,
	}
}

type createPublicationRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=80"`
	Description string `json:"description" validate:"required,min=10,max=500"`
	Category    string `json:"category" validate:"required,max=50"`
	Location    string `json:"location" validate:"required,max=100"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Kind        string `json:"kind" validate:"required,oneof=OFFER NEED"`
}

func (h *PublicationHandler) CreatePublication(c echo.Context) error {
	var req createPublicationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	req.Kind = strings.ToUpper(strings.TrimSpace(req.Kind))
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	publication, err := h.publicationUseCase.Create(c.Request().Context(), currentUser(c), usecase.CreatePublicationInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		Kind:        req.Kind,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, publication)
}

func (h *PublicationHandler) GetPublication(c echo.Context) error {
	publication, err := h.publicationUseCase.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, publication)
}

// ExplorePublications works anonymously; a signed-in caller does not see
// their own listings.
func (h *PublicationHandler) ExplorePublications(c echo.Context) error {
	filter := service.PublicationFilter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Location: c.QueryParam("location"),
		Kind:     entity.PublicationKind(strings.ToUpper(c.QueryParam("kind"))),
	}

	publications, err := h.publicationUseCase.Explore(c.Request().Context(), currentUser(c), filter)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, publications)
}

func (h *PublicationHandler) ListMyPublications(c echo.Context) error {
	publications, err := h.publicationUseCase.ListMine(c.Request().Context(), currentUser(c), c.QueryParam("kind"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, publications)
}

func (h *PublicationHandler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.BadRequest("Image file is required", err))
	}

	logger.Debug("Received image: %s, size: %d bytes, type: %s", file.Filename, file.Size, file.Header.Get("Content-Type"))

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read image", err))
	}
	defer src.Close()

	url, err := h.publicationUseCase.UploadImage(c.Request().Context(), currentUser(c), src, file.Header.Get("Content-Type"), file.Size)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, map[string]string{
		"url": url,
	})
}
