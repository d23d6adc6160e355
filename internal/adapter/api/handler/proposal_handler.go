package handler

import (
	"github.com/labstack/echo/v4"

	"apptrueq/internal/domain/repository"
	"apptrueq/internal/usecase"
	"apptrueq/pkg/response"
)

type ProposalHandler struct {
	proposalUseCase *usecase.ProposalUseCase
}

func NewProposalHandler(proposalUseCase *usecase.ProposalUseCase) *ProposalHandler {
	return &ProposalHandler{
		proposalUseCase: proposalUseCase,
	}
}

type offeredItemRequest struct {
	Title       string `json:"title" validate:"required,max=80"`
	Description string `json:"description" validate:"omitempty,max=500"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

// Message length is checked by the use case on the trimmed text.
type submitProposalRequest struct {
	PublicationID        string              `json:"publication_id" validate:"required"`
	Message              string              `json:"message" validate:"required"`
	OfferedPublicationID string              `json:"offered_publication_id"`
	OfferedItem          *offeredItemRequest `json:"offered_item"`
}

func (h *ProposalHandler) SubmitProposal(c echo.Context) error {
	var req submitProposalRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.SubmitProposalInput{
		PublicationID:        req.PublicationID,
		Message:              req.Message,
		OfferedPublicationID: req.OfferedPublicationID,
	}
	if req.OfferedItem != nil {
		input.OfferedItem = &usecase.OfferedItemInput{
			Title:       req.OfferedItem.Title,
			Description: req.OfferedItem.Description,
			ImageURL:    req.OfferedItem.ImageURL,
		}
	}

	proposal, err := h.proposalUseCase.Submit(c.Request().Context(), currentUser(c), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, proposal)
}

func (h *ProposalHandler) GetProposal(c echo.Context) error {
	proposal, err := h.proposalUseCase.Get(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, proposal)
}

func resolutionBody(result *repository.TransitionResult) map[string]interface{} {
	body := map[string]interface{}{
		"proposal": result.Proposal,
	}
	if result.Trade != nil {
		body["trade"] = result.Trade
	}
	return body
}

func (h *ProposalHandler) AcceptProposal(c echo.Context) error {
	result, err := h.proposalUseCase.Accept(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, resolutionBody(result))
}

func (h *ProposalHandler) RejectProposal(c echo.Context) error {
	result, err := h.proposalUseCase.Reject(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, resolutionBody(result))
}

func (h *ProposalHandler) ListSent(c echo.Context) error {
	proposals, err := h.proposalUseCase.ListSent(c.Request().Context(), currentUser(c), c.QueryParam("status"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, proposals)
}

func (h *ProposalHandler) ListReceived(c echo.Context) error {
	proposals, err := h.proposalUseCase.ListReceived(c.Request().Context(), currentUser(c), c.QueryParam("status"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, proposals)
}

func (h *ProposalHandler) ListForPublication(c echo.Context) error {
	proposals, err := h.proposalUseCase.ListForPublication(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, proposals)
}
