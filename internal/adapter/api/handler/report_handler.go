package handler

import (
	"github.com/labstack/echo/v4"

	"apptrueq/internal/usecase"
	"apptrueq/pkg/response"
	"apptrueq/pkg/utils"
)

type ReportHandler struct {
	reportUseCase *usecase.ReportUseCase
}

func NewReportHandler(reportUseCase *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{
		reportUseCase: reportUseCase,
	}
}

type createReportRequest struct {
	TargetType  string `json:"target_type" validate:"required,oneof=PUBLICATION USER PROPOSAL"`
	TargetID    string `json:"target_id" validate:"required"`
	Reason      string `json:"reason" validate:"required,oneof=SPAM FRAUD INAPPROPRIATE OTHER"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

type resolveReportRequest struct {
	Status     string `json:"status" validate:"required,oneof=RESOLVED DISMISSED"`
	Resolution string `json:"resolution" validate:"omitempty,max=500"`
}

func (h *ReportHandler) CreateReport(c echo.Context) error {
	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	report, err := h.reportUseCase.Create(c.Request().Context(), currentUser(c), usecase.CreateReportInput{
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, report)
}

func (h *ReportHandler) ListReports(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	reports, total, err := h.reportUseCase.List(c.Request().Context(), c.QueryParam("status"), pagination)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, reports, total, pagination.Page, pagination.PageSize)
}

func (h *ReportHandler) ResolveReport(c echo.Context) error {
	var req resolveReportRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	report, err := h.reportUseCase.Resolve(c.Request().Context(), currentUser(c), c.Param("id"), req.Status, req.Resolution)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, report)
}
