package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/internal/domain/service"
	"apptrueq/internal/infrastructure/ratelimit"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/metrics"
	"apptrueq/pkg/utils"
)

type ReportUseCase struct {
	reportRepo      repository.ReportRepository
	publicationRepo repository.PublicationRepository
	proposalRepo    repository.ProposalRepository
	limiter         RateLimiter
	events          service.EventPublisher
	metrics         *metrics.Metrics
}

func NewReportUseCase(
	reportRepo repository.ReportRepository,
	publicationRepo repository.PublicationRepository,
	proposalRepo repository.ProposalRepository,
	limiter RateLimiter,
	events service.EventPublisher,
	m *metrics.Metrics,
) *ReportUseCase {
	return &ReportUseCase{
		reportRepo:      reportRepo,
		publicationRepo: publicationRepo,
		proposalRepo:    proposalRepo,
		limiter:         limiter,
		events:          events,
		metrics:         m,
	}
}

type CreateReportInput struct {
	TargetType  string
	TargetID    string
	Reason      string
	Description string
}

func (uc *ReportUseCase) Create(ctx context.Context, reporterID string, input CreateReportInput) (*entity.Report, error) {
	if reporterID == "" {
		return nil, errors.Unauthorized("You must be signed in", nil)
	}

	targetType := entity.ReportTargetType(strings.ToUpper(strings.TrimSpace(input.TargetType)))
	reason := entity.ReportReason(strings.ToUpper(strings.TrimSpace(input.Reason)))
	targetID := strings.TrimSpace(input.TargetID)

	switch reason {
	case entity.ReasonSpam, entity.ReasonFraud, entity.ReasonInappropriate, entity.ReasonOther:
	default:
		return nil, errors.Validation("reason must be one of: SPAM FRAUD INAPPROPRIATE OTHER")
	}
	if targetID == "" {
		return nil, errors.Validation("target_id is required")
	}

	if err := uc.checkTarget(ctx, reporterID, targetType, targetID); err != nil {
		return nil, err
	}

	if ok, wait := uc.limiter.Allow(reporterID, ratelimit.ActionCreateReport); !ok {
		return nil, errors.TooManyRequests(fmt.Sprintf("Too many reports, try again in %d seconds", waitSeconds(wait)))
	}

	report := &entity.Report{
		ReporterID:  reporterID,
		TargetType:  targetType,
		TargetID:    targetID,
		Reason:      reason,
		Description: strings.TrimSpace(input.Description),
		Status:      entity.ReportPending,
		CreatedAt:   time.Now(),
	}

	if err := uc.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	logger.Info("Report %s created by %s", report.ID, reporterID)
	if uc.metrics != nil {
		uc.metrics.Reports.WithLabelValues(string(report.Status)).Inc()
	}
	if err := uc.events.PublishJSON(ctx, service.SubjectReportCreated, report); err != nil {
		logger.LogSideEffectError(report.ID, service.SubjectReportCreated, err)
	}

	return report, nil
}

// checkTarget makes sure the target exists and is not the reporter's own.
func (uc *ReportUseCase) checkTarget(ctx context.Context, reporterID string, targetType entity.ReportTargetType, targetID string) error {
	switch targetType {
	case entity.ReportTargetUser:
		if targetID == reporterID {
			return errors.BadRequest("You cannot report yourself", nil)
		}
	case entity.ReportTargetPublication:
		publication, err := uc.publicationRepo.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if publication.OwnerID == reporterID {
			return errors.BadRequest("You cannot report your own publication", nil)
		}
	case entity.ReportTargetProposal:
		proposal, err := uc.proposalRepo.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if proposal.ProposerID == reporterID {
			return errors.BadRequest("You cannot report your own proposal", nil)
		}
		if proposal.PublicationOwnerID != reporterID {
			return errors.Forbidden("You can only report proposals you received", nil)
		}
	default:
		return errors.Validation("target_type must be one of: PUBLICATION USER PROPOSAL")
	}
	return nil
}

func (uc *ReportUseCase) List(ctx context.Context, status string, page utils.PaginationParams) ([]*entity.Report, int64, error) {
	s := entity.ReportStatus(strings.ToUpper(strings.TrimSpace(status)))
	switch s {
	case "", entity.ReportPending, entity.ReportResolved, entity.ReportDismissed:
	default:
		return nil, 0, errors.Validation("status must be one of: PENDING RESOLVED DISMISSED")
	}
	return uc.reportRepo.List(ctx, s, page.PageSize, page.Offset)
}

func (uc *ReportUseCase) Resolve(ctx context.Context, moderatorID, reportID, status, resolution string) (*entity.Report, error) {
	s := entity.ReportStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !s.Terminal() {
		return nil, errors.Validation("status must be one of: RESOLVED DISMISSED")
	}

	body := "Revisamos tu reporte y tomamos medidas"
	if s == entity.ReportDismissed {
		body = "Revisamos tu reporte y no encontramos infracciones"
	}
	notification := &entity.NotificationItem{
		Type:  entity.NotificationReportResolved,
		Title: "Reporte revisado",
		Body:  body,
	}

	report, err := uc.reportRepo.Resolve(ctx, reportID, s, moderatorID, strings.TrimSpace(resolution), notification)
	if err != nil {
		return nil, err
	}

	logger.Info("Report %s %s by moderator %s", report.ID, s, moderatorID)
	if uc.metrics != nil {
		uc.metrics.Reports.WithLabelValues(string(s)).Inc()
		uc.metrics.Notifications.WithLabelValues(string(notification.Type)).Inc()
	}
	if err := uc.events.PublishJSON(ctx, service.SubjectReportResolved, report); err != nil {
		logger.LogSideEffectError(report.ID, service.SubjectReportResolved, err)
	}
	if err := uc.events.PublishJSON(ctx, service.NotificationSubject(report.ReporterID), notification); err != nil {
		logger.LogSideEffectError(notification.ID, "notify", err)
	}

	return report, nil
}
