package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/internal/domain/service"
	"apptrueq/internal/infrastructure/ratelimit"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/metrics"
)

type ProposalUseCase struct {
	proposalRepo    repository.ProposalRepository
	publicationRepo repository.PublicationRepository
	userRepo        repository.UserRepository
	limiter         RateLimiter
	events          service.EventPublisher
	metrics         *metrics.Metrics
}

func NewProposalUseCase(
	proposalRepo repository.ProposalRepository,
	publicationRepo repository.PublicationRepository,
	userRepo repository.UserRepository,
	limiter RateLimiter,
	events service.EventPublisher,
	m *metrics.Metrics,
) *ProposalUseCase {
	return &ProposalUseCase{
		proposalRepo:    proposalRepo,
		publicationRepo: publicationRepo,
		userRepo:        userRepo,
		limiter:         limiter,
		events:          events,
		metrics:         m,
	}
}

type OfferedItemInput struct {
	Title       string
	Description string
	ImageURL    string
}

type SubmitProposalInput struct {
	PublicationID        string
	Message              string
	OfferedPublicationID string
	OfferedItem          *OfferedItemInput
}

// ProposalEvent is the payload published after a proposal changes.
type ProposalEvent struct {
	ProposalID         string                `json:"proposal_id"`
	PublicationID      string                `json:"publication_id"`
	PublicationOwnerID string                `json:"publication_owner_id"`
	ProposerID         string                `json:"proposer_id"`
	Status             entity.ProposalStatus `json:"status"`
	TradeID            string                `json:"trade_id,omitempty"`
	OccurredAt         time.Time             `json:"occurred_at"`
}

// ValidateProposalMessage trims message and checks its length in characters.
func ValidateProposalMessage(message string) (string, error) {
	trimmed := strings.TrimSpace(message)
	n := utf8.RuneCountInString(trimmed)
	if n < entity.ProposalMessageMin || n > entity.ProposalMessageMax {
		return "", errors.Validation(fmt.Sprintf("Message must be between %d and %d characters",
			entity.ProposalMessageMin, entity.ProposalMessageMax))
	}
	return trimmed, nil
}

func validateOffer(input SubmitProposalInput) (*entity.OfferedItem, error) {
	if input.OfferedItem == nil {
		return nil, nil
	}
	if strings.TrimSpace(input.OfferedPublicationID) != "" {
		return nil, errors.Validation("Offer either one of your publications or a new item, not both")
	}

	title := strings.TrimSpace(input.OfferedItem.Title)
	if title == "" {
		return nil, errors.Validation("Offered item title is required")
	}
	return &entity.OfferedItem{
		Title:       title,
		Description: strings.TrimSpace(input.OfferedItem.Description),
		ImageURL:    strings.TrimSpace(input.OfferedItem.ImageURL),
	}, nil
}

func (uc *ProposalUseCase) Submit(ctx context.Context, proposerID string, input SubmitProposalInput) (*entity.Proposal, error) {
	if proposerID == "" {
		return nil, errors.Unauthorized("You must be signed in", nil)
	}

	// Everything checkable without the backend is checked before the first read.
	message, err := ValidateProposalMessage(input.Message)
	if err != nil {
		return nil, err
	}
	offeredItem, err := validateOffer(input)
	if err != nil {
		return nil, err
	}
	publicationID := strings.TrimSpace(input.PublicationID)
	if publicationID == "" {
		return nil, errors.Validation("Publication is required")
	}
	offeredPublicationID := strings.TrimSpace(input.OfferedPublicationID)

	publication, err := uc.publicationRepo.GetByID(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	if publication.OwnerID == proposerID {
		return nil, errors.BadRequest("You cannot send a proposal to your own publication", nil)
	}

	if offeredPublicationID != "" {
		offered, err := uc.publicationRepo.GetByID(ctx, offeredPublicationID)
		if err != nil {
			return nil, err
		}
		if offered.OwnerID != proposerID {
			return nil, errors.Forbidden("You can only offer your own publications", nil)
		}
	}

	if ok, wait := uc.limiter.Allow(proposerID, ratelimit.ActionSubmitProposal); !ok {
		return nil, errors.TooManyRequests(fmt.Sprintf("Too many proposals, try again in %d seconds", waitSeconds(wait)))
	}

	proposerName := uc.displayName(ctx, proposerID)

	proposal := &entity.Proposal{
		PublicationID:        publication.ID,
		PublicationKind:      publication.Kind,
		PublicationTitle:     publication.Title,
		PublicationOwnerID:   publication.OwnerID,
		ProposerID:           proposerID,
		ProposerName:         proposerName,
		Message:              message,
		OfferedPublicationID: offeredPublicationID,
		OfferedItem:          offeredItem,
	}

	notification := &entity.NotificationItem{
		RecipientID: publication.OwnerID,
		Type:        entity.NotificationProposalReceived,
		Title:       "Nueva propuesta",
		Body:        fmt.Sprintf("%s te envió una propuesta por \"%s\"", proposerName, publication.Title),
	}

	if err := uc.proposalRepo.Create(ctx, proposal, notification); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			uc.count("duplicate")
		}
		return nil, err
	}

	logger.Info("Proposal %s submitted by %s for publication %s", proposal.ID, proposerID, publication.ID)
	uc.count("submitted")
	uc.afterCommit(ctx, service.SubjectProposalSubmitted, proposal, "", notification)

	return proposal, nil
}

func (uc *ProposalUseCase) Accept(ctx context.Context, actorID, proposalID string) (*repository.TransitionResult, error) {
	return uc.resolve(ctx, actorID, proposalID, entity.ProposalAccepted)
}

func (uc *ProposalUseCase) Reject(ctx context.Context, actorID, proposalID string) (*repository.TransitionResult, error) {
	return uc.resolve(ctx, actorID, proposalID, entity.ProposalRejected)
}

func (uc *ProposalUseCase) resolve(ctx context.Context, actorID, proposalID string, to entity.ProposalStatus) (*repository.TransitionResult, error) {
	if actorID == "" {
		return nil, errors.Unauthorized("You must be signed in", nil)
	}
	if ok, wait := uc.limiter.Allow(actorID, ratelimit.ActionResolveProposal); !ok {
		return nil, errors.TooManyRequests(fmt.Sprintf("Too many requests, try again in %d seconds", waitSeconds(wait)))
	}

	result, err := uc.proposalRepo.Transition(ctx, proposalID, to, func(current *entity.Proposal) (*entity.Trade, *entity.NotificationItem, error) {
		if current.PublicationOwnerID != actorID {
			return nil, nil, errors.Forbidden("Only the publication owner can answer this proposal", nil)
		}
		return resolutionEffects(current, to)
	})
	if err != nil {
		return nil, err
	}

	tradeID := ""
	if result.Trade != nil {
		tradeID = result.Trade.ID
	}

	logger.Info("Proposal %s %s by %s", proposalID, to, actorID)
	subject := service.SubjectProposalRejected
	outcome := "rejected"
	if to == entity.ProposalAccepted {
		subject = service.SubjectProposalAccepted
		outcome = "accepted"
	}
	uc.count(outcome)
	uc.afterCommit(ctx, subject, result.Proposal, tradeID, result.Notification)

	return result, nil
}

// resolutionEffects builds what an accept or reject writes besides the
// proposal itself: a trade only on accept, and one notification to the
// proposer either way.
func resolutionEffects(p *entity.Proposal, to entity.ProposalStatus) (*entity.Trade, *entity.NotificationItem, error) {
	switch to {
	case entity.ProposalAccepted:
		trade := &entity.Trade{
			ProposalID:           p.ID,
			PublicationID:        p.PublicationID,
			PublicationTitle:     p.PublicationTitle,
			OfferedPublicationID: p.OfferedPublicationID,
			OwnerID:              p.PublicationOwnerID,
			ProposerID:           p.ProposerID,
			Participants:         []string{p.PublicationOwnerID, p.ProposerID},
			Status:               entity.TradeAgreed,
		}
		notification := &entity.NotificationItem{
			RecipientID: p.ProposerID,
			Type:        entity.NotificationProposalAccepted,
			ReferenceID: p.ID,
			Title:       "Propuesta aceptada",
			Body:        fmt.Sprintf("Tu propuesta por \"%s\" fue aceptada", p.PublicationTitle),
		}
		return trade, notification, nil

	case entity.ProposalRejected:
		notification := &entity.NotificationItem{
			RecipientID: p.ProposerID,
			Type:        entity.NotificationProposalRejected,
			ReferenceID: p.ID,
			Title:       "Propuesta rechazada",
			Body:        fmt.Sprintf("Tu propuesta por \"%s\" fue rechazada", p.PublicationTitle),
		}
		return nil, notification, nil

	default:
		return nil, nil, errors.BadRequest("Invalid proposal status", nil)
	}
}

func (uc *ProposalUseCase) Get(ctx context.Context, userID, proposalID string) (*entity.Proposal, error) {
	proposal, err := uc.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.ProposerID != userID && proposal.PublicationOwnerID != userID {
		return nil, errors.Forbidden("You don't have access to this proposal", nil)
	}
	return proposal, nil
}

func parseProposalStatus(status string) (entity.ProposalStatus, error) {
	s := entity.ProposalStatus(strings.ToUpper(strings.TrimSpace(status)))
	if s != "" && !s.Valid() {
		return "", errors.Validation("status must be one of: PENDIENTE ACEPTADA RECHAZADA")
	}
	return s, nil
}

func (uc *ProposalUseCase) ListSent(ctx context.Context, userID, status string) ([]*entity.Proposal, error) {
	s, err := parseProposalStatus(status)
	if err != nil {
		return nil, err
	}
	proposals, err := uc.proposalRepo.ListByProposer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return service.FilterProposals(proposals, s), nil
}

func (uc *ProposalUseCase) ListReceived(ctx context.Context, userID, status string) ([]*entity.Proposal, error) {
	s, err := parseProposalStatus(status)
	if err != nil {
		return nil, err
	}
	proposals, err := uc.proposalRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return service.FilterProposals(proposals, s), nil
}

func (uc *ProposalUseCase) ListForPublication(ctx context.Context, userID, publicationID string) ([]*entity.Proposal, error) {
	publication, err := uc.publicationRepo.GetByID(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	if publication.OwnerID != userID {
		return nil, errors.Forbidden("Only the owner can see proposals for this publication", nil)
	}
	return uc.proposalRepo.ListByPublication(ctx, publicationID)
}

func (uc *ProposalUseCase) displayName(ctx context.Context, userID string) string {
	profile, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil || profile.DisplayName == "" {
		return "Un usuario"
	}
	return profile.DisplayName
}

func (uc *ProposalUseCase) count(outcome string) {
	if uc.metrics != nil {
		uc.metrics.Proposals.WithLabelValues(outcome).Inc()
	}
}

// afterCommit runs the side effects that follow a committed write. Failures
// are logged only: the write itself already succeeded.
func (uc *ProposalUseCase) afterCommit(ctx context.Context, subject string, p *entity.Proposal, tradeID string, n *entity.NotificationItem) {
	if uc.metrics != nil && n != nil {
		uc.metrics.Notifications.WithLabelValues(string(n.Type)).Inc()
	}

	event := ProposalEvent{
		ProposalID:         p.ID,
		PublicationID:      p.PublicationID,
		PublicationOwnerID: p.PublicationOwnerID,
		ProposerID:         p.ProposerID,
		Status:             p.Status,
		TradeID:            tradeID,
		OccurredAt:         time.Now(),
	}
	if err := uc.events.PublishJSON(ctx, subject, event); err != nil {
		logger.LogSideEffectError(p.ID, subject, err)
	}
	if n != nil {
		if err := uc.events.PublishJSON(ctx, service.NotificationSubject(n.RecipientID), n); err != nil {
			logger.LogSideEffectError(n.ID, "notify", err)
		}
	}
}

func waitSeconds(d time.Duration) int {
	s := int(d.Round(time.Second) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
