package usecase

import (
	"context"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/internal/domain/service"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/stream"
)

// FeedUseCase builds the live lists pushed to subscribed clients. Each list
// merges one or more snapshot listeners and re-runs the same pure view the
// one-shot endpoints use.
type FeedUseCase struct {
	publicationRepo  repository.PublicationRepository
	proposalRepo     repository.ProposalRepository
	tradeRepo        repository.TradeRepository
	notificationRepo repository.NotificationRepository
	exploreLimit     int
}

func NewFeedUseCase(
	publicationRepo repository.PublicationRepository,
	proposalRepo repository.ProposalRepository,
	tradeRepo repository.TradeRepository,
	notificationRepo repository.NotificationRepository,
	exploreLimit int,
) *FeedUseCase {
	return &FeedUseCase{
		publicationRepo:  publicationRepo,
		proposalRepo:     proposalRepo,
		tradeRepo:        tradeRepo,
		notificationRepo: notificationRepo,
		exploreLimit:     exploreLimit,
	}
}

func exploreView(filter service.PublicationFilter) func([][]*entity.Publication) []*entity.Publication {
	return func(latest [][]*entity.Publication) []*entity.Publication {
		return service.FilterPublications(service.MergeByIdentity(latest...), filter)
	}
}

func proposalView(status entity.ProposalStatus) func([][]*entity.Proposal) []*entity.Proposal {
	return func(latest [][]*entity.Proposal) []*entity.Proposal {
		return service.FilterProposals(service.MergeByIdentity(latest...), status)
	}
}

func tradeView(latest [][]*entity.Trade) []*entity.Trade {
	return service.MergeByIdentity(latest...)
}

func notificationView(unreadOnly bool) func([][]*entity.NotificationItem) []*entity.NotificationItem {
	return func(latest [][]*entity.NotificationItem) []*entity.NotificationItem {
		return service.FilterNotifications(service.MergeByIdentity(latest...), unreadOnly)
	}
}

// ExploreFeed lists recent offers and needs from other users.
func (uc *FeedUseCase) ExploreFeed(ctx context.Context, userID string, filter service.PublicationFilter) (<-chan stream.ListState[*entity.Publication], error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, errors.Validation("kind must be one of: OFFER NEED")
	}
	filter.ExcludeOwnerID = userID

	recent := func(kind entity.PublicationKind) stream.Source[*entity.Publication] {
		return func(ctx context.Context) <-chan stream.Snapshot[*entity.Publication] {
			return uc.publicationRepo.WatchRecent(ctx, kind, uc.exploreLimit)
		}
	}

	return stream.CombineLatest(ctx, exploreView(filter), recent(entity.KindOffer), recent(entity.KindNeed)), nil
}

// ProposalHistory merges the proposals a user sent with the ones they received.
func (uc *FeedUseCase) ProposalHistory(ctx context.Context, userID, status string) (<-chan stream.ListState[*entity.Proposal], error) {
	if userID == "" {
		return nil, errors.Unauthorized("You must be signed in", nil)
	}
	s, err := parseProposalStatus(status)
	if err != nil {
		return nil, err
	}

	sent := func(ctx context.Context) <-chan stream.Snapshot[*entity.Proposal] {
		return uc.proposalRepo.WatchByProposer(ctx, userID)
	}
	received := func(ctx context.Context) <-chan stream.Snapshot[*entity.Proposal] {
		return uc.proposalRepo.WatchByOwner(ctx, userID)
	}

	return stream.CombineLatest(ctx, proposalView(s), sent, received), nil
}

func (uc *FeedUseCase) TradeHistory(ctx context.Context, userID string) (<-chan stream.ListState[*entity.Trade], error) {
	if userID == "" {
		return nil, errors.Unauthorized("You must be signed in", nil)
	}

	asOwner := func(ctx context.Context) <-chan stream.Snapshot[*entity.Trade] {
		return uc.tradeRepo.WatchByOwner(ctx, userID)
	}
	asProposer := func(ctx context.Context) <-chan stream.Snapshot[*entity.Trade] {
		return uc.tradeRepo.WatchByProposer(ctx, userID)
	}

	return stream.CombineLatest(ctx, tradeView, asOwner, asProposer), nil
}

func (uc *FeedUseCase) NotificationFeed(ctx context.Context, userID string, unreadOnly bool) (<-chan stream.ListState[*entity.NotificationItem], error) {
	if userID == "" {
		return nil, errors.Unauthorized("You must be signed in", nil)
	}

	mine := func(ctx context.Context) <-chan stream.Snapshot[*entity.NotificationItem] {
		return uc.notificationRepo.WatchByRecipient(ctx, userID)
	}

	return stream.CombineLatest(ctx, notificationView(unreadOnly), mine), nil
}
