package repository

import (
	"context"

	"apptrueq/internal/domain/entity"
	"apptrueq/pkg/stream"
)

// TransitionFunc inspects the proposal as read inside the transaction and
// returns the records to write alongside the status change. Returning an
// error aborts the transaction with no writes.
type TransitionFunc func(current *entity.Proposal) (*entity.Trade, *entity.NotificationItem, error)

type TransitionResult struct {
	Proposal     *entity.Proposal
	Trade        *entity.Trade
	Notification *entity.NotificationItem
}

type ProposalRepository interface {
	// Create writes the proposal, its lock and the owner notification in one
	// transaction. It fails with CONFLICT when the lock already exists.
	Create(ctx context.Context, proposal *entity.Proposal, notification *entity.NotificationItem) error
	GetByID(ctx context.Context, id string) (*entity.Proposal, error)
	// Transition moves a pending proposal to a terminal status, writes the
	// side effects returned by fn and releases the lock, atomically.
	Transition(ctx context.Context, id string, to entity.ProposalStatus, fn TransitionFunc) (*TransitionResult, error)

	ListByProposer(ctx context.Context, proposerID string) ([]*entity.Proposal, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Proposal, error)
	ListByPublication(ctx context.Context, publicationID string) ([]*entity.Proposal, error)

	WatchByProposer(ctx context.Context, proposerID string) <-chan stream.Snapshot[*entity.Proposal]
	WatchByOwner(ctx context.Context, ownerID string) <-chan stream.Snapshot[*entity.Proposal]
}
