package repository

import (
	"context"

	"apptrueq/internal/domain/entity"
	"apptrueq/pkg/stream"
)

// TradeRepository is read-only: trades are written by ProposalRepository.Transition.
type TradeRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Trade, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Trade, error)
	ListByProposer(ctx context.Context, proposerID string) ([]*entity.Trade, error)
	WatchByOwner(ctx context.Context, ownerID string) <-chan stream.Snapshot[*entity.Trade]
	WatchByProposer(ctx context.Context, proposerID string) <-chan stream.Snapshot[*entity.Trade]
}
