package usecase

import (
	"context"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/pkg/errors"
)

type TradeUseCase struct {
	tradeRepo repository.TradeRepository
}

func NewTradeUseCase(tradeRepo repository.TradeRepository) *TradeUseCase {
	return &TradeUseCase{
		tradeRepo: tradeRepo,
	}
}

func (uc *TradeUseCase) Get(ctx context.Context, userID, tradeID string) (*entity.Trade, error) {
	trade, err := uc.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not part of this trade", nil)
	}
	return trade, nil
}

// ListMine returns trades where the user is either side, newest first.
func (uc *TradeUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Trade, error) {
	asOwner, err := uc.tradeRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	asProposer, err := uc.tradeRepo.ListByProposer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tradeView([][]*entity.Trade{asOwner, asProposer}), nil
}
