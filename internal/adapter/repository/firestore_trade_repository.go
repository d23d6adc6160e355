package repository

import (
	"context"

	"cloud.google.com/go/firestore"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/pkg/stream"
)

type firestoreTradeRepository struct {
	client *firestore.Client
}

func NewFirestoreTradeRepository(client *firestore.Client) repository.TradeRepository {
	return &firestoreTradeRepository{
		client: client,
	}
}

func (r *firestoreTradeRepository) GetByID(ctx context.Context, id string) (*entity.Trade, error) {
	return getDoc[entity.Trade](ctx, r.client.Collection(collectionTrades).Doc(id), "Trade")
}

func (r *firestoreTradeRepository) byField(field, value string) firestore.Query {
	return r.client.Collection(collectionTrades).
		Where(field, "==", value).
		OrderBy("createdAt", firestore.Desc)
}

func (r *firestoreTradeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Trade, error) {
	return queryAll[entity.Trade](ctx, r.byField("ownerId", ownerID), "trades")
}

func (r *firestoreTradeRepository) ListByProposer(ctx context.Context, proposerID string) ([]*entity.Trade, error) {
	return queryAll[entity.Trade](ctx, r.byField("proposerId", proposerID), "trades")
}

func (r *firestoreTradeRepository) WatchByOwner(ctx context.Context, ownerID string) <-chan stream.Snapshot[*entity.Trade] {
	return watchQuery[entity.Trade](ctx, r.byField("ownerId", ownerID), "trades")
}

func (r *firestoreTradeRepository) WatchByProposer(ctx context.Context, proposerID string) <-chan stream.Snapshot[*entity.Trade] {
	return watchQuery[entity.Trade](ctx, r.byField("proposerId", proposerID), "trades")
}
