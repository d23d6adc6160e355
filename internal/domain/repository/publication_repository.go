package repository

import (
	"context"

	"apptrueq/internal/domain/entity"
	"apptrueq/pkg/stream"
)

type PublicationRepository interface {
	Create(ctx context.Context, publication *entity.Publication) error
	// GetByID looks the id up in both offers and needs.
	GetByID(ctx context.Context, id string) (*entity.Publication, error)
	ListByOwner(ctx context.Context, ownerID string, kind entity.PublicationKind) ([]*entity.Publication, error)
	ListRecent(ctx context.Context, kind entity.PublicationKind, limit int) ([]*entity.Publication, error)
	WatchRecent(ctx context.Context, kind entity.PublicationKind, limit int) <-chan stream.Snapshot[*entity.Publication]
}
