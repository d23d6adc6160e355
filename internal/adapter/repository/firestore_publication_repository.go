package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/stream"
)

type firestorePublicationRepository struct {
	client *firestore.Client
}

func NewFirestorePublicationRepository(client *firestore.Client) repository.PublicationRepository {
	return &firestorePublicationRepository{
		client: client,
	}
}

func (r *firestorePublicationRepository) Create(ctx context.Context, publication *entity.Publication) error {
	if !publication.Kind.Valid() {
		return errors.Validation("kind must be one of: OFFER NEED")
	}

	collection := r.client.Collection(publication.Kind.Collection())
	if publication.ID == "" {
		publication.ID = collection.NewDoc().ID
	}
	if publication.CreatedAt.IsZero() {
		publication.CreatedAt = time.Now()
	}

	// Create, not Set: publications are immutable once written.
	if _, err := collection.Doc(publication.ID).Create(ctx, publication); err != nil {
		if isAlreadyExists(err) {
			return errors.Conflict("Publication already exists")
		}
		return errors.Internal("Failed to create publication", err)
	}

	return nil
}

func (r *firestorePublicationRepository) GetByID(ctx context.Context, id string) (*entity.Publication, error) {
	refs := []*firestore.DocumentRef{
		r.client.Collection(collectionOffers).Doc(id),
		r.client.Collection(collectionNeeds).Doc(id),
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, errors.Internal("Failed to get publication", err)
	}

	for _, doc := range docs {
		if doc == nil || !doc.Exists() {
			continue
		}
		var publication entity.Publication
		if err := doc.DataTo(&publication); err != nil {
			return nil, errors.Internal("Failed to parse publication data", err)
		}
		return &publication, nil
	}

	return nil, errors.NotFound("Publication", nil)
}

func (r *firestorePublicationRepository) ListByOwner(ctx context.Context, ownerID string, kind entity.PublicationKind) ([]*entity.Publication, error) {
	kinds := []entity.PublicationKind{entity.KindOffer, entity.KindNeed}
	if kind != "" {
		kinds = []entity.PublicationKind{kind}
	}

	var publications []*entity.Publication
	for _, k := range kinds {
		query := r.client.Collection(k.Collection()).
			Where("ownerId", "==", ownerID).
			OrderBy("createdAt", firestore.Desc)

		items, err := queryAll[entity.Publication](ctx, query, "publications")
		if err != nil {
			return nil, err
		}
		publications = append(publications, items...)
	}

	return publications, nil
}

func (r *firestorePublicationRepository) recentQuery(kind entity.PublicationKind, limit int) firestore.Query {
	query := r.client.Collection(kind.Collection()).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}

func (r *firestorePublicationRepository) ListRecent(ctx context.Context, kind entity.PublicationKind, limit int) ([]*entity.Publication, error) {
	return queryAll[entity.Publication](ctx, r.recentQuery(kind, limit), kind.Collection())
}

func (r *firestorePublicationRepository) WatchRecent(ctx context.Context, kind entity.PublicationKind, limit int) <-chan stream.Snapshot[*entity.Publication] {
	return watchQuery[entity.Publication](ctx, r.recentQuery(kind, limit), kind.Collection())
}
