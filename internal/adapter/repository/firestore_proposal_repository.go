package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/stream"
)

type firestoreProposalRepository struct {
	client *firestore.Client
}

func NewFirestoreProposalRepository(client *firestore.Client) repository.ProposalRepository {
	return &firestoreProposalRepository{
		client: client,
	}
}

func (r *firestoreProposalRepository) Create(ctx context.Context, proposal *entity.Proposal, notification *entity.NotificationItem) error {
	proposals := r.client.Collection(collectionProposals)
	if proposal.ID == "" {
		proposal.ID = proposals.NewDoc().ID
	}

	now := time.Now()
	proposal.Status = entity.ProposalPending
	proposal.CreatedAt = now
	proposal.UpdatedAt = now

	lockRef := r.client.Collection(collectionProposalLocks).Doc(proposal.LockID())
	proposalRef := proposals.Doc(proposal.ID)

	prepareNotification(notification, proposal.ID, now)
	notificationRef := r.client.Collection(collectionNotifications).Doc(notification.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		lock, err := tx.Get(lockRef)
		if err == nil && lock.Exists() {
			return errors.Conflict("You already have a pending proposal for this publication")
		}
		if err != nil && !IsNotFound(err) {
			return errors.Internal("Failed to check pending proposals", err)
		}

		if err := tx.Create(lockRef, entity.ProposalLock{
			ID:         lockRef.ID,
			ProposalID: proposal.ID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		if err := tx.Create(proposalRef, proposal); err != nil {
			return err
		}
		return tx.Create(notificationRef, notification)
	})
	if err != nil {
		return translateTxError(err, "You already have a pending proposal for this publication", "Failed to save proposal")
	}

	return nil
}

func (r *firestoreProposalRepository) GetByID(ctx context.Context, id string) (*entity.Proposal, error) {
	return getDoc[entity.Proposal](ctx, r.client.Collection(collectionProposals).Doc(id), "Proposal")
}

func (r *firestoreProposalRepository) Transition(ctx context.Context, id string, to entity.ProposalStatus, fn repository.TransitionFunc) (*repository.TransitionResult, error) {
	proposalRef := r.client.Collection(collectionProposals).Doc(id)

	var result *repository.TransitionResult
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// RunTransaction may retry; start from a clean result every attempt.
		result = nil

		doc, err := tx.Get(proposalRef)
		if err != nil {
			if IsNotFound(err) {
				return errors.NotFound("Proposal", err)
			}
			return errors.Internal("Failed to get proposal", err)
		}

		var proposal entity.Proposal
		if err := doc.DataTo(&proposal); err != nil {
			return errors.Internal("Failed to parse proposal data", err)
		}

		if !proposal.Status.CanTransitionTo(to) {
			return errors.Conflict("Proposal is no longer pending")
		}

		trade, notification, err := fn(&proposal)
		if err != nil {
			return err
		}
		if notification == nil {
			return errors.Internal("Proposal transition without notification", nil)
		}

		now := time.Now()
		proposal.Status = to
		proposal.UpdatedAt = now
		proposal.ResolvedAt = &now

		if err := tx.Set(proposalRef, &proposal); err != nil {
			return err
		}

		if trade != nil {
			if trade.ID == "" {
				trade.ID = uuid.New().String()
			}
			trade.CreatedAt = now
			if err := tx.Create(r.client.Collection(collectionTrades).Doc(trade.ID), trade); err != nil {
				return err
			}
		}

		prepareNotification(notification, proposal.ID, now)
		if err := tx.Create(r.client.Collection(collectionNotifications).Doc(notification.ID), notification); err != nil {
			return err
		}

		if err := tx.Delete(r.client.Collection(collectionProposalLocks).Doc(proposal.LockID())); err != nil {
			return err
		}

		result = &repository.TransitionResult{
			Proposal:     &proposal,
			Trade:        trade,
			Notification: notification,
		}
		return nil
	})
	if err != nil {
		return nil, translateTxError(err, "Proposal was already resolved", "Failed to update proposal")
	}

	return result, nil
}

func (r *firestoreProposalRepository) byField(field, value string) firestore.Query {
	return r.client.Collection(collectionProposals).
		Where(field, "==", value).
		OrderBy("createdAt", firestore.Desc)
}

func (r *firestoreProposalRepository) ListByProposer(ctx context.Context, proposerID string) ([]*entity.Proposal, error) {
	return queryAll[entity.Proposal](ctx, r.byField("proposerId", proposerID), "proposals")
}

func (r *firestoreProposalRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Proposal, error) {
	return queryAll[entity.Proposal](ctx, r.byField("publicationOwnerId", ownerID), "proposals")
}

func (r *firestoreProposalRepository) ListByPublication(ctx context.Context, publicationID string) ([]*entity.Proposal, error) {
	return queryAll[entity.Proposal](ctx, r.byField("publicationId", publicationID), "proposals")
}

func (r *firestoreProposalRepository) WatchByProposer(ctx context.Context, proposerID string) <-chan stream.Snapshot[*entity.Proposal] {
	return watchQuery[entity.Proposal](ctx, r.byField("proposerId", proposerID), "proposals")
}

func (r *firestoreProposalRepository) WatchByOwner(ctx context.Context, ownerID string) <-chan stream.Snapshot[*entity.Proposal] {
	return watchQuery[entity.Proposal](ctx, r.byField("publicationOwnerId", ownerID), "proposals")
}

func prepareNotification(n *entity.NotificationItem, referenceID string, now time.Time) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.ReferenceID == "" {
		n.ReferenceID = referenceID
	}
	n.IsRead = false
	n.CreatedAt = now
}

// translateTxError keeps AppErrors raised inside a transaction and wraps
// everything else, mapping a lost create race to CONFLICT with conflictMessage.
func translateTxError(err error, conflictMessage, message string) error {
	if _, ok := err.(*errors.AppError); ok {
		return err
	}
	if isAlreadyExists(err) {
		return errors.Conflict(conflictMessage)
	}
	return errors.Internal(message, err)
}
