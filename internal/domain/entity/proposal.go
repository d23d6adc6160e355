package entity

import (
	"fmt"
	"time"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "PENDIENTE"
	ProposalAccepted ProposalStatus = "ACEPTADA"
	ProposalRejected ProposalStatus = "RECHAZADA"
)

const (
	ProposalMessageMin = 10
	ProposalMessageMax = 250
)

func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalPending, ProposalAccepted, ProposalRejected:
		return true
	}
	return false
}

func (s ProposalStatus) Terminal() bool {
	return s == ProposalAccepted || s == ProposalRejected
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Only PENDIENTE moves, and only to a terminal status.
func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	return s == ProposalPending && next.Terminal()
}

// OfferedItem is something the proposer offers that has no publication.
type OfferedItem struct {
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description,omitempty" firestore:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
}

type Proposal struct {
	ID                   string          `json:"id" firestore:"id"`
	PublicationID        string          `json:"publication_id" firestore:"publicationId"`
	PublicationKind      PublicationKind `json:"publication_kind" firestore:"publicationKind"`
	PublicationTitle     string          `json:"publication_title" firestore:"publicationTitle"`
	PublicationOwnerID   string          `json:"publication_owner_id" firestore:"publicationOwnerId"`
	ProposerID           string          `json:"proposer_id" firestore:"proposerId"`
	ProposerName         string          `json:"proposer_name" firestore:"proposerName"`
	Message              string          `json:"message" firestore:"message"`
	Status               ProposalStatus  `json:"status" firestore:"status"`
	OfferedPublicationID string          `json:"offered_publication_id,omitempty" firestore:"offeredPublicationId,omitempty"`
	OfferedItem          *OfferedItem    `json:"offered_item,omitempty" firestore:"offeredItem,omitempty"`
	CreatedAt            time.Time       `json:"created_at" firestore:"createdAt"`
	UpdatedAt            time.Time       `json:"updated_at" firestore:"updatedAt"`
	ResolvedAt           *time.Time      `json:"resolved_at,omitempty" firestore:"resolvedAt,omitempty"`
}

func (p *Proposal) Key() string        { return p.ID }
func (p *Proposal) Created() time.Time { return p.CreatedAt }

// LockID names the document that guarantees at most one pending proposal per
// proposer and publication.
func (p *Proposal) LockID() string {
	return ProposalLockID(p.PublicationID, p.ProposerID)
}

func ProposalLockID(publicationID, proposerID string) string {
	return fmt.Sprintf("%s_%s", publicationID, proposerID)
}

// ProposalLock exists exactly while its proposal is pending.
type ProposalLock struct {
	ID         string    `json:"id" firestore:"id"`
	ProposalID string    `json:"proposal_id" firestore:"proposalId"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}
