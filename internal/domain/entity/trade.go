package entity

import (
	"time"
)

type TradeStatus string

const (
	TradeAgreed TradeStatus = "ACORDADO"
)

func (s TradeStatus) Valid() bool {
	return s == TradeAgreed
}

// Trade is the append-only record of an accepted proposal.
type Trade struct {
	ID                   string      `json:"id" firestore:"id"`
	ProposalID           string      `json:"proposal_id" firestore:"proposalId"`
	PublicationID        string      `json:"publication_id" firestore:"publicationId"`
	PublicationTitle     string      `json:"publication_title" firestore:"publicationTitle"`
	OfferedPublicationID string      `json:"offered_publication_id,omitempty" firestore:"offeredPublicationId,omitempty"`
	OwnerID              string      `json:"owner_id" firestore:"ownerId"`
	ProposerID           string      `json:"proposer_id" firestore:"proposerId"`
	Participants         []string    `json:"participants" firestore:"participants"`
	Status               TradeStatus `json:"status" firestore:"status"`
	CreatedAt            time.Time   `json:"created_at" firestore:"createdAt"`
}

func (t *Trade) Key() string        { return t.ID }
func (t *Trade) Created() time.Time { return t.CreatedAt }

func (t *Trade) HasParticipant(userID string) bool {
	return t.OwnerID == userID || t.ProposerID == userID
}
