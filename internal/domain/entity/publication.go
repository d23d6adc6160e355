package entity

import (
	"time"
)

type PublicationKind string

const (
	KindOffer PublicationKind = "OFFER"
	KindNeed  PublicationKind = "NEED"
)

func (k PublicationKind) Valid() bool {
	return k == KindOffer || k == KindNeed
}

// Collection is the Firestore collection holding publications of this kind.
func (k PublicationKind) Collection() string {
	if k == KindNeed {
		return "needs"
	}
	return "offers"
}

// Publication is a listing. It is never edited after creation.
type Publication struct {
	ID          string          `json:"id" firestore:"id"`
	Title       string          `json:"title" firestore:"title"`
	Description string          `json:"description" firestore:"description"`
	Category    string          `json:"category" firestore:"category"`
	Location    string          `json:"location" firestore:"location"`
	ImageURL    string          `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	OwnerID     string          `json:"owner_id" firestore:"ownerId"`
	OwnerName   string          `json:"owner_name" firestore:"ownerName"`
	Kind        PublicationKind `json:"kind" firestore:"kind"`
	CreatedAt   time.Time       `json:"created_at" firestore:"createdAt"`
}

func (p *Publication) Key() string        { return p.ID }
func (p *Publication) Created() time.Time { return p.CreatedAt }
