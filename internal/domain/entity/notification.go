package entity

import (
	"time"
)

type NotificationType string

const (
	NotificationProposalReceived NotificationType = "PROPOSAL_RECEIVED"
	NotificationProposalAccepted NotificationType = "PROPOSAL_ACCEPTED"
	NotificationProposalRejected NotificationType = "PROPOSAL_REJECTED"
	NotificationReportResolved   NotificationType = "REPORT_RESOLVED"
)

// NotificationItem is addressed to exactly one recipient. Only IsRead ever
// changes after creation.
type NotificationItem struct {
	ID          string           `json:"id" firestore:"id"`
	RecipientID string           `json:"recipient_id" firestore:"recipientId"`
	Type        NotificationType `json:"type" firestore:"type"`
	ReferenceID string           `json:"reference_id" firestore:"referenceId"`
	Title       string           `json:"title" firestore:"title"`
	Body        string           `json:"body" firestore:"body"`
	IsRead      bool             `json:"is_read" firestore:"isRead"`
	CreatedAt   time.Time        `json:"created_at" firestore:"createdAt"`
}

func (n *NotificationItem) Key() string        { return n.ID }
func (n *NotificationItem) Created() time.Time { return n.CreatedAt }
