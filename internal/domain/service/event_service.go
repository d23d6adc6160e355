package service

import (
	"context"
)

const (
	SubjectProposalSubmitted = "trueq.proposals.submitted"
	SubjectProposalAccepted  = "trueq.proposals.accepted"
	SubjectProposalRejected  = "trueq.proposals.rejected"
	SubjectReportCreated     = "trueq.reports.created"
	SubjectReportResolved    = "trueq.reports.resolved"
	subjectNotifications     = "trueq.notifications."
)

// NotificationSubject is the per-recipient subject new notifications are
// announced on.
func NotificationSubject(recipientID string) string {
	return subjectNotifications + recipientID
}

// EventPublisher announces committed domain changes. Publishing is best
// effort: the write it describes has already happened.
type EventPublisher interface {
	PublishJSON(ctx context.Context, subject string, payload any) error
	Close()
}
