package entity

import (
	"fmt"
	"time"
)

type ReportTargetType string

const (
	ReportTargetPublication ReportTargetType = "PUBLICATION"
	ReportTargetUser        ReportTargetType = "USER"
	ReportTargetProposal    ReportTargetType = "PROPOSAL"
)

type ReportReason string

const (
	ReasonSpam          ReportReason = "SPAM"
	ReasonFraud         ReportReason = "FRAUD"
	ReasonInappropriate ReportReason = "INAPPROPRIATE"
	ReasonOther         ReportReason = "OTHER"
)

type ReportStatus string

const (
	ReportPending   ReportStatus = "PENDING"
	ReportResolved  ReportStatus = "RESOLVED"
	ReportDismissed ReportStatus = "DISMISSED"
)

func (s ReportStatus) Terminal() bool {
	return s == ReportResolved || s == ReportDismissed
}

// Report is an abuse report reviewed by moderators.
type Report struct {
	ID          string           `json:"id" firestore:"id"`
	ReporterID  string           `json:"reporter_id" firestore:"reporterId"`
	TargetType  ReportTargetType `json:"target_type" firestore:"targetType"`
	TargetID    string           `json:"target_id" firestore:"targetId"`
	Reason      ReportReason     `json:"reason" firestore:"reason"`
	Description string           `json:"description" firestore:"description"`
	Status      ReportStatus     `json:"status" firestore:"status"`
	ResolvedBy  string           `json:"resolved_by,omitempty" firestore:"resolvedBy,omitempty"`
	Resolution  string           `json:"resolution,omitempty" firestore:"resolution,omitempty"`
	CreatedAt   time.Time        `json:"created_at" firestore:"createdAt"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty" firestore:"resolvedAt,omitempty"`
}

func (r *Report) Key() string        { return r.ID }
func (r *Report) Created() time.Time { return r.CreatedAt }

// LockID names the document that allows one pending report per reporter and target.
func (r *Report) LockID() string {
	return ReportLockID(r.ReporterID, r.TargetType, r.TargetID)
}

func ReportLockID(reporterID string, targetType ReportTargetType, targetID string) string {
	return fmt.Sprintf("%s_%s_%s", reporterID, targetType, targetID)
}

// ReportLock exists exactly while its report is pending.
type ReportLock struct {
	ID        string    `json:"id" firestore:"id"`
	ReportID  string    `json:"report_id" firestore:"reportId"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
