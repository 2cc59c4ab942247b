package model

import (
	"errors"
	"time"
)

// Report statuses. Transitions run forward only: pending may move to
// reviewed, resolved, or dismissed; reviewed may move to resolved or
// dismissed; resolved and dismissed are terminal. No re-open path exists.
const (
	ReportStatusPending   = "pending"
	ReportStatusReviewed  = "reviewed"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

var reportStatusRank = map[string]int{
	ReportStatusPending:   0,
	ReportStatusReviewed:  1,
	ReportStatusResolved:  2,
	ReportStatusDismissed: 2,
}

// CanTransitionReportStatus reports whether a report may move from one
// status to another.
func CanTransitionReportStatus(from, to string) bool {
	fromRank, ok := reportStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := reportStatusRank[to]
	if !ok {
		return false
	}
	if from == ReportStatusResolved || from == ReportStatusDismissed {
		return false
	}
	return toRank > fromRank
}

// Report is a moderation ticket filed against a piece of content or a user.
type Report struct {
	ID         int64      `db:"id" json:"id"`
	ReporterID int64      `db:"reporter_id" json:"reporter_id"`
	EntityID   int64      `db:"entity_id" json:"entity_id"`
	EntityType string     `db:"entity_type" json:"entity_type"`
	Reason     string     `db:"reason" json:"reason"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ReviewedAt *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy *int64     `db:"reviewed_by" json:"reviewed_by,omitempty"`
}

// CreateReportRequest is the request body for filing a report.
type CreateReportRequest struct {
	EntityID   int64  `json:"entity_id"`
	EntityType string `json:"entity_type"`
	Reason     string `json:"reason"`
}

// ReviewReportRequest is the request body for reviewing a report.
// DeleteContent asks the moderator flow to also remove the reported entity.
type ReviewReportRequest struct {
	Status        string  `json:"status"`
	DeleteContent bool    `json:"delete_content"`
	Reason        *string `json:"reason"`
}

// DeleteContentRequest is the request body for a direct moderation takedown.
type DeleteContentRequest struct {
	EntityID   int64   `json:"entity_id"`
	EntityType string  `json:"entity_type"`
	Reason     *string `json:"reason"`
}

// AuditLog records an administrative action for later review.
type AuditLog struct {
	ID         int64     `db:"id" json:"id"`
	AdminID    int64     `db:"admin_id" json:"admin_id"`
	Action     string    `db:"action" json:"action"`
	TargetType string    `db:"target_type" json:"target_type"`
	TargetID   int64     `db:"target_id" json:"target_id"`
	Reason     *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Audit actions
const (
	AuditActionBlockUser     = "block_user"
	AuditActionUnblockUser   = "unblock_user"
	AuditActionGrantAdmin    = "grant_admin"
	AuditActionRevokeAdmin   = "revoke_admin"
	AuditActionDeleteUser    = "delete_user"
	AuditActionDeleteContent = "delete_content"
	AuditActionReviewReport  = "review_report"
)

var (
	ErrReportNotFound        = errors.New("report not found")
	ErrReportReasonRequired  = errors.New("report reason is required")
	ErrInvalidEntityType     = errors.New("invalid entity type")
	ErrInvalidReportStatus   = errors.New("invalid report status")
	ErrReportStatusBackwards = errors.New("report status cannot move backwards")
	ErrNotAdmin              = errors.New("admin privileges required")
	ErrCannotModerateSelf    = errors.New("cannot moderate your own account")
)

// IsValidEntityType reports if the entity type is one of the known values.
func IsValidEntityType(entityType string) bool {
	switch entityType {
	case EntityTypePost, EntityTypeComment, EntityTypeEvent, EntityTypeUser:
		return true
	}
	return false
}
