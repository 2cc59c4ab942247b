package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"travelthreads/internal/model"
	"travelthreads/internal/repository"
)

// AdminService covers moderation: blocking, admin grants, account removal,
// the report queue and the audit trail. Every action lands in audit_logs.
type AdminService struct {
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	eventRepo   repository.EventRepository
	reportRepo  repository.ReportRepository
	auditRepo   repository.AuditLogRepository
	authService *AuthService
	notifier    *NotificationService
	db          *sqlx.DB
}

func NewAdminService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	eventRepo repository.EventRepository,
	reportRepo repository.ReportRepository,
	auditRepo repository.AuditLogRepository,
	authService *AuthService,
	notifier *NotificationService,
	db *sqlx.DB,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		eventRepo:   eventRepo,
		reportRepo:  reportRepo,
		auditRepo:   auditRepo,
		authService: authService,
		notifier:    notifier,
		db:          db,
	}
}

// BlockUser flags the account. Blocked users cannot log in; their refresh
// tokens are revoked best-effort after the flag lands.
func (s *AdminService) BlockUser(ctx context.Context, adminID, targetID int64, reason *string) error {
	if adminID == targetID {
		return model.ErrCannotModerateSelf
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.SetBlocked(ctx, tx, targetID, true, reason); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if err := s.authService.RevokeAllUserTokens(ctx, targetID); err != nil {
		log.Printf("[AdminService] revoke tokens FAILED: user=%d err=%v", targetID, err)
	}

	s.notifySystem(ctx, targetID, model.NotificationTypeBlocked, "Your account has been blocked")
	s.audit(ctx, adminID, model.AuditActionBlockUser, model.EntityTypeUser, targetID, reason)
	return nil
}

// UnblockUser clears the blocked flag.
func (s *AdminService) UnblockUser(ctx context.Context, adminID, targetID int64) error {
	if adminID == targetID {
		return model.ErrCannotModerateSelf
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.SetBlocked(ctx, tx, targetID, false, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.notifySystem(ctx, targetID, model.NotificationTypeUnblocked, "Your account has been unblocked")
	s.audit(ctx, adminID, model.AuditActionUnblockUser, model.EntityTypeUser, targetID, nil)
	return nil
}

// GrantAdmin promotes a user to admin.
func (s *AdminService) GrantAdmin(ctx context.Context, adminID, targetID int64) error {
	return s.setAdmin(ctx, adminID, targetID, true)
}

// RevokeAdmin demotes an admin back to a regular user.
func (s *AdminService) RevokeAdmin(ctx context.Context, adminID, targetID int64) error {
	return s.setAdmin(ctx, adminID, targetID, false)
}

func (s *AdminService) setAdmin(ctx context.Context, adminID, targetID int64, grant bool) error {
	if adminID == targetID {
		return model.ErrCannotModerateSelf
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.SetAdmin(ctx, tx, targetID, grant); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if grant {
		s.notifySystem(ctx, targetID, model.NotificationTypeAdminGranted, "You have been granted admin privileges")
		s.audit(ctx, adminID, model.AuditActionGrantAdmin, model.EntityTypeUser, targetID, nil)
	} else {
		s.notifySystem(ctx, targetID, model.NotificationTypeAdminRevoked, "Your admin privileges have been revoked")
		s.audit(ctx, adminID, model.AuditActionRevokeAdmin, model.EntityTypeUser, targetID, nil)
	}
	return nil
}

// DeleteUserAccount removes the user and all data they own in one database
// transaction, then revokes their refresh tokens best-effort. The token
// sweep is outside the transaction; a failure there only delays expiry.
func (s *AdminService) DeleteUserAccount(ctx context.Context, adminID, targetID int64) error {
	if adminID == targetID {
		return model.ErrCannotModerateSelf
	}

	if err := s.userRepo.DeleteAccount(ctx, targetID); err != nil {
		return err
	}

	if err := s.authService.RevokeAllUserTokens(ctx, targetID); err != nil {
		log.Printf("[AdminService] revoke tokens after delete FAILED: user=%d err=%v", targetID, err)
	}

	s.audit(ctx, adminID, model.AuditActionDeleteUser, model.EntityTypeUser, targetID, nil)
	return nil
}

// CreateReport files a moderation ticket. Any authenticated user may
// report; the ticket enters the queue as pending.
func (s *AdminService) CreateReport(ctx context.Context, reporterID int64, req model.CreateReportRequest) (*model.Report, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, model.ErrReportReasonRequired
	}
	if !model.IsValidEntityType(req.EntityType) {
		return nil, model.ErrInvalidEntityType
	}

	report := &model.Report{
		ReporterID: reporterID,
		EntityID:   req.EntityID,
		EntityType: req.EntityType,
		Reason:     req.Reason,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports returns the queue, optionally filtered by status.
func (s *AdminService) ListReports(ctx context.Context, status *string) ([]model.Report, error) {
	if status != nil {
		switch *status {
		case model.ReportStatusPending, model.ReportStatusReviewed,
			model.ReportStatusResolved, model.ReportStatusDismissed:
		default:
			return nil, model.ErrInvalidReportStatus
		}
	}
	return s.reportRepo.List(ctx, status)
}

// ReviewReport advances a report's status. Transitions only move forward;
// resolved and dismissed are terminal. With DeleteContent set, the
// reported entity is removed and its owner notified.
func (s *AdminService) ReviewReport(ctx context.Context, adminID, reportID int64, req model.ReviewReportRequest) (*model.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	switch req.Status {
	case model.ReportStatusReviewed, model.ReportStatusResolved, model.ReportStatusDismissed:
	default:
		return nil, model.ErrInvalidReportStatus
	}
	if !model.CanTransitionReportStatus(report.Status, req.Status) {
		return nil, model.ErrReportStatusBackwards
	}

	if req.DeleteContent {
		if err := s.DeleteContent(ctx, adminID, report.EntityID, report.EntityType, req.Reason); err != nil {
			return nil, err
		}
	}

	if err := s.reportRepo.UpdateStatus(ctx, reportID, req.Status, adminID); err != nil {
		return nil, err
	}

	s.audit(ctx, adminID, model.AuditActionReviewReport, report.EntityType, report.EntityID, req.Reason)
	return s.reportRepo.GetByID(ctx, reportID)
}

// ListAuditLogs returns the most recent admin actions.
func (s *AdminService) ListAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.auditRepo.ListRecent(ctx, limit)
}

// DeleteContent removes a post, comment, event or user account by type,
// notifies the owner and writes the audit entry. Exposed as a standalone
// moderation action and reused by the report review flow.
func (s *AdminService) DeleteContent(ctx context.Context, adminID, entityID int64, entityType string, reason *string) error {
	var ownerID int64

	switch entityType {
	case model.EntityTypePost:
		authorID, err := s.postRepo.GetAuthorID(ctx, entityID)
		if err != nil {
			return err
		}
		if err := s.postRepo.Delete(ctx, entityID, authorID); err != nil {
			return err
		}
		ownerID = authorID

	case model.EntityTypeComment:
		comment, err := s.commentRepo.GetByID(ctx, entityID)
		if err != nil {
			return err
		}
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		postID, removed, err := s.commentRepo.Delete(ctx, tx, entityID)
		if err != nil {
			return err
		}
		if err := s.postRepo.IncrementCommentCount(ctx, tx, postID, -int(removed)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		ownerID = comment.UserID

	case model.EntityTypeEvent:
		authorID, err := s.eventRepo.GetAuthorID(ctx, entityID)
		if err != nil {
			return err
		}
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := s.eventRepo.Delete(ctx, tx, entityID); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		ownerID = authorID

	case model.EntityTypeUser:
		return s.DeleteUserAccount(ctx, adminID, entityID)

	default:
		return model.ErrInvalidEntityType
	}

	s.notifySystem(ctx, ownerID, model.NotificationTypeContentRemoved, "Your content was removed by a moderator")
	s.audit(ctx, adminID, model.AuditActionDeleteContent, entityType, entityID, reason)
	return nil
}

func (s *AdminService) notifySystem(ctx context.Context, userID int64, notifType, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CreateSystemNotification(ctx, userID, notifType, message, nil, nil); err != nil {
		log.Printf("[AdminService] notify FAILED: user=%d type=%s err=%v", userID, notifType, err)
	}
}

func (s *AdminService) audit(ctx context.Context, adminID int64, action, targetType string, targetID int64, reason *string) {
	entry := &model.AuditLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
	}
	if err := s.auditRepo.Insert(ctx, entry); err != nil {
		log.Printf("[AdminService] audit insert FAILED: action=%s target=%d err=%v", action, targetID, err)
	}
}
