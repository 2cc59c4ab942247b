package service

import (
	"context"
	"errors"
	"testing"

	"travelthreads/internal/model"
)

func newReportService(reportRepo *mockReportRepository, auditRepo *mockAuditLogRepository) *AdminService {
	return NewAdminService(
		&mockUserRepository{},
		&mockPostRepository{},
		&mockCommentRepository{},
		&mockEventRepository{},
		reportRepo,
		auditRepo,
		nil, // auth service unused on these paths
		nil, // notifications disabled
		nil,
	)
}

func TestAdminService_CreateReport(t *testing.T) {
	svc := newReportService(&mockReportRepository{}, &mockAuditLogRepository{})

	t.Run("reason required", func(t *testing.T) {
		req := model.CreateReportRequest{EntityID: 5, EntityType: model.EntityTypePost, Reason: "  "}
		_, err := svc.CreateReport(context.Background(), 1, req)
		if !errors.Is(err, model.ErrReportReasonRequired) {
			t.Fatalf("expected ErrReportReasonRequired, got %v", err)
		}
	})

	t.Run("unknown entity type", func(t *testing.T) {
		req := model.CreateReportRequest{EntityID: 5, EntityType: "playlist", Reason: "spam"}
		_, err := svc.CreateReport(context.Background(), 1, req)
		if !errors.Is(err, model.ErrInvalidEntityType) {
			t.Fatalf("expected ErrInvalidEntityType, got %v", err)
		}
	})

	t.Run("enters queue as pending", func(t *testing.T) {
		req := model.CreateReportRequest{EntityID: 5, EntityType: model.EntityTypePost, Reason: "spam"}
		report, err := svc.CreateReport(context.Background(), 7, req)
		if err != nil {
			t.Fatalf("CreateReport returned error: %v", err)
		}
		if report.Status != model.ReportStatusPending {
			t.Errorf("expected status pending, got %q", report.Status)
		}
		if report.ReporterID != 7 {
			t.Errorf("expected reporter 7, got %d", report.ReporterID)
		}
	})
}

func TestAdminService_ListReports_InvalidStatus(t *testing.T) {
	svc := newReportService(&mockReportRepository{}, &mockAuditLogRepository{})

	status := "open"
	_, err := svc.ListReports(context.Background(), &status)
	if !errors.Is(err, model.ErrInvalidReportStatus) {
		t.Fatalf("expected ErrInvalidReportStatus, got %v", err)
	}
}

func TestAdminService_ReviewReport(t *testing.T) {
	newRepoWithStatus := func(status string) *mockReportRepository {
		current := status
		repo := &mockReportRepository{}
		repo.getByIDFn = func(ctx context.Context, reportID int64) (*model.Report, error) {
			return &model.Report{ID: reportID, EntityID: 5, EntityType: model.EntityTypePost, Status: current}, nil
		}
		repo.updateStatusFn = func(ctx context.Context, reportID int64, status string, reviewedBy int64) error {
			current = status
			return nil
		}
		return repo
	}

	t.Run("pending is not a review target", func(t *testing.T) {
		svc := newReportService(newRepoWithStatus(model.ReportStatusPending), &mockAuditLogRepository{})

		_, err := svc.ReviewReport(context.Background(), 1, 10, model.ReviewReportRequest{Status: model.ReportStatusPending})
		if !errors.Is(err, model.ErrInvalidReportStatus) {
			t.Fatalf("expected ErrInvalidReportStatus, got %v", err)
		}
	})

	t.Run("terminal states never reopen", func(t *testing.T) {
		svc := newReportService(newRepoWithStatus(model.ReportStatusResolved), &mockAuditLogRepository{})

		_, err := svc.ReviewReport(context.Background(), 1, 10, model.ReviewReportRequest{Status: model.ReportStatusReviewed})
		if !errors.Is(err, model.ErrReportStatusBackwards) {
			t.Fatalf("expected ErrReportStatusBackwards, got %v", err)
		}
	})

	t.Run("forward transition lands and is audited", func(t *testing.T) {
		reportRepo := newRepoWithStatus(model.ReportStatusPending)
		auditRepo := &mockAuditLogRepository{}
		svc := newReportService(reportRepo, auditRepo)

		report, err := svc.ReviewReport(context.Background(), 1, 10, model.ReviewReportRequest{Status: model.ReportStatusResolved})
		if err != nil {
			t.Fatalf("ReviewReport returned error: %v", err)
		}
		if report.Status != model.ReportStatusResolved {
			t.Errorf("expected status resolved, got %q", report.Status)
		}
		if len(reportRepo.updateStatusCalls) != 1 || reportRepo.updateStatusCalls[0] != model.ReportStatusResolved {
			t.Errorf("expected one status update to resolved, got %v", reportRepo.updateStatusCalls)
		}
		if len(auditRepo.entries) != 1 || auditRepo.entries[0].Action != model.AuditActionReviewReport {
			t.Fatalf("expected one review audit entry, got %v", auditRepo.entries)
		}
		if auditRepo.entries[0].AdminID != 1 {
			t.Errorf("expected audit entry by admin 1, got %d", auditRepo.entries[0].AdminID)
		}
	})
}

func TestAdminService_SelfModerationRejected(t *testing.T) {
	svc := newReportService(&mockReportRepository{}, &mockAuditLogRepository{})

	if err := svc.BlockUser(context.Background(), 3, 3, nil); !errors.Is(err, model.ErrCannotModerateSelf) {
		t.Errorf("BlockUser: expected ErrCannotModerateSelf, got %v", err)
	}
	if err := svc.UnblockUser(context.Background(), 3, 3); !errors.Is(err, model.ErrCannotModerateSelf) {
		t.Errorf("UnblockUser: expected ErrCannotModerateSelf, got %v", err)
	}
	if err := svc.GrantAdmin(context.Background(), 3, 3); !errors.Is(err, model.ErrCannotModerateSelf) {
		t.Errorf("GrantAdmin: expected ErrCannotModerateSelf, got %v", err)
	}
	if err := svc.DeleteUserAccount(context.Background(), 3, 3); !errors.Is(err, model.ErrCannotModerateSelf) {
		t.Errorf("DeleteUserAccount: expected ErrCannotModerateSelf, got %v", err)
	}
}

func TestAdminService_DeleteContent(t *testing.T) {
	t.Run("post removed and audited", func(t *testing.T) {
		postRepo := &mockPostRepository{
			getAuthorIDFn: func(ctx context.Context, postID int64) (int64, error) {
				return 8, nil
			},
		}
		auditRepo := &mockAuditLogRepository{}
		svc := NewAdminService(
			&mockUserRepository{},
			postRepo,
			&mockCommentRepository{},
			&mockEventRepository{},
			&mockReportRepository{},
			auditRepo,
			nil,
			nil,
			nil,
		)

		if err := svc.DeleteContent(context.Background(), 1, 42, model.EntityTypePost, nil); err != nil {
			t.Fatalf("DeleteContent returned error: %v", err)
		}
		if len(auditRepo.entries) != 1 || auditRepo.entries[0].Action != model.AuditActionDeleteContent {
			t.Fatalf("expected one delete_content audit entry, got %v", auditRepo.entries)
		}
		if auditRepo.entries[0].TargetID != 42 || auditRepo.entries[0].TargetType != model.EntityTypePost {
			t.Errorf("audit target = %s/%d, want post/42", auditRepo.entries[0].TargetType, auditRepo.entries[0].TargetID)
		}
	})

	t.Run("unknown entity type", func(t *testing.T) {
		svc := newReportService(&mockReportRepository{}, &mockAuditLogRepository{})
		err := svc.DeleteContent(context.Background(), 1, 42, "album", nil)
		if !errors.Is(err, model.ErrInvalidEntityType) {
			t.Errorf("expected ErrInvalidEntityType, got %v", err)
		}
	})

	t.Run("missing post", func(t *testing.T) {
		svc := newReportService(&mockReportRepository{}, &mockAuditLogRepository{})
		err := svc.DeleteContent(context.Background(), 1, 42, model.EntityTypePost, nil)
		if !errors.Is(err, model.ErrPostNotFound) {
			t.Errorf("expected ErrPostNotFound, got %v", err)
		}
	})
}
