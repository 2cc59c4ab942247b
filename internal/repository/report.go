package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"travelthreads/internal/model"
)

const reportColumns = `id, reporter_id, entity_id, entity_type, reason, status, created_at, reviewed_at, reviewed_by`

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	query := `
		INSERT INTO reports (reporter_id, entity_id, entity_type, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		report.ReporterID, report.EntityID, report.EntityType, report.Reason)
	if err := row.Scan(&report.ID, &report.Status, &report.CreatedAt); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, reportID int64) (*model.Report, error) {
	var report model.Report
	err := r.db.GetContext(ctx, &report,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, reportID)
	if err == sql.ErrNoRows {
		return nil, model.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}

// List returns reports newest first, optionally filtered to one status.
func (r *reportRepository) List(ctx context.Context, status *string) ([]model.Report, error) {
	var reports []model.Report
	var err error

	if status == nil {
		err = r.db.SelectContext(ctx, &reports,
			`SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id DESC`)
	} else {
		err = r.db.SelectContext(ctx, &reports,
			`SELECT `+reportColumns+` FROM reports WHERE status = $1 ORDER BY created_at DESC, id DESC`,
			*status)
	}
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) UpdateStatus(ctx context.Context, reportID int64, status string, reviewedBy int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE reports
		SET status = $1, reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $3
	`, status, reviewedBy, reportID)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrReportNotFound
	}
	return nil
}

type auditLogRepository struct {
	db *sqlx.DB
}

func NewAuditLogRepository(db *sqlx.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Insert(ctx context.Context, entry *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (admin_id, action, target_type, target_id, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		entry.AdminID, entry.Action, entry.TargetType, entry.TargetID, entry.Reason)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *auditLogRepository) ListRecent(ctx context.Context, limit int) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, admin_id, action, target_type, target_id, reason, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
