package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carebase/carebase/internal/report"
)

// ReportRepository implements report.Repository
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO reports (
			id, tenant_id, patient_id, doctor_id, title, report_type, findings,
			file_name, file_path, file_size, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		rep.ID, rep.TenantID, rep.PatientID, nullIfEmpty(rep.DoctorID), rep.Title,
		rep.ReportType, rep.Findings, rep.FileName, rep.FilePath, rep.FileSize,
		rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

const reportColumns = `id, tenant_id, patient_id, COALESCE(doctor_id::text, ''), title, report_type,
		findings, file_name, file_path, file_size, created_at, updated_at`

// GetByID retrieves a report by ID within a tenant
func (r *ReportRepository) GetByID(ctx context.Context, tenantID, id string) (*report.Report, error) {
	var rep report.Report
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(
		&rep.ID, &rep.TenantID, &rep.PatientID, &rep.DoctorID, &rep.Title, &rep.ReportType,
		&rep.Findings, &rep.FileName, &rep.FilePath, &rep.FileSize, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, report.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &rep, nil
}

// Update updates report text fields within a tenant
func (r *ReportRepository) Update(ctx context.Context, rep *report.Report) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE reports SET title = $3, report_type = $4, findings = $5, updated_at = $6
		WHERE id = $1 AND tenant_id = $2
	`, rep.ID, rep.TenantID, rep.Title, rep.ReportType, rep.Findings, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return report.ErrReportNotFound
	}
	return nil
}

// Delete removes a report within a tenant
func (r *ReportRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		DELETE FROM reports WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return report.ErrReportNotFound
	}
	return nil
}

// List retrieves a tenant's reports with optional filters
func (r *ReportRepository) List(ctx context.Context, tenantID string, filter report.ListFilter) ([]*report.Report, int, error) {
	where := `tenant_id = $1`
	args := []any{tenantID}
	if filter.PatientID != "" {
		args = append(args, filter.PatientID)
		where += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filter.ReportType != "" {
		args = append(args, filter.ReportType)
		where += fmt.Sprintf(" AND report_type = $%d", len(args))
	}

	var total int
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM reports WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+reportColumns+`
		FROM reports
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*report.Report{}
	for rows.Next() {
		var rep report.Report
		if err := rows.Scan(
			&rep.ID, &rep.TenantID, &rep.PatientID, &rep.DoctorID, &rep.Title, &rep.ReportType,
			&rep.Findings, &rep.FileName, &rep.FilePath, &rep.FileSize, &rep.CreatedAt, &rep.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &rep)
	}
	return reports, total, rows.Err()
}
