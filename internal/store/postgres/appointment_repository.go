package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carebase/carebase/internal/appointment"
)

// AppointmentRepository implements appointment.Repository
type AppointmentRepository struct {
	db *DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create inserts a new appointment
func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO appointments (
			id, tenant_id, patient_id, doctor_id, scheduled_at, duration_min,
			reason, notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		a.ID, a.TenantID, a.PatientID, a.DoctorID, a.ScheduledAt, a.DurationMin,
		a.Reason, a.Notes, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

const appointmentColumns = `id, tenant_id, patient_id, doctor_id, scheduled_at, duration_min,
		reason, notes, status, created_at, updated_at`

// GetByID retrieves an appointment by ID within a tenant
func (r *AppointmentRepository) GetByID(ctx context.Context, tenantID, id string) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(
		&a.ID, &a.TenantID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.DurationMin,
		&a.Reason, &a.Notes, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

// Update updates appointment details within a tenant
func (r *AppointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE appointments SET
			scheduled_at = $3, duration_min = $4, reason = $5, notes = $6,
			status = $7, updated_at = $8
		WHERE id = $1 AND tenant_id = $2
	`, a.ID, a.TenantID, a.ScheduledAt, a.DurationMin, a.Reason, a.Notes, a.Status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

// Delete removes an appointment within a tenant
func (r *AppointmentRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		DELETE FROM appointments WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

// List retrieves a tenant's appointments with optional filters
func (r *AppointmentRepository) List(ctx context.Context, tenantID string, filter appointment.ListFilter) ([]*appointment.Appointment, int, error) {
	where := `tenant_id = $1`
	args := []any{tenantID}

	addFilter := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}
	if filter.PatientID != "" {
		addFilter("patient_id = $%d", filter.PatientID)
	}
	if filter.DoctorID != "" {
		addFilter("doctor_id = $%d", filter.DoctorID)
	}
	if filter.Status != "" {
		addFilter("status = $%d", filter.Status)
	}
	if !filter.From.IsZero() {
		addFilter("scheduled_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		addFilter("scheduled_at < $%d", filter.To)
	}

	var total int
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE %s
		ORDER BY scheduled_at ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	appointments := []*appointment.Appointment{}
	for rows.Next() {
		var a appointment.Appointment
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.DurationMin,
			&a.Reason, &a.Notes, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, &a)
	}
	return appointments, total, rows.Err()
}
