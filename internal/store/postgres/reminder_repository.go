package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carebase/carebase/internal/reminder"
)

// ReminderRepository implements reminder.Repository
type ReminderRepository struct {
	db *DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create inserts a new reminder
func (r *ReminderRepository) Create(ctx context.Context, rem *reminder.Reminder) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO reminders (
			id, tenant_id, patient_id, appointment_id, recipient, channel,
			subject, body, send_at, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		rem.ID, rem.TenantID, nullIfEmpty(rem.PatientID), nullIfEmpty(rem.AppointmentID),
		rem.Recipient, rem.Channel, rem.Subject, rem.Body, rem.SendAt, rem.Status,
		rem.CreatedAt, rem.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}
	return nil
}

const reminderColumns = `id, tenant_id, COALESCE(patient_id::text, ''), COALESCE(appointment_id::text, ''),
		recipient, channel, subject, body, send_at, status, last_error, sent_at, created_at, updated_at`

func scanReminder(row pgx.Row) (*reminder.Reminder, error) {
	var rem reminder.Reminder
	var sentAt sql.NullTime
	err := row.Scan(
		&rem.ID, &rem.TenantID, &rem.PatientID, &rem.AppointmentID,
		&rem.Recipient, &rem.Channel, &rem.Subject, &rem.Body, &rem.SendAt, &rem.Status,
		&rem.LastError, &sentAt, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, reminder.ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	if sentAt.Valid {
		rem.SentAt = &sentAt.Time
	}
	return &rem, nil
}

// GetByID retrieves a reminder by ID within a tenant
func (r *ReminderRepository) GetByID(ctx context.Context, tenantID, id string) (*reminder.Reminder, error) {
	row := r.db.q(ctx).QueryRow(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	return scanReminder(row)
}

// Update rewrites a reminder's content and schedule within a tenant
func (r *ReminderRepository) Update(ctx context.Context, rem *reminder.Reminder) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE reminders SET
			recipient = $3, subject = $4, body = $5, send_at = $6, updated_at = $7
		WHERE id = $1 AND tenant_id = $2
	`, rem.ID, rem.TenantID, rem.Recipient, rem.Subject, rem.Body, rem.SendAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return reminder.ErrReminderNotFound
	}
	return nil
}

// Delete removes a reminder within a tenant
func (r *ReminderRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		DELETE FROM reminders WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return reminder.ErrReminderNotFound
	}
	return nil
}

// List retrieves a tenant's reminders with optional filters
func (r *ReminderRepository) List(ctx context.Context, tenantID string, filter reminder.ListFilter) ([]*reminder.Reminder, int, error) {
	where := `tenant_id = $1`
	args := []any{tenantID}
	if filter.PatientID != "" {
		args = append(args, filter.PatientID)
		where += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filter.AppointmentID != "" {
		args = append(args, filter.AppointmentID)
		where += fmt.Sprintf(" AND appointment_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM reminders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reminders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE %s
		ORDER BY send_at ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	reminders := []*reminder.Reminder{}
	for rows.Next() {
		var rem reminder.Reminder
		var sentAt sql.NullTime
		if err := rows.Scan(
			&rem.ID, &rem.TenantID, &rem.PatientID, &rem.AppointmentID,
			&rem.Recipient, &rem.Channel, &rem.Subject, &rem.Body, &rem.SendAt, &rem.Status,
			&rem.LastError, &sentAt, &rem.CreatedAt, &rem.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan reminder: %w", err)
		}
		if sentAt.Valid {
			rem.SentAt = &sentAt.Time
		}
		reminders = append(reminders, &rem)
	}
	return reminders, total, rows.Err()
}

// ClaimDue flips due pending reminders to the processing state in one
// statement and returns them. SKIP LOCKED keeps concurrent dispatchers
// from claiming the same rows.
func (r *ReminderRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*reminder.Reminder, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
		WITH due AS (
			SELECT id FROM reminders
			WHERE status = 'pending' AND send_at <= $1
			ORDER BY send_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE reminders SET status = 'processing', updated_at = NOW()
		FROM due
		WHERE reminders.id = due.id
		RETURNING reminders.id, reminders.tenant_id,
			COALESCE(reminders.patient_id::text, ''), COALESCE(reminders.appointment_id::text, ''),
			reminders.recipient, reminders.channel, reminders.subject, reminders.body,
			reminders.send_at, reminders.status, reminders.last_error, reminders.sent_at,
			reminders.created_at, reminders.updated_at
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due reminders: %w", err)
	}
	defer rows.Close()

	due := []*reminder.Reminder{}
	for rows.Next() {
		var rem reminder.Reminder
		var sentAt sql.NullTime
		if err := rows.Scan(
			&rem.ID, &rem.TenantID, &rem.PatientID, &rem.AppointmentID,
			&rem.Recipient, &rem.Channel, &rem.Subject, &rem.Body, &rem.SendAt, &rem.Status,
			&rem.LastError, &sentAt, &rem.CreatedAt, &rem.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		due = append(due, &rem)
	}
	return due, rows.Err()
}

// MarkSent records successful delivery
func (r *ReminderRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		UPDATE reminders SET status = 'sent', sent_at = $2, updated_at = NOW()
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure
func (r *ReminderRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		UPDATE reminders SET status = 'failed', last_error = $2, updated_at = NOW()
		WHERE id = $1
	`, id, reason)
	if err != nil {
		return fmt.Errorf("failed to mark reminder failed: %w", err)
	}
	return nil
}
