package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carebase/carebase/internal/prescription"
)

// PrescriptionRepository implements prescription.Repository. Items are
// stored as a JSONB array.
type PrescriptionRepository struct {
	db *DB
}

// NewPrescriptionRepository creates a new prescription repository
func NewPrescriptionRepository(db *DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

// Create inserts a new prescription
func (r *PrescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO prescriptions (
			id, tenant_id, patient_id, doctor_id, appointment_id, items, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		p.ID, p.TenantID, p.PatientID, p.DoctorID, nullIfEmpty(p.AppointmentID),
		p.Items, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prescription: %w", err)
	}
	return nil
}

const prescriptionColumns = `id, tenant_id, patient_id, doctor_id, COALESCE(appointment_id::text, ''),
		items, notes, created_at, updated_at`

// GetByID retrieves a prescription by ID within a tenant
func (r *PrescriptionRepository) GetByID(ctx context.Context, tenantID, id string) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescriptions
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(
		&p.ID, &p.TenantID, &p.PatientID, &p.DoctorID, &p.AppointmentID,
		&p.Items, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return &p, nil
}

// Update rewrites prescription items and notes within a tenant
func (r *PrescriptionRepository) Update(ctx context.Context, p *prescription.Prescription) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE prescriptions SET items = $3, notes = $4, updated_at = $5
		WHERE id = $1 AND tenant_id = $2
	`, p.ID, p.TenantID, p.Items, p.Notes, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update prescription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

// Delete removes a prescription within a tenant
func (r *PrescriptionRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		DELETE FROM prescriptions WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

// List retrieves a tenant's prescriptions with optional filters
func (r *PrescriptionRepository) List(ctx context.Context, tenantID string, filter prescription.ListFilter) ([]*prescription.Prescription, int, error) {
	where := `tenant_id = $1`
	args := []any{tenantID}
	if filter.PatientID != "" {
		args = append(args, filter.PatientID)
		where += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filter.DoctorID != "" {
		args = append(args, filter.DoctorID)
		where += fmt.Sprintf(" AND doctor_id = $%d", len(args))
	}

	var total int
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+prescriptionColumns+`
		FROM prescriptions
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	defer rows.Close()

	prescriptions := []*prescription.Prescription{}
	for rows.Next() {
		var p prescription.Prescription
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.PatientID, &p.DoctorID, &p.AppointmentID,
			&p.Items, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan prescription: %w", err)
		}
		prescriptions = append(prescriptions, &p)
	}
	return prescriptions, total, rows.Err()
}
