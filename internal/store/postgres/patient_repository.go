package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carebase/carebase/internal/patient"
)

// PatientRepository implements patient.Repository
type PatientRepository struct {
	db *DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Create inserts a new patient
func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO patients (
			id, tenant_id, first_name, last_name, dob, gender, phone, email,
			address, blood_group, allergies, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		p.ID, p.TenantID, p.FirstName, p.LastName, p.DOB, p.Gender, p.Phone, p.Email,
		p.Address, p.BloodGroup, p.Allergies, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert patient: %w", err)
	}
	return nil
}

const patientColumns = `id, tenant_id, first_name, last_name, dob, gender, phone, email,
		address, blood_group, allergies, created_at, updated_at`

// GetByID retrieves a patient by ID within a tenant
func (r *PatientRepository) GetByID(ctx context.Context, tenantID, id string) (*patient.Patient, error) {
	var p patient.Patient
	var dob sql.NullTime

	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`, id, tenantID).Scan(
		&p.ID, &p.TenantID, &p.FirstName, &p.LastName, &dob, &p.Gender, &p.Phone, &p.Email,
		&p.Address, &p.BloodGroup, &p.Allergies, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if dob.Valid {
		p.DOB = dob.Time
	}
	return &p, nil
}

// Update updates patient information within a tenant
func (r *PatientRepository) Update(ctx context.Context, p *patient.Patient) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE patients SET
			first_name = $3, last_name = $4, dob = $5, gender = $6, phone = $7,
			email = $8, address = $9, blood_group = $10, allergies = $11, updated_at = $12
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`,
		p.ID, p.TenantID, p.FirstName, p.LastName, p.DOB, p.Gender, p.Phone,
		p.Email, p.Address, p.BloodGroup, p.Allergies, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if result.RowsAffected() == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

// Delete soft-deletes a patient within a tenant
func (r *PatientRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE patients SET deleted_at = $3
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`, id, tenantID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if result.RowsAffected() == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

// List retrieves a tenant's patients, optionally matching a search
// term against name, phone or email
func (r *PatientRepository) List(ctx context.Context, tenantID string, filter patient.ListFilter) ([]*patient.Patient, int, error) {
	where := `tenant_id = $1 AND deleted_at IS NULL`
	args := []any{tenantID}
	if filter.Search != "" {
		where += ` AND (first_name ILIKE $2 OR last_name ILIKE $2 OR phone ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+patientColumns+`
		FROM patients
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	patients := []*patient.Patient{}
	for rows.Next() {
		var p patient.Patient
		var dob sql.NullTime
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.FirstName, &p.LastName, &dob, &p.Gender, &p.Phone, &p.Email,
			&p.Address, &p.BloodGroup, &p.Allergies, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan patient: %w", err)
		}
		if dob.Valid {
			p.DOB = dob.Time
		}
		patients = append(patients, &p)
	}
	return patients, total, rows.Err()
}

// CountByTenant counts a tenant's active patients
func (r *PatientRepository) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM patients WHERE tenant_id = $1 AND deleted_at IS NULL
	`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}
