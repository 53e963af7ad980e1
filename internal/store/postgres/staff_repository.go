package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carebase/carebase/internal/staff"
)

// DoctorRepository implements staff.DoctorRepository
type DoctorRepository struct {
	db *DB
}

// NewDoctorRepository creates a new doctor repository
func NewDoctorRepository(db *DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// Create inserts a new doctor profile
func (r *DoctorRepository) Create(ctx context.Context, d *staff.Doctor) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO doctors (id, tenant_id, user_id, full_name, specialty, license_number, consultation_fee_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, d.ID, d.TenantID, d.UserID, d.FullName, d.Specialty, d.LicenseNumber, d.ConsultationFeeCents, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert doctor: %w", err)
	}
	return nil
}

// GetByID retrieves a doctor by ID within a tenant
func (r *DoctorRepository) GetByID(ctx context.Context, tenantID, id string) (*staff.Doctor, error) {
	var d staff.Doctor
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT id, tenant_id, user_id, full_name, specialty, license_number, consultation_fee_cents, created_at, updated_at
		FROM doctors
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(
		&d.ID, &d.TenantID, &d.UserID, &d.FullName, &d.Specialty, &d.LicenseNumber,
		&d.ConsultationFeeCents, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, staff.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &d, nil
}

// Update updates doctor profile information within a tenant
func (r *DoctorRepository) Update(ctx context.Context, d *staff.Doctor) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE doctors SET
			full_name = $3, specialty = $4, license_number = $5, consultation_fee_cents = $6, updated_at = $7
		WHERE id = $1 AND tenant_id = $2
	`, d.ID, d.TenantID, d.FullName, d.Specialty, d.LicenseNumber, d.ConsultationFeeCents, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	if result.RowsAffected() == 0 {
		return staff.ErrDoctorNotFound
	}
	return nil
}

// Delete removes a doctor profile within a tenant
func (r *DoctorRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		DELETE FROM doctors WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	if result.RowsAffected() == 0 {
		return staff.ErrDoctorNotFound
	}
	return nil
}

// List retrieves a tenant's doctors ordered by name
func (r *DoctorRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*staff.Doctor, int, error) {
	var total int
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count doctors: %w", err)
	}

	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, tenant_id, user_id, full_name, specialty, license_number, consultation_fee_cents, created_at, updated_at
		FROM doctors
		WHERE tenant_id = $1
		ORDER BY full_name ASC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer rows.Close()

	doctors := []*staff.Doctor{}
	for rows.Next() {
		var d staff.Doctor
		if err := rows.Scan(
			&d.ID, &d.TenantID, &d.UserID, &d.FullName, &d.Specialty, &d.LicenseNumber,
			&d.ConsultationFeeCents, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, &d)
	}
	return doctors, total, rows.Err()
}

// MemberRepository implements staff.MemberRepository
type MemberRepository struct {
	db *DB
}

// NewMemberRepository creates a new staff member repository
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts a new staff member profile
func (r *MemberRepository) Create(ctx context.Context, m *staff.Member) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO staff_members (id, tenant_id, user_id, full_name, designation, department, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.TenantID, m.UserID, m.FullName, m.Designation, m.Department, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert staff member: %w", err)
	}
	return nil
}

// GetByID retrieves a staff member by ID within a tenant
func (r *MemberRepository) GetByID(ctx context.Context, tenantID, id string) (*staff.Member, error) {
	var m staff.Member
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT id, tenant_id, user_id, full_name, designation, department, created_at, updated_at
		FROM staff_members
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(
		&m.ID, &m.TenantID, &m.UserID, &m.FullName, &m.Designation, &m.Department, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, staff.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return &m, nil
}

// Update updates staff member profile information within a tenant
func (r *MemberRepository) Update(ctx context.Context, m *staff.Member) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE staff_members SET
			full_name = $3, designation = $4, department = $5, updated_at = $6
		WHERE id = $1 AND tenant_id = $2
	`, m.ID, m.TenantID, m.FullName, m.Designation, m.Department, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update staff member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return staff.ErrMemberNotFound
	}
	return nil
}

// Delete removes a staff member profile within a tenant
func (r *MemberRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		DELETE FROM staff_members WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return staff.ErrMemberNotFound
	}
	return nil
}

// List retrieves a tenant's staff members ordered by name
func (r *MemberRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*staff.Member, int, error) {
	var total int
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM staff_members WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count staff members: %w", err)
	}

	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, tenant_id, user_id, full_name, designation, department, created_at, updated_at
		FROM staff_members
		WHERE tenant_id = $1
		ORDER BY full_name ASC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list staff members: %w", err)
	}
	defer rows.Close()

	members := []*staff.Member{}
	for rows.Next() {
		var m staff.Member
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.UserID, &m.FullName, &m.Designation, &m.Department, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan staff member: %w", err)
		}
		members = append(members, &m)
	}
	return members, total, rows.Err()
}
