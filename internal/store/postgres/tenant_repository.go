package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carebase/carebase/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create inserts a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO tenants (id, name, subdomain, plan_id, status, max_users, max_patients, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.Name, t.Subdomain, nullIfEmpty(t.PlanID), t.Status, t.MaxUsers, t.MaxPatients, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrSubdomainTaken
		}
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

const tenantColumns = `id, name, subdomain, COALESCE(plan_id::text, ''), status, max_users, max_patients, created_at, updated_at`

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.PlanID, &t.Status, &t.MaxUsers, &t.MaxPatients, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	row := r.db.q(ctx).QueryRow(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE id = $1
	`, id)
	return scanTenant(row)
}

// GetBySubdomain retrieves a tenant by its subdomain
func (r *TenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	row := r.db.q(ctx).QueryRow(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1
	`, subdomain)
	return scanTenant(row)
}

// Update updates tenant information
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE tenants SET
			name = $2, plan_id = $3, status = $4,
			max_users = $5, max_patients = $6, updated_at = $7
		WHERE id = $1
	`, t.ID, t.Name, nullIfEmpty(t.PlanID), t.Status, t.MaxUsers, t.MaxPatients, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// List retrieves tenants ordered by creation time
func (r *TenantRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, int, error) {
	var total int
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT `+tenantColumns+` FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []*tenant.Tenant{}
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Subdomain, &t.PlanID, &t.Status, &t.MaxUsers, &t.MaxPatients, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &t)
	}
	return tenants, total, rows.Err()
}
