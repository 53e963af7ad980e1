package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carebase/carebase/internal/tenant"
)

// PlanRepository implements tenant.PlanRepository
type PlanRepository struct {
	db *DB
}

// NewPlanRepository creates a new subscription plan repository
func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a new subscription plan
func (r *PlanRepository) Create(ctx context.Context, p *tenant.Plan) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO subscription_plans (id, name, price_cents, max_users, max_patients, features, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Name, p.PriceCents, p.MaxUsers, p.MaxPatients, p.Features, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*tenant.Plan, error) {
	var p tenant.Plan
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT id, name, price_cents, max_users, max_patients, features, created_at, updated_at
		FROM subscription_plans
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.PriceCents, &p.MaxUsers, &p.MaxPatients, &p.Features, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, tenant.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &p, nil
}

// Update updates plan information
func (r *PlanRepository) Update(ctx context.Context, p *tenant.Plan) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE subscription_plans SET
			name = $2, price_cents = $3, max_users = $4, max_patients = $5,
			features = $6, updated_at = $7
		WHERE id = $1
	`, p.ID, p.Name, p.PriceCents, p.MaxUsers, p.MaxPatients, p.Features, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return tenant.ErrPlanNotFound
	}
	return nil
}

// Delete removes a plan
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return tenant.ErrPlanNotFound
	}
	return nil
}

// List retrieves plans ordered by price
func (r *PlanRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Plan, int, error) {
	var total int
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM subscription_plans`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count plans: %w", err)
	}

	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, name, price_cents, max_users, max_patients, features, created_at, updated_at
		FROM subscription_plans
		ORDER BY price_cents ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []*tenant.Plan{}
	for rows.Next() {
		var p tenant.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.MaxUsers, &p.MaxPatients, &p.Features, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, &p)
	}
	return plans, total, rows.Err()
}
