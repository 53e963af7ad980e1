package tenant

import "context"

// Repository defines the interface for tenant storage
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	List(ctx context.Context, limit, offset int) ([]*Tenant, int, error)
}

// PlanRepository defines the interface for subscription plan storage
type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id string) (*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*Plan, int, error)
}

// UsageCounter reports per-tenant record counts for limit checks.
type UsageCounter interface {
	CountByTenant(ctx context.Context, tenantID string) (int, error)
}
