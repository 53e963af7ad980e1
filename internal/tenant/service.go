package tenant

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/id"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Service provides tenant and subscription plan management.
type Service struct {
	repo         Repository
	planRepo     PlanRepository
	userCounter  UsageCounter
	patientCount UsageCounter
	auditLogger  audit.Logger
}

// NewService creates a new tenant service
func NewService(repo Repository, planRepo PlanRepository, userCounter, patientCounter UsageCounter, auditLogger audit.Logger) *Service {
	return &Service{
		repo:         repo,
		planRepo:     planRepo,
		userCounter:  userCounter,
		patientCount: patientCounter,
		auditLogger:  auditLogger,
	}
}

// CreateTenant creates a new tenant on a plan. New tenants start in
// trial and inherit the plan's limits.
func (s *Service) CreateTenant(ctx context.Context, name, subdomain, planID, actorID string) (*Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}
	if !subdomainPattern.MatchString(subdomain) {
		return nil, ErrInvalidSubdomain
	}

	if _, err := s.repo.GetBySubdomain(ctx, subdomain); err == nil {
		return nil, ErrSubdomainTaken
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, ErrPlanNotFound
	}

	now := time.Now()
	t := &Tenant{
		ID:          id.NewUUIDv7(),
		Name:        name,
		Subdomain:   subdomain,
		PlanID:      plan.ID,
		Status:      StatusTrial,
		MaxUsers:    plan.MaxUsers,
		MaxPatients: plan.MaxPatients,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantCreated,
		TenantID: t.ID,
		ActorID:  actorID,
		Resource: "tenant",
		Metadata: map[string]any{"subdomain": subdomain, "plan_id": planID},
	})

	return t, nil
}

// GetTenant retrieves a tenant by ID
func (s *Service) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// ListTenants lists tenants with pagination, returning the total count.
func (s *Service) ListTenants(ctx context.Context, limit, offset int) ([]*Tenant, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// SetStatus moves a tenant into a new lifecycle state. Suspension
// and cancellation take effect at the resolver on the next request.
func (s *Service) SetStatus(ctx context.Context, tenantID string, status Status, actorID string) (*Tenant, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid tenant status: %s", status)
	}

	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	t.Status = status
	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantStatusSet,
		TenantID: t.ID,
		ActorID:  actorID,
		Resource: "tenant",
		Metadata: map[string]any{"status": string(status)},
	})

	return t, nil
}

// Usage reports the tenant's consumption against its plan limits.
func (s *Service) Usage(ctx context.Context, tenantID string) (*Usage, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	users, err := s.userCounter.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	patients, err := s.patientCount.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}

	return &Usage{
		Users:       users,
		MaxUsers:    t.MaxUsers,
		Patients:    patients,
		MaxPatients: t.MaxPatients,
	}, nil
}

// CreatePlan creates a subscription plan.
func (s *Service) CreatePlan(ctx context.Context, name string, priceCents int64, maxUsers, maxPatients int, features []string) (*Plan, error) {
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if maxUsers <= 0 || maxPatients <= 0 {
		return nil, fmt.Errorf("plan limits must be positive")
	}

	now := time.Now()
	p := &Plan{
		ID:          id.NewUUIDv7(),
		Name:        name,
		PriceCents:  priceCents,
		MaxUsers:    maxUsers,
		MaxPatients: maxPatients,
		Features:    features,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.planRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return p, nil
}

// GetPlan retrieves a plan by ID.
func (s *Service) GetPlan(ctx context.Context, id string) (*Plan, error) {
	return s.planRepo.GetByID(ctx, id)
}

// ListPlans lists plans with pagination.
func (s *Service) ListPlans(ctx context.Context, limit, offset int) ([]*Plan, int, error) {
	return s.planRepo.List(ctx, limit, offset)
}

// UpdatePlan updates a plan's price and limits. Existing tenant
// limits are not rewritten; they apply to new tenants only.
func (s *Service) UpdatePlan(ctx context.Context, planID, name string, priceCents int64, maxUsers, maxPatients int, features []string) (*Plan, error) {
	p, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, ErrPlanNotFound
	}

	if name != "" {
		p.Name = name
	}
	if priceCents >= 0 {
		p.PriceCents = priceCents
	}
	if maxUsers > 0 {
		p.MaxUsers = maxUsers
	}
	if maxPatients > 0 {
		p.MaxPatients = maxPatients
	}
	if features != nil {
		p.Features = features
	}
	p.UpdatedAt = time.Now()

	if err := s.planRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return p, nil
}

// DeletePlan removes a plan.
func (s *Service) DeletePlan(ctx context.Context, planID string) error {
	return s.planRepo.Delete(ctx, planID)
}
