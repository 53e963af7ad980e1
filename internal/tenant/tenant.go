package tenant

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrSubdomainTaken   = errors.New("subdomain already in use")
	ErrInvalidSubdomain = errors.New("invalid subdomain")
	ErrTenantNotActive  = errors.New("tenant is not active")
	ErrPlanNotFound     = errors.New("subscription plan not found")
)

// Status is the tenant lifecycle state.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusSuspended, StatusCancelled:
		return true
	}
	return false
}

// Tenant represents one hospital on the platform. The subdomain is
// globally unique and is how inbound requests are resolved.
type Tenant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Subdomain   string    `json:"subdomain"`
	PlanID      string    `json:"plan_id"`
	Status      Status    `json:"status"`
	MaxUsers    int       `json:"max_users"`
	MaxPatients int       `json:"max_patients"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CanServe reports whether requests for this tenant should be
// admitted. Trial tenants are served; suspended and cancelled ones
// are rejected before authentication.
func (t *Tenant) CanServe() bool {
	return t.Status == StatusTrial || t.Status == StatusActive
}

// Usage is the tenant's current consumption against plan limits.
type Usage struct {
	Users       int `json:"users"`
	MaxUsers    int `json:"max_users"`
	Patients    int `json:"patients"`
	MaxPatients int `json:"max_patients"`
}
