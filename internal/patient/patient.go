package patient

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrPatientLimitReached = errors.New("tenant patient limit reached")
)

// Patient is a tenant-scoped medical record subject. The tenant id
// is stamped at creation and never changes.
type Patient struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	DOB        time.Time  `json:"dob"`
	Gender     string     `json:"gender"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
	Address    string     `json:"address"`
	BloodGroup string     `json:"blood_group"`
	Allergies  []string   `json:"allergies"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"-"`
}

// ListFilter narrows patient listings.
type ListFilter struct {
	Search string // matches name, phone or email
	Limit  int
	Offset int
}

// Repository defines the interface for patient storage. Every method
// filters on the tenant id; a cross-tenant id reads as absence.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, tenantID, id string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Patient, int, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
}
