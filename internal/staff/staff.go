package staff

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrMemberNotFound = errors.New("staff member not found")
)

// Doctor is a clinician profile linked to a user account.
type Doctor struct {
	ID                   string    `json:"id"`
	TenantID             string    `json:"tenant_id"`
	UserID               string    `json:"user_id"`
	FullName             string    `json:"full_name"`
	Specialty            string    `json:"specialty"`
	LicenseNumber        string    `json:"license_number"`
	ConsultationFeeCents int64     `json:"consultation_fee_cents"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Member is a non-clinician staff profile linked to a user account.
type Member struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	Designation string    `json:"designation"`
	Department  string    `json:"department"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DoctorRepository defines the interface for doctor profile storage
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, tenantID, id string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*Doctor, int, error)
}

// MemberRepository defines the interface for staff profile storage
type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, tenantID, id string) (*Member, error)
	Update(ctx context.Context, m *Member) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*Member, int, error)
}

// TxRunner executes fn atomically. The user account and its linked
// profile are created in one transaction so a failure between the
// two writes never leaves an orphaned record.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
