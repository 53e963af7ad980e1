package identity

import (
	"context"
	"errors"
	"time"

	"github.com/carebase/carebase/internal/authz"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password too weak")
	ErrUserLimitReached   = errors.New("tenant user limit reached")
)

// User status values
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User is a platform account. TenantID is empty only for the super
// admin; email uniqueness is scoped per tenant.
type User struct {
	ID                  string     `json:"id"`
	TenantID            string     `json:"tenant_id,omitempty"`
	Email               string     `json:"email"`
	FullName            string     `json:"full_name"`
	Role                authz.Role `json:"role"`
	Status              string     `json:"status"`
	PasswordHash        string     `json:"-"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeletedAt           *time.Time `json:"-"`
}

// UserRepository defines the interface for user storage. All lookups
// other than GetByID are tenant-scoped; GetByID still filters on the
// tenant id so a cross-tenant id probe reads as absence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, tenantID, id string) (*User, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, tenantID, userID, passwordHash string) error
	UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*User, int, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
}
