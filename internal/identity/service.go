package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/authz"
	"github.com/carebase/carebase/internal/id"
)

// TenantLimits reports the maximum user count for a tenant.
type TenantLimits interface {
	MaxUsers(ctx context.Context, tenantID string) (int, error)
}

// Service provides identity-related business logic
type Service struct {
	repo               UserRepository
	hasher             *PasswordHasher
	limits             TenantLimits
	auditLogger        audit.Logger
	lockoutMaxAttempts int
	lockoutDuration    time.Duration
}

// NewService creates a new identity service
func NewService(
	repo UserRepository,
	hasher *PasswordHasher,
	limits TenantLimits,
	auditLogger audit.Logger,
	lockoutMaxAttempts int,
	lockoutDuration time.Duration,
) *Service {
	return &Service{
		repo:               repo,
		hasher:             hasher,
		limits:             limits,
		auditLogger:        auditLogger,
		lockoutMaxAttempts: lockoutMaxAttempts,
		lockoutDuration:    lockoutDuration,
	}
}

// Provision creates a user under a tenant. The tenant id comes from
// the caller's resolved context, never from the request body. The
// tenant's user limit is enforced here.
func (s *Service) Provision(ctx context.Context, tenantID, email, fullName, password string, role authz.Role) (*User, error) {
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !role.Valid() || !role.TenantScoped() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}
	if !isStrongPassword(password) {
		return nil, ErrWeakPassword
	}

	if existing, err := s.repo.GetByEmail(ctx, tenantID, email); err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}

	if s.limits != nil {
		max, err := s.limits.MaxUsers(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to read tenant limits: %w", err)
		}
		count, err := s.repo.CountByTenant(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to count users: %w", err)
		}
		if count >= max {
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeUsageLimitReached,
				TenantID: tenantID,
				Resource: "user",
				Metadata: map[string]any{"max_users": max},
			})
			return nil, ErrUserLimitReached
		}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:           id.NewUUIDv7(),
		TenantID:     tenantID,
		Email:        strings.ToLower(email),
		FullName:     fullName,
		Role:         role,
		Status:       StatusActive,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		TenantID: tenantID,
		ActorID:  user.ID,
		Resource: "user",
		Metadata: map[string]any{"email": user.Email, "role": string(role)},
	})

	return user, nil
}

// Authenticate authenticates a user with email and password under a
// tenant, applying the failed-attempt lockout policy.
func (s *Service) Authenticate(ctx context.Context, tenantID, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, tenantID, strings.ToLower(email))
	if err != nil {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tenantID,
			Resource: email,
			Metadata: map[string]any{audit.AttrReason: "user_not_found"},
		})
		return nil, ErrInvalidCredentials
	}

	if user.Status != StatusActive {
		return nil, ErrInvalidCredentials
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tenantID,
			ActorID:  user.ID,
			Resource: "login",
			Metadata: map[string]any{audit.AttrReason: "locked_out"},
		})
		return nil, ErrAccountLocked
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !valid {
		newAttempts := user.FailedLoginAttempts + 1
		var newLockedUntil *time.Time

		if newAttempts >= s.lockoutMaxAttempts {
			until := time.Now().Add(s.lockoutDuration)
			newLockedUntil = &until
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeUserLocked,
				TenantID: tenantID,
				ActorID:  user.ID,
				Resource: "login",
				Metadata: map[string]any{audit.AttrAttempts: newAttempts},
			})
		}

		_ = s.repo.UpdateLockout(ctx, user.ID, newAttempts, newLockedUntil)

		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tenantID,
			ActorID:  user.ID,
			Resource: "login",
			Metadata: map[string]any{
				audit.AttrReason:   "invalid_password",
				audit.AttrAttempts: newAttempts,
			},
		})

		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		_ = s.repo.UpdateLockout(ctx, user.ID, 0, nil)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		TenantID: tenantID,
		ActorID:  user.ID,
		Resource: "login",
	})

	return user, nil
}

// GetUser retrieves a user by id within a tenant.
func (s *Service) GetUser(ctx context.Context, tenantID, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, tenantID, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsers lists a tenant's users with pagination.
func (s *Service) ListUsers(ctx context.Context, tenantID string, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, tenantID, limit, offset)
}

// ChangePassword changes a user's password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, tenantID, userID, oldPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, tenantID, userID)
	if err != nil {
		return ErrUserNotFound
	}

	valid, err := s.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	if !isStrongPassword(newPassword) {
		return ErrWeakPassword
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, tenantID, userID, newHash); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordChanged,
		TenantID: tenantID,
		ActorID:  userID,
		Resource: "user",
	})

	return nil
}

// DeleteUser soft-deletes a user within a tenant.
func (s *Service) DeleteUser(ctx context.Context, tenantID, userID string) error {
	return s.repo.Delete(ctx, tenantID, userID)
}

func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	return len(email) >= 5 && len(email) < 255 && at > 0 && strings.Contains(email[at:], ".")
}

func isStrongPassword(password string) bool {
	return len(password) >= 8
}
