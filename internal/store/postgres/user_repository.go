package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carebase/carebase/internal/identity"
)

// UserRepository implements identity.UserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user account
func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO users (
			id, tenant_id, email, full_name, role, status, password_hash,
			failed_login_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		user.ID, nullIfEmpty(user.TenantID), user.Email, user.FullName, user.Role, user.Status,
		user.PasswordHash, user.FailedLoginAttempts, user.LockedUntil,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

const userColumns = `id, COALESCE(tenant_id::text, ''), email, full_name, role, status, password_hash,
		failed_login_attempts, locked_until, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*identity.User, error) {
	var user identity.User
	var lockedUntil, deletedAt sql.NullTime

	err := row.Scan(
		&user.ID, &user.TenantID, &user.Email, &user.FullName, &user.Role, &user.Status,
		&user.PasswordHash, &user.FailedLoginAttempts, &lockedUntil,
		&user.CreatedAt, &user.UpdatedAt, &deletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if lockedUntil.Valid {
		user.LockedUntil = &lockedUntil.Time
	}
	if deletedAt.Valid {
		user.DeletedAt = &deletedAt.Time
	}
	return &user, nil
}

// GetByID retrieves a user by ID within a tenant. An empty tenant id
// matches only platform accounts.
func (r *UserRepository) GetByID(ctx context.Context, tenantID, id string) (*identity.User, error) {
	row := r.db.q(ctx).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND tenant_id IS NOT DISTINCT FROM NULLIF($2, '')::uuid AND deleted_at IS NULL
	`, id, tenantID)
	return scanUser(row)
}

// GetByEmail retrieves a user by email within a tenant
func (r *UserRepository) GetByEmail(ctx context.Context, tenantID, email string) (*identity.User, error) {
	row := r.db.q(ctx).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE tenant_id IS NOT DISTINCT FROM NULLIF($1, '')::uuid AND email = $2 AND deleted_at IS NULL
	`, tenantID, email)
	return scanUser(row)
}

// Update updates user information
func (r *UserRepository) Update(ctx context.Context, user *identity.User) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE users SET
			email = $3, full_name = $4, role = $5, status = $6, updated_at = $7
		WHERE id = $1 AND tenant_id IS NOT DISTINCT FROM NULLIF($2, '')::uuid AND deleted_at IS NULL
	`, user.ID, user.TenantID, user.Email, user.FullName, user.Role, user.Status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// UpdatePassword updates a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, tenantID, userID, passwordHash string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE users SET password_hash = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id IS NOT DISTINCT FROM NULLIF($2, '')::uuid AND deleted_at IS NULL
	`, userID, tenantID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// UpdateLockout updates user lockout status
func (r *UserRepository) UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = $1, locked_until = $2, updated_at = NOW()
		WHERE id = $3
	`, failedAttempts, lockedUntil, userID)
	if err != nil {
		return fmt.Errorf("failed to update user lockout status: %w", err)
	}
	return nil
}

// Delete soft-deletes a user within a tenant
func (r *UserRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE users SET deleted_at = $3
		WHERE id = $1 AND tenant_id IS NOT DISTINCT FROM NULLIF($2, '')::uuid AND deleted_at IS NULL
	`, id, tenantID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// List retrieves a tenant's users ordered by creation time
func (r *UserRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*identity.User, int, error) {
	total, err := r.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*identity.User{}
	for rows.Next() {
		var user identity.User
		var lockedUntil, deletedAt sql.NullTime
		if err := rows.Scan(
			&user.ID, &user.TenantID, &user.Email, &user.FullName, &user.Role, &user.Status,
			&user.PasswordHash, &user.FailedLoginAttempts, &lockedUntil,
			&user.CreatedAt, &user.UpdatedAt, &deletedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		if lockedUntil.Valid {
			user.LockedUntil = &lockedUntil.Time
		}
		users = append(users, &user)
	}
	return users, total, rows.Err()
}

// CountByTenant counts a tenant's active users
func (r *UserRepository) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND deleted_at IS NULL
	`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
