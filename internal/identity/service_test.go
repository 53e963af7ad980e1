package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/authz"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, tenantID, id string) (*User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, tenantID, email string) (*User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, tenantID, userID, hash string) error {
	args := m.Called(ctx, tenantID, userID, hash)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateLockout(ctx context.Context, userID string, attempts int, until *time.Time) error {
	args := m.Called(ctx, userID, attempts, until)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*User, int, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*User), args.Int(1), args.Error(2)
}

func (m *mockUserRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

type mockLimits struct {
	mock.Mock
}

func (m *mockLimits) MaxUsers(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func testHasher() *PasswordHasher {
	// Cheap parameters keep the test suite fast
	return NewPasswordHasher(8*1024, 1, 1, 16, 32)
}

func newTestService(repo *mockUserRepo, limits *mockLimits) *Service {
	return NewService(repo, testHasher(), limits, audit.NewSlogLogger(), 3, 15*time.Minute)
}

func TestHasherRoundTrip(t *testing.T) {
	h := testHasher()

	encoded, err := h.Hash("correct horse battery")
	require.NoError(t, err)

	ok, err := h.Verify("correct horse battery", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProvision(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	limits := new(mockLimits)
	svc := newTestService(repo, limits)

	repo.On("GetByEmail", ctx, "t1", "doc@mercy.org").Return(nil, ErrUserNotFound)
	limits.On("MaxUsers", ctx, "t1").Return(10, nil)
	repo.On("CountByTenant", ctx, "t1").Return(4, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

	user, err := svc.Provision(ctx, "t1", "doc@mercy.org", "Dr. Osei", "str0ngpass", authz.RoleDoctor)
	require.NoError(t, err)

	assert.Equal(t, "t1", user.TenantID)
	assert.Equal(t, authz.RoleDoctor, user.Role)
	assert.Equal(t, StatusActive, user.Status)
	assert.NotEmpty(t, user.PasswordHash)
	repo.AssertExpectations(t)
}

func TestProvisionDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	svc := newTestService(repo, new(mockLimits))

	repo.On("GetByEmail", ctx, "t1", "doc@mercy.org").Return(&User{ID: "u1"}, nil)

	_, err := svc.Provision(ctx, "t1", "doc@mercy.org", "Dr. Osei", "str0ngpass", authz.RoleDoctor)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestProvisionUserLimitReached(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	limits := new(mockLimits)
	svc := newTestService(repo, limits)

	repo.On("GetByEmail", ctx, "t1", "doc@mercy.org").Return(nil, ErrUserNotFound)
	limits.On("MaxUsers", ctx, "t1").Return(5, nil)
	repo.On("CountByTenant", ctx, "t1").Return(5, nil)

	_, err := svc.Provision(ctx, "t1", "doc@mercy.org", "Dr. Osei", "str0ngpass", authz.RoleDoctor)
	assert.ErrorIs(t, err, ErrUserLimitReached)
}

func TestProvisionRejectsSuperAdminRole(t *testing.T) {
	svc := newTestService(new(mockUserRepo), new(mockLimits))

	_, err := svc.Provision(context.Background(), "t1", "doc@mercy.org", "X", "str0ngpass", authz.RoleSuperAdmin)
	assert.Error(t, err)
}

func TestProvisionValidation(t *testing.T) {
	svc := newTestService(new(mockUserRepo), new(mockLimits))
	ctx := context.Background()

	_, err := svc.Provision(ctx, "t1", "not-an-email", "X", "str0ngpass", authz.RoleNurse)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Provision(ctx, "t1", "ok@mercy.org", "X", "short", authz.RoleNurse)
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	svc := newTestService(repo, new(mockLimits))

	hash, err := testHasher().Hash("str0ngpass")
	require.NoError(t, err)

	stored := &User{ID: "u1", TenantID: "t1", Email: "doc@mercy.org", Status: StatusActive, PasswordHash: hash}
	repo.On("GetByEmail", ctx, "t1", "doc@mercy.org").Return(stored, nil)

	user, err := svc.Authenticate(ctx, "t1", "doc@mercy.org", "str0ngpass")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestAuthenticateWrongPasswordIncrementsLockout(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	svc := newTestService(repo, new(mockLimits))

	hash, err := testHasher().Hash("str0ngpass")
	require.NoError(t, err)

	stored := &User{ID: "u1", TenantID: "t1", Status: StatusActive, PasswordHash: hash, FailedLoginAttempts: 2}
	repo.On("GetByEmail", ctx, "t1", "doc@mercy.org").Return(stored, nil)
	// Third failure crosses the threshold and sets locked_until
	repo.On("UpdateLockout", ctx, "u1", 3, mock.AnythingOfType("*time.Time")).Return(nil)

	_, err = svc.Authenticate(ctx, "t1", "doc@mercy.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	repo.AssertExpectations(t)
}

func TestAuthenticateLockedAccount(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	svc := newTestService(repo, new(mockLimits))

	until := time.Now().Add(10 * time.Minute)
	stored := &User{ID: "u1", TenantID: "t1", Status: StatusActive, LockedUntil: &until}
	repo.On("GetByEmail", ctx, "t1", "doc@mercy.org").Return(stored, nil)

	_, err := svc.Authenticate(ctx, "t1", "doc@mercy.org", "str0ngpass")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	svc := newTestService(repo, new(mockLimits))

	repo.On("GetByEmail", ctx, "t1", "ghost@mercy.org").Return(nil, ErrUserNotFound)

	_, err := svc.Authenticate(ctx, "t1", "ghost@mercy.org", "whatever1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	svc := newTestService(repo, new(mockLimits))

	hash, err := testHasher().Hash("oldpassword")
	require.NoError(t, err)

	stored := &User{ID: "u1", TenantID: "t1", Status: StatusActive, PasswordHash: hash}
	repo.On("GetByID", ctx, "t1", "u1").Return(stored, nil)
	repo.On("UpdatePassword", ctx, "t1", "u1", mock.AnythingOfType("string")).Return(nil)

	require.NoError(t, svc.ChangePassword(ctx, "t1", "u1", "oldpassword", "newpassword"))

	err = svc.ChangePassword(ctx, "t1", "u1", "wrongold", "newpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
