package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carebase/carebase/internal/audit"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*Tenant, int, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*Tenant), args.Int(1), args.Error(2)
}

type mockPlanRepo struct {
	mock.Mock
}

func (m *mockPlanRepo) Create(ctx context.Context, p *Plan) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPlanRepo) GetByID(ctx context.Context, id string) (*Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Plan), args.Error(1)
}

func (m *mockPlanRepo) Update(ctx context.Context, p *Plan) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPlanRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockPlanRepo) List(ctx context.Context, limit, offset int) ([]*Plan, int, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*Plan), args.Int(1), args.Error(2)
}

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func newTestService(repo *mockRepo, planRepo *mockPlanRepo) *Service {
	return NewService(repo, planRepo, new(mockCounter), new(mockCounter), audit.NewSlogLogger())
}

func TestCreateTenant(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	planRepo := new(mockPlanRepo)
	svc := newTestService(repo, planRepo)

	repo.On("GetBySubdomain", ctx, "mercy").Return(nil, ErrTenantNotFound)
	planRepo.On("GetByID", ctx, "plan-1").Return(&Plan{ID: "plan-1", MaxUsers: 10, MaxPatients: 500}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*tenant.Tenant")).Return(nil)

	created, err := svc.CreateTenant(ctx, "Mercy General", "mercy", "plan-1", "actor-1")
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, StatusTrial, created.Status)
	assert.Equal(t, 10, created.MaxUsers)
	assert.Equal(t, 500, created.MaxPatients)
	repo.AssertExpectations(t)
}

func TestCreateTenantSubdomainTaken(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	planRepo := new(mockPlanRepo)
	svc := newTestService(repo, planRepo)

	repo.On("GetBySubdomain", ctx, "mercy").Return(&Tenant{ID: "t1", Subdomain: "mercy"}, nil)

	_, err := svc.CreateTenant(ctx, "Mercy General", "mercy", "plan-1", "actor-1")
	assert.ErrorIs(t, err, ErrSubdomainTaken)
}

func TestCreateTenantInvalidSubdomain(t *testing.T) {
	svc := newTestService(new(mockRepo), new(mockPlanRepo))

	for _, sub := range []string{"", "Has Space", "UPPER", "-leading", "trailing-", "dots.io"} {
		_, err := svc.CreateTenant(context.Background(), "H", sub, "plan-1", "actor-1")
		assert.ErrorIs(t, err, ErrInvalidSubdomain, "subdomain %q", sub)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := newTestService(repo, new(mockPlanRepo))

	existing := &Tenant{ID: "t1", Subdomain: "mercy", Status: StatusActive}
	repo.On("GetByID", ctx, "t1").Return(existing, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*tenant.Tenant")).Return(nil)

	updated, err := svc.SetStatus(ctx, "t1", StatusSuspended, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, updated.Status)

	_, err = svc.SetStatus(ctx, "t1", Status("frozen"), "actor-1")
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	users := new(mockCounter)
	patients := new(mockCounter)
	svc := NewService(repo, new(mockPlanRepo), users, patients, audit.NewSlogLogger())

	repo.On("GetByID", ctx, "t1").Return(&Tenant{ID: "t1", MaxUsers: 10, MaxPatients: 500}, nil)
	users.On("CountByTenant", ctx, "t1").Return(4, nil)
	patients.On("CountByTenant", ctx, "t1").Return(120, nil)

	usage, err := svc.Usage(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 4, usage.Users)
	assert.Equal(t, 120, usage.Patients)
	assert.Equal(t, 10, usage.MaxUsers)
	assert.Equal(t, 500, usage.MaxPatients)
}

func TestCanServe(t *testing.T) {
	assert.True(t, (&Tenant{Status: StatusTrial}).CanServe())
	assert.True(t, (&Tenant{Status: StatusActive}).CanServe())
	assert.False(t, (&Tenant{Status: StatusSuspended}).CanServe())
	assert.False(t, (&Tenant{Status: StatusCancelled}).CanServe())
}
