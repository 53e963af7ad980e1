package patient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carebase/carebase/internal/audit"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, p *Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, tenantID, id string) (*Patient, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Patient), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, p *Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Patient, int, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*Patient), args.Int(1), args.Error(2)
}

func (m *mockRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

type mockLimits struct {
	mock.Mock
}

func (m *mockLimits) MaxPatients(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func TestCreateStampsTenant(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	limits := new(mockLimits)
	svc := NewService(repo, limits, audit.NewSlogLogger())

	limits.On("MaxPatients", ctx, "h1").Return(500, nil)
	repo.On("CountByTenant", ctx, "h1").Return(3, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*patient.Patient")).Return(nil)

	p, err := svc.Create(ctx, "h1", Input{
		FirstName: "Ama",
		LastName:  "Mensah",
		DOB:       time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC),
		Gender:    "female",
	})
	require.NoError(t, err)

	assert.Equal(t, "h1", p.TenantID)
	assert.NotEmpty(t, p.ID)
	repo.AssertExpectations(t)
}

func TestCreateLimitReached(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	limits := new(mockLimits)
	svc := NewService(repo, limits, audit.NewSlogLogger())

	limits.On("MaxPatients", ctx, "h1").Return(5, nil)
	repo.On("CountByTenant", ctx, "h1").Return(5, nil)

	_, err := svc.Create(ctx, "h1", Input{FirstName: "Ama", LastName: "Mensah"})
	assert.ErrorIs(t, err, ErrPatientLimitReached)
}

func TestUpdateScopedToTenant(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := NewService(repo, nil, audit.NewSlogLogger())

	// The record belongs to h1; the caller resolved h2.
	repo.On("GetByID", ctx, "h2", "p1").Return(nil, ErrPatientNotFound)

	_, err := svc.Update(ctx, "h2", "p1", Input{FirstName: "X"})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := NewService(repo, nil, audit.NewSlogLogger())

	stored := &Patient{ID: "p1", TenantID: "h1", FirstName: "Ama", LastName: "Mensah"}
	repo.On("GetByID", ctx, "h1", "p1").Return(stored, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*patient.Patient")).Return(nil)

	updated, err := svc.Update(ctx, "h1", "p1", Input{FirstName: "Akosua", LastName: "Mensah"})
	require.NoError(t, err)
	assert.Equal(t, "Akosua", updated.FirstName)
	// Tenant id is immutable through updates
	assert.Equal(t, "h1", updated.TenantID)
}
