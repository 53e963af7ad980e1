package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/id"
)

// TenantLimits reports the maximum patient count for a tenant.
type TenantLimits interface {
	MaxPatients(ctx context.Context, tenantID string) (int, error)
}

// Input carries patient attributes for create and update. The tenant
// id deliberately has no field here.
type Input struct {
	FirstName  string
	LastName   string
	DOB        time.Time
	Gender     string
	Phone      string
	Email      string
	Address    string
	BloodGroup string
	Allergies  []string
}

// Service provides patient management business logic.
type Service struct {
	repo        Repository
	limits      TenantLimits
	auditLogger audit.Logger
}

// NewService creates a new patient service
func NewService(repo Repository, limits TenantLimits, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, limits: limits, auditLogger: auditLogger}
}

// Create registers a patient under the resolved tenant, enforcing
// the plan's patient limit.
func (s *Service) Create(ctx context.Context, tenantID string, in Input) (*Patient, error) {
	if s.limits != nil {
		max, err := s.limits.MaxPatients(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to read tenant limits: %w", err)
		}
		count, err := s.repo.CountByTenant(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to count patients: %w", err)
		}
		if count >= max {
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeUsageLimitReached,
				TenantID: tenantID,
				Resource: "patient",
				Metadata: map[string]any{"max_patients": max},
			})
			return nil, ErrPatientLimitReached
		}
	}

	now := time.Now()
	p := &Patient{
		ID:         id.NewUUIDv7(),
		TenantID:   tenantID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		DOB:        in.DOB,
		Gender:     in.Gender,
		Phone:      in.Phone,
		Email:      in.Email,
		Address:    in.Address,
		BloodGroup: in.BloodGroup,
		Allergies:  in.Allergies,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordCreated,
		TenantID: tenantID,
		Resource: "patient",
		Metadata: map[string]any{"patient_id": p.ID},
	})

	return p, nil
}

// Get retrieves a patient by id within a tenant.
func (s *Service) Get(ctx context.Context, tenantID, patientID string) (*Patient, error) {
	return s.repo.GetByID(ctx, tenantID, patientID)
}

// Update rewrites a patient's attributes within a tenant.
func (s *Service) Update(ctx context.Context, tenantID, patientID string, in Input) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, tenantID, patientID)
	if err != nil {
		return nil, err
	}

	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.DOB = in.DOB
	p.Gender = in.Gender
	p.Phone = in.Phone
	p.Email = in.Email
	p.Address = in.Address
	p.BloodGroup = in.BloodGroup
	p.Allergies = in.Allergies
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordUpdated,
		TenantID: tenantID,
		Resource: "patient",
		Metadata: map[string]any{"patient_id": p.ID},
	})

	return p, nil
}

// Delete soft-deletes a patient within a tenant.
func (s *Service) Delete(ctx context.Context, tenantID, patientID string) error {
	if err := s.repo.Delete(ctx, tenantID, patientID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordDeleted,
		TenantID: tenantID,
		Resource: "patient",
		Metadata: map[string]any{"patient_id": patientID},
	})

	return nil
}

// List lists a tenant's patients, returning the total match count.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Patient, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}
