package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/id"
	"github.com/carebase/carebase/internal/patient"
)

// Input carries prescription attributes for create and update.
type Input struct {
	PatientID     string
	DoctorID      string
	AppointmentID string
	Items         []Item
	Notes         string
}

// Service provides prescription business logic.
type Service struct {
	repo        Repository
	patients    patient.Repository
	auditLogger audit.Logger
}

// NewService creates a new prescription service
func NewService(repo Repository, patients patient.Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, patients: patients, auditLogger: auditLogger}
}

// Create writes a prescription. The patient must exist within the
// caller's tenant.
func (s *Service) Create(ctx context.Context, tenantID string, in Input) (*Prescription, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("prescription requires at least one item")
	}
	if _, err := s.patients.GetByID(ctx, tenantID, in.PatientID); err != nil {
		return nil, patient.ErrPatientNotFound
	}

	now := time.Now()
	p := &Prescription{
		ID:            id.NewUUIDv7(),
		TenantID:      tenantID,
		PatientID:     in.PatientID,
		DoctorID:      in.DoctorID,
		AppointmentID: in.AppointmentID,
		Items:         in.Items,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordCreated,
		TenantID: tenantID,
		Resource: "prescription",
		Metadata: map[string]any{"prescription_id": p.ID, "patient_id": p.PatientID},
	})

	return p, nil
}

// Get retrieves a prescription by id within a tenant.
func (s *Service) Get(ctx context.Context, tenantID, prescriptionID string) (*Prescription, error) {
	return s.repo.GetByID(ctx, tenantID, prescriptionID)
}

// Update rewrites a prescription's items and notes.
func (s *Service) Update(ctx context.Context, tenantID, prescriptionID string, in Input) (*Prescription, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("prescription requires at least one item")
	}

	p, err := s.repo.GetByID(ctx, tenantID, prescriptionID)
	if err != nil {
		return nil, err
	}

	p.Items = in.Items
	p.Notes = in.Notes
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a prescription within a tenant.
func (s *Service) Delete(ctx context.Context, tenantID, prescriptionID string) error {
	return s.repo.Delete(ctx, tenantID, prescriptionID)
}

// List lists a tenant's prescriptions, returning the total match count.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Prescription, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}
