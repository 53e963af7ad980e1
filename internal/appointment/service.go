package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/id"
	"github.com/carebase/carebase/internal/patient"
	"github.com/carebase/carebase/internal/staff"
)

// Input carries appointment attributes for create and update.
type Input struct {
	PatientID   string
	DoctorID    string
	ScheduledAt time.Time
	DurationMin int
	Reason      string
	Notes       string
}

// Service provides appointment scheduling business logic.
type Service struct {
	repo        Repository
	patients    patient.Repository
	doctors     staff.DoctorRepository
	auditLogger audit.Logger
}

// NewService creates a new appointment service
func NewService(repo Repository, patients patient.Repository, doctors staff.DoctorRepository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		patients:    patients,
		doctors:     doctors,
		auditLogger: auditLogger,
	}
}

// Create books an appointment. Both the patient and the doctor must
// exist within the caller's tenant; referencing another tenant's
// records reads as absence.
func (s *Service) Create(ctx context.Context, tenantID string, in Input) (*Appointment, error) {
	if _, err := s.patients.GetByID(ctx, tenantID, in.PatientID); err != nil {
		return nil, patient.ErrPatientNotFound
	}
	if _, err := s.doctors.GetByID(ctx, tenantID, in.DoctorID); err != nil {
		return nil, staff.ErrDoctorNotFound
	}

	now := time.Now()
	a := &Appointment{
		ID:          id.NewUUIDv7(),
		TenantID:    tenantID,
		PatientID:   in.PatientID,
		DoctorID:    in.DoctorID,
		ScheduledAt: in.ScheduledAt,
		DurationMin: in.DurationMin,
		Reason:      in.Reason,
		Notes:       in.Notes,
		Status:      StatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordCreated,
		TenantID: tenantID,
		Resource: "appointment",
		Metadata: map[string]any{"appointment_id": a.ID, "doctor_id": a.DoctorID},
	})

	return a, nil
}

// Get retrieves an appointment by id within a tenant.
func (s *Service) Get(ctx context.Context, tenantID, appointmentID string) (*Appointment, error) {
	return s.repo.GetByID(ctx, tenantID, appointmentID)
}

// UpdateStatus moves an appointment through its state machine. A
// transition the machine does not allow fails without touching the
// record; nothing is retried or rolled back.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, appointmentID string, next Status) (*Appointment, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	a, err := s.repo.GetByID(ctx, tenantID, appointmentID)
	if err != nil {
		return nil, err
	}

	if !a.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}

	a.Status = next
	a.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordUpdated,
		TenantID: tenantID,
		Resource: "appointment",
		Metadata: map[string]any{"appointment_id": a.ID, "status": string(next)},
	})

	return a, nil
}

// Update rewrites an appointment's scheduling details. Status is
// only changed through UpdateStatus.
func (s *Service) Update(ctx context.Context, tenantID, appointmentID string, in Input) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, tenantID, appointmentID)
	if err != nil {
		return nil, err
	}

	a.ScheduledAt = in.ScheduledAt
	a.DurationMin = in.DurationMin
	a.Reason = in.Reason
	a.Notes = in.Notes
	a.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an appointment within a tenant.
func (s *Service) Delete(ctx context.Context, tenantID, appointmentID string) error {
	return s.repo.Delete(ctx, tenantID, appointmentID)
}

// List lists a tenant's appointments, returning the total match count.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Appointment, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}
