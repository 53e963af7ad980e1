package report

import (
	"context"
	"fmt"
	"time"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/id"
	"github.com/carebase/carebase/internal/patient"
)

// Input carries report attributes for create and update. File is the
// raw uploaded content and may be empty for text-only reports.
type Input struct {
	PatientID  string
	DoctorID   string
	Title      string
	ReportType string
	Findings   string
	FileName   string
	File       []byte
}

// Service provides report business logic.
type Service struct {
	repo         Repository
	files        FileStore
	patients     patient.Repository
	maxFileBytes int64
	auditLogger  audit.Logger
}

// NewService creates a new report service
func NewService(repo Repository, files FileStore, patients patient.Repository, maxFileBytes int64, auditLogger audit.Logger) *Service {
	return &Service{
		repo:         repo,
		files:        files,
		patients:     patients,
		maxFileBytes: maxFileBytes,
		auditLogger:  auditLogger,
	}
}

// Create stores a report and, when present, its attached file.
func (s *Service) Create(ctx context.Context, tenantID string, in Input) (*Report, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("report title is required")
	}
	if _, err := s.patients.GetByID(ctx, tenantID, in.PatientID); err != nil {
		return nil, patient.ErrPatientNotFound
	}
	if int64(len(in.File)) > s.maxFileBytes {
		return nil, ErrFileTooLarge
	}

	now := time.Now()
	r := &Report{
		ID:         id.NewUUIDv7(),
		TenantID:   tenantID,
		PatientID:  in.PatientID,
		DoctorID:   in.DoctorID,
		Title:      in.Title,
		ReportType: in.ReportType,
		Findings:   in.Findings,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if len(in.File) > 0 {
		path, err := s.files.Save(tenantID, in.FileName, in.File)
		if err != nil {
			return nil, fmt.Errorf("failed to store report file: %w", err)
		}
		r.FileName = in.FileName
		r.FilePath = path
		r.FileSize = int64(len(in.File))
	}

	if err := s.repo.Create(ctx, r); err != nil {
		if r.FilePath != "" {
			_ = s.files.Remove(r.FilePath)
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordCreated,
		TenantID: tenantID,
		Resource: "report",
		Metadata: map[string]any{"report_id": r.ID, "patient_id": r.PatientID},
	})

	return r, nil
}

// Get retrieves a report by id within a tenant.
func (s *Service) Get(ctx context.Context, tenantID, reportID string) (*Report, error) {
	return s.repo.GetByID(ctx, tenantID, reportID)
}

// File returns the stored file content for a report within a tenant.
func (s *Service) File(ctx context.Context, tenantID, reportID string) (*Report, []byte, error) {
	r, err := s.repo.GetByID(ctx, tenantID, reportID)
	if err != nil {
		return nil, nil, err
	}
	if r.FilePath == "" {
		return nil, nil, ErrEmptyFile
	}
	data, err := s.files.Open(r.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read report file: %w", err)
	}
	return r, data, nil
}

// Update rewrites a report's text fields. Attached files are
// immutable once stored.
func (s *Service) Update(ctx context.Context, tenantID, reportID string, in Input) (*Report, error) {
	r, err := s.repo.GetByID(ctx, tenantID, reportID)
	if err != nil {
		return nil, err
	}

	if in.Title != "" {
		r.Title = in.Title
	}
	r.ReportType = in.ReportType
	r.Findings = in.Findings
	r.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a report and its stored file within a tenant.
func (s *Service) Delete(ctx context.Context, tenantID, reportID string) error {
	r, err := s.repo.GetByID(ctx, tenantID, reportID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, reportID); err != nil {
		return err
	}
	if r.FilePath != "" {
		_ = s.files.Remove(r.FilePath)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordDeleted,
		TenantID: tenantID,
		Resource: "report",
		Metadata: map[string]any{"report_id": reportID},
	})
	return nil
}

// List lists a tenant's reports, returning the total match count.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Report, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}
