package report

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrReportNotFound = errors.New("report not found")
	ErrFileTooLarge   = errors.New("report file exceeds size limit")
	ErrEmptyFile      = errors.New("report file is empty")
)

// Report is a tenant-scoped clinical document, typically a lab result
// or imaging summary attached to a patient.
type Report struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	PatientID  string    `json:"patient_id"`
	DoctorID   string    `json:"doctor_id,omitempty"`
	Title      string    `json:"title"`
	ReportType string    `json:"report_type"`
	Findings   string    `json:"findings,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	FilePath   string    `json:"-"`
	FileSize   int64     `json:"file_size,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListFilter narrows report listings.
type ListFilter struct {
	PatientID  string
	ReportType string
	Limit      int
	Offset     int
}

// Repository defines the interface for report storage
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, tenantID, id string) (*Report, error)
	Update(ctx context.Context, r *Report) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Report, int, error)
}

// FileStore persists uploaded report files. Save returns the stored
// path used for later retrieval.
type FileStore interface {
	Save(tenantID, fileName string, data []byte) (string, error)
	Open(path string) ([]byte, error)
	Remove(path string) error
}
