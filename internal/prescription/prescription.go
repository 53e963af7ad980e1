package prescription

import (
	"context"
	"errors"
	"time"
)

// ErrPrescriptionNotFound is returned when a prescription is absent
// or outside the caller's tenant.
var ErrPrescriptionNotFound = errors.New("prescription not found")

// Item is one medication line on a prescription.
type Item struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	DurationDays int    `json:"duration_days"`
	Instructions string `json:"instructions,omitempty"`
}

// Prescription is a tenant-scoped set of medication orders written
// by a doctor for a patient.
type Prescription struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	PatientID     string    `json:"patient_id"`
	DoctorID      string    `json:"doctor_id"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	Items         []Item    `json:"items"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListFilter narrows prescription listings.
type ListFilter struct {
	PatientID string
	DoctorID  string
	Limit     int
	Offset    int
}

// Repository defines the interface for prescription storage
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, tenantID, id string) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Prescription, int, error)
}
