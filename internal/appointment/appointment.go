package appointment

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidStatus       = errors.New("invalid appointment status")
	ErrInvalidTransition   = errors.New("invalid appointment status transition")
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// transitions is the allowed state machine: scheduled → confirmed →
// completed, with cancelled and no_show as alternate terminals
// reachable from either active state. Terminal states have no exits.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransitionTo reports whether the machine allows moving from s
// to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment is a tenant-scoped booking between a patient and a
// doctor.
type Appointment struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows appointment listings.
type ListFilter struct {
	PatientID string
	DoctorID  string
	Status    Status
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// Repository defines the interface for appointment storage
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, tenantID, id string) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Appointment, int, error)
}
