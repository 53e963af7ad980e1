package reminder

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrInvalidSendAt    = errors.New("reminder send time is required")
	ErrInvalidRecipient = errors.New("reminder recipient is required")
)

// Status is the reminder delivery state.
type Status string

const (
	StatusPending Status = "pending"
	// StatusProcessing marks a claimed reminder between claim and
	// delivery outcome.
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Channel is the delivery medium. Only email is supported today.
type Channel string

const ChannelEmail Channel = "email"

// Reminder is a tenant-scoped scheduled message, usually tied to an
// upcoming appointment.
type Reminder struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	PatientID     string     `json:"patient_id,omitempty"`
	AppointmentID string     `json:"appointment_id,omitempty"`
	Recipient     string     `json:"recipient"`
	Channel       Channel    `json:"channel"`
	Subject       string     `json:"subject"`
	Body          string     `json:"body"`
	SendAt        time.Time  `json:"send_at"`
	Status        Status     `json:"status"`
	LastError     string     `json:"last_error,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ListFilter narrows reminder listings.
type ListFilter struct {
	PatientID     string
	AppointmentID string
	Status        Status
	Limit         int
	Offset        int
}

// Repository defines the interface for reminder storage
type Repository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, tenantID, id string) (*Reminder, error)
	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Reminder, int, error)

	// ClaimDue atomically selects up to limit pending reminders whose
	// send time has passed, across all tenants, so concurrent
	// dispatchers never deliver the same reminder twice.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Reminder, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
