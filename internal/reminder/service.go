package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/id"
)

// Input carries reminder attributes for create and update.
type Input struct {
	PatientID     string
	AppointmentID string
	Recipient     string
	Subject       string
	Body          string
	SendAt        time.Time
}

// Service provides reminder scheduling business logic.
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new reminder service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger}
}

// Create schedules a reminder for later dispatch.
func (s *Service) Create(ctx context.Context, tenantID string, in Input) (*Reminder, error) {
	if in.Recipient == "" {
		return nil, ErrInvalidRecipient
	}
	if in.SendAt.IsZero() {
		return nil, ErrInvalidSendAt
	}

	now := time.Now()
	r := &Reminder{
		ID:            id.NewUUIDv7(),
		TenantID:      tenantID,
		PatientID:     in.PatientID,
		AppointmentID: in.AppointmentID,
		Recipient:     in.Recipient,
		Channel:       ChannelEmail,
		Subject:       in.Subject,
		Body:          in.Body,
		SendAt:        in.SendAt,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRecordCreated,
		TenantID: tenantID,
		Resource: "reminder",
		Metadata: map[string]any{"reminder_id": r.ID, "send_at": r.SendAt},
	})

	return r, nil
}

// Get retrieves a reminder by id within a tenant.
func (s *Service) Get(ctx context.Context, tenantID, reminderID string) (*Reminder, error) {
	return s.repo.GetByID(ctx, tenantID, reminderID)
}

// Update rewrites a pending reminder's content and schedule. Sent and
// failed reminders are immutable.
func (s *Service) Update(ctx context.Context, tenantID, reminderID string, in Input) (*Reminder, error) {
	r, err := s.repo.GetByID(ctx, tenantID, reminderID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, fmt.Errorf("cannot update a %s reminder", r.Status)
	}

	if in.Recipient != "" {
		r.Recipient = in.Recipient
	}
	r.Subject = in.Subject
	r.Body = in.Body
	if !in.SendAt.IsZero() {
		r.SendAt = in.SendAt
	}
	r.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a reminder within a tenant.
func (s *Service) Delete(ctx context.Context, tenantID, reminderID string) error {
	return s.repo.Delete(ctx, tenantID, reminderID)
}

// List lists a tenant's reminders, returning the total match count.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Reminder, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}
