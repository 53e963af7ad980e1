package reminder

import (
	"context"
	"errors"
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

func (m *mockRepo) Create(ctx context.Context, r *Reminder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, tenantID, id string) (*Reminder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reminder), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, r *Reminder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Reminder, int, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*Reminder), args.Int(1), args.Error(2)
}

func (m *mockRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Reminder, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]*Reminder), args.Error(1)
}

func (m *mockRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *mockRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

type recordingNotifier struct {
	sent    []string
	failFor string
}

func (n *recordingNotifier) Send(ctx context.Context, to, subject, body string) error {
	if to == n.failFor {
		return errors.New("mailbox unavailable")
	}
	n.sent = append(n.sent, to)
	return nil
}

func TestDispatchDue(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	notifier := &recordingNotifier{}
	d := NewDispatcher(repo, notifier, time.Minute, audit.NewSlogLogger())

	due := []*Reminder{
		{ID: "r1", TenantID: "h1", Recipient: "a@example.com", Subject: "Visit tomorrow"},
		{ID: "r2", TenantID: "h2", Recipient: "b@example.com", Subject: "Visit tomorrow"},
	}
	repo.On("ClaimDue", ctx, mock.AnythingOfType("time.Time"), defaultBatchSize).Return(due, nil)
	repo.On("MarkSent", ctx, "r1", mock.AnythingOfType("time.Time")).Return(nil)
	repo.On("MarkSent", ctx, "r2", mock.AnythingOfType("time.Time")).Return(nil)

	sent, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, notifier.sent)
	repo.AssertExpectations(t)
}

func TestDispatchDueFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	notifier := &recordingNotifier{failFor: "a@example.com"}
	d := NewDispatcher(repo, notifier, time.Minute, audit.NewSlogLogger())

	due := []*Reminder{
		{ID: "r1", TenantID: "h1", Recipient: "a@example.com"},
		{ID: "r2", TenantID: "h1", Recipient: "b@example.com"},
	}
	repo.On("ClaimDue", ctx, mock.AnythingOfType("time.Time"), defaultBatchSize).Return(due, nil)
	repo.On("MarkFailed", ctx, "r1", "mailbox unavailable").Return(nil)
	repo.On("MarkSent", ctx, "r2", mock.AnythingOfType("time.Time")).Return(nil)

	sent, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	repo.AssertExpectations(t)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(new(mockRepo), audit.NewSlogLogger())

	_, err := svc.Create(context.Background(), "h1", Input{SendAt: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = svc.Create(context.Background(), "h1", Input{Recipient: "a@example.com"})
	assert.ErrorIs(t, err, ErrInvalidSendAt)
}

func TestUpdateSentReminderRejected(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := NewService(repo, audit.NewSlogLogger())

	repo.On("GetByID", ctx, "h1", "r1").Return(&Reminder{ID: "r1", TenantID: "h1", Status: StatusSent}, nil)

	_, err := svc.Update(ctx, "h1", "r1", Input{Subject: "changed"})
	require.Error(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
