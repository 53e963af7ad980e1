package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/notify"
	"github.com/carebase/carebase/internal/observability/logger"
)

const defaultBatchSize = 50

// Dispatcher periodically delivers due reminders. It claims batches
// from the repository so multiple instances can run side by side.
type Dispatcher struct {
	repo        Repository
	notifier    notify.Notifier
	interval    time.Duration
	batchSize   int
	auditLogger audit.Logger
	log         *slog.Logger
}

// NewDispatcher creates a dispatcher polling at the given interval.
func NewDispatcher(repo Repository, notifier notify.Notifier, interval time.Duration, auditLogger audit.Logger) *Dispatcher {
	return &Dispatcher{
		repo:        repo,
		notifier:    notifier,
		interval:    interval,
		batchSize:   defaultBatchSize,
		auditLogger: auditLogger,
		log:         slog.Default().With(logger.Component("reminder_dispatcher")),
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := d.DispatchDue(ctx); err != nil {
				d.log.Error("reminder dispatch cycle failed", logger.Error(err))
			} else if n > 0 {
				d.log.Info("dispatched reminders", slog.Int("count", n))
			}
		}
	}
}

// DispatchDue claims and delivers one batch of due reminders,
// returning how many were sent. A delivery failure marks that
// reminder failed and moves on; it never aborts the batch.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	due, err := d.repo.ClaimDue(ctx, time.Now(), d.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range due {
		if err := d.notifier.Send(ctx, r.Recipient, r.Subject, r.Body); err != nil {
			d.log.Warn("reminder delivery failed",
				slog.String("reminder_id", r.ID),
				logger.TenantID(r.TenantID),
				logger.Error(err))
			if markErr := d.repo.MarkFailed(ctx, r.ID, err.Error()); markErr != nil {
				d.log.Error("failed to mark reminder failed", slog.String("reminder_id", r.ID), logger.Error(markErr))
			}
			d.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeReminderFailed,
				TenantID: r.TenantID,
				Resource: "reminder",
				Metadata: map[string]any{"reminder_id": r.ID, audit.AttrReason: err.Error()},
			})
			continue
		}

		if err := d.repo.MarkSent(ctx, r.ID, time.Now()); err != nil {
			d.log.Error("failed to mark reminder sent", slog.String("reminder_id", r.ID), logger.Error(err))
			continue
		}
		sent++

		d.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeReminderDispatch,
			TenantID: r.TenantID,
			Resource: "reminder",
			Metadata: map[string]any{"reminder_id": r.ID, "recipient": r.Recipient},
		})
	}
	return sent, nil
}
