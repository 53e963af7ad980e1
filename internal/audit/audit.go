package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event types
const (
	TypeLoginSuccess      = "login_success"
	TypeLoginFailed       = "login_failed"
	TypeTokenRefreshed    = "token_refreshed"
	TypeLogout            = "logout"
	TypePasswordChanged   = "password_changed"
	TypeUserLocked        = "user_locked"
	TypeUserCreated       = "user_created"
	TypePermissionDenied  = "permission_denied"
	TypeTenantMismatch    = "tenant_mismatch"
	TypeTenantSuspended   = "tenant_suspended_access"
	TypeTenantCreated     = "tenant_created"
	TypeTenantStatusSet   = "tenant_status_changed"
	TypeRecordCreated     = "record_created"
	TypeRecordUpdated     = "record_updated"
	TypeRecordDeleted     = "record_deleted"
	TypeReminderDispatch  = "reminder_dispatched"
	TypeReminderFailed    = "reminder_failed"
	TypeUsageLimitReached = "usage_limit_reached"
)

// Metadata attribute keys
const (
	AttrReason   = "reason"
	AttrAttempts = "attempts"
)

// Event represents an auditable action
type Event struct {
	Type      string
	TenantID  string
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("tenant_id", event.TenantID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	secrets := []string{"password", "secret", "token", "key", "authorization"}
	for _, s := range secrets {
		if key == s {
			return true
		}
	}
	return false
}
