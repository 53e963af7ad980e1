package notify

import "context"

// Notifier delivers a message to a recipient over some channel.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Noop discards every message. Used when no provider is configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, body string) error {
	return nil
}
