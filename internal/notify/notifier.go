package notify

import (
	"context"
	"errors"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// Notifier delivers escalation messages, typically about urgent commands
// whose trigger failed.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// NoOpNotifier drops every message. Used in development and tests.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, string, string) error { return nil }

// Composite fans one message out to every wired channel. All channels are
// attempted; failures are joined.
type Composite []Notifier

func (c Composite) Notify(ctx context.Context, subject, message string) error {
	var errs []error
	for _, n := range c {
		if err := n.Notify(ctx, subject, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
