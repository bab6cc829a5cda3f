// Package notify delivers out-of-band notifications. Notifications are
// dispatched to all registered senders; one sender failing does not
// prevent delivery to the rest.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/fd1az/cex-arb/internal/logger"
)

// Sender is one notification channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Notifier fans a notification out to its senders.
type Notifier struct {
	senders []Sender
	log     logger.LoggerInterface
}

// NewNotifier creates a Notifier delivering to the given senders.
func NewNotifier(senders []Sender, log logger.LoggerInterface) *Notifier {
	return &Notifier{
		senders: senders,
		log:     log.With("component", "notifier"),
	}
}

// Notify sends a notification to all senders. Errors are collected and
// returned combined.
func (n *Notifier) Notify(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.log.Error(ctx, "sender failed", "sender", s.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.log.Debug(ctx, "notification sent", "sender", s.Name(), "title", title)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
