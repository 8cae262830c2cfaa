package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moodtracker/backend/internal/config"
	"github.com/moodtracker/backend/internal/mailer"
	"github.com/moodtracker/backend/internal/users"
)

// InactivityChecker periodically looks for users who haven't logged a mood
// entry in a while, queues a reminder notification, and emails users who
// are offline. Notified users are stamped so the next sweep skips them.
type InactivityChecker struct {
	users users.UserRepository
	store Store
	mail  mailer.MailSender
	cfg   config.InactivityConfig
	now   func() time.Time
}

// NewInactivityChecker creates a new inactivity checker.
func NewInactivityChecker(repo users.UserRepository, store Store, mail mailer.MailSender, cfg config.InactivityConfig, now func() time.Time) *InactivityChecker {
	if now == nil {
		now = time.Now
	}
	return &InactivityChecker{users: repo, store: store, mail: mail, cfg: cfg, now: now}
}

// Run sweeps on the configured interval until the context is cancelled.
func (c *InactivityChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sweep(ctx); err != nil {
				slog.Error("inactivity sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs one inactivity pass. Per-user failures are logged and skipped
// so one bad address can't stall the rest.
func (c *InactivityChecker) Sweep(ctx context.Context) error {
	cutoff := c.now().UTC().Add(-c.cfg.Threshold)
	inactive, err := c.users.ListInactiveSince(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("listing inactive users: %w", err)
	}

	for _, u := range inactive {
		if err := c.notify(ctx, u); err != nil {
			slog.Warn("inactivity notification failed",
				"user_id", u.ID, "error", err)
		}
	}
	return nil
}

// notify queues the reminder, emails the user when offline, and stamps the
// notification time.
func (c *InactivityChecker) notify(ctx context.Context, u users.User) error {
	message := fmt.Sprintf(
		"Hey %s, you haven't logged a mood entry in a while. How are you feeling today?",
		u.DisplayName())
	if _, err := c.store.Queue(ctx, u.ID, TypeInactivity, message); err != nil {
		return fmt.Errorf("queueing reminder: %w", err)
	}

	online, err := c.store.IsOnline(ctx, u.ID)
	if err != nil {
		// Presence lookup failing shouldn't block the email path.
		slog.Warn("presence lookup failed", "user_id", u.ID, "error", err)
		online = false
	}
	if !online {
		if err := c.mail.SendInactivityEmail(ctx, u.Email, u.DisplayName()); err != nil {
			return fmt.Errorf("sending reminder email: %w", err)
		}
	}

	if err := c.users.UpdateLastNotified(ctx, u.ID); err != nil {
		return fmt.Errorf("stamping last notified: %w", err)
	}
	return nil
}
