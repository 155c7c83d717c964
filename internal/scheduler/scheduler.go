// Package scheduler runs the daily summary delivery loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/splitfair/splitfair/internal/notify"
	"github.com/splitfair/splitfair/internal/service"
	"github.com/splitfair/splitfair/internal/storage"
)

const (
	// CheckInterval is how often the loop checks whether the summary hour
	// has arrived.
	CheckInterval = 30 * time.Minute
	// RunTimeout bounds a single delivery pass over all users.
	RunTimeout = 2 * time.Minute
)

// Scheduler sends each user's daily expense summary through the configured
// notifiers once per day at the configured hour.
type Scheduler struct {
	store     storage.Store
	reports   *service.ReportService
	notifiers []notify.Notifier
	hour      int
	location  *time.Location
	logger    *slog.Logger

	// sent maps user ID to the date a summary was last delivered, so a user
	// is notified at most once per day even though checks repeat.
	sent map[string]string
}

// New creates a scheduler delivering at the given hour in the given timezone.
func New(store storage.Store, reports *service.ReportService, notifiers []notify.Notifier, hour int, timezone string, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary timezone %q: %w", timezone, err)
	}
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("summary hour %d out of range", hour)
	}

	return &Scheduler{
		store:     store,
		reports:   reports,
		notifiers: notifiers,
		hour:      hour,
		location:  loc,
		logger:    logger,
		sent:      make(map[string]string),
	}, nil
}

// Run blocks until the context is cancelled, checking every CheckInterval
// whether summaries are due. One check runs immediately so a process started
// during the summary hour still delivers.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.notifiers) == 0 {
		s.logger.Info("No notifiers configured, summary scheduler disabled")
		return
	}

	s.logger.Info("Summary scheduler started",
		"hour", s.hour, "timezone", s.location.String(), "notifiers", len(s.notifiers))

	ticker := time.NewTicker(CheckInterval)
	defer ticker.Stop()

	s.check(ctx, time.Now().In(s.location))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Summary scheduler stopped")
			return
		case <-ticker.C:
			s.check(ctx, time.Now().In(s.location))
		}
	}
}

// check delivers summaries when now falls inside the configured hour.
// Delivery failures are logged and never abort the pass.
func (s *Scheduler) check(ctx context.Context, now time.Time) {
	if now.Hour() != s.hour {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()

	today := now.Format("2006-01-02")
	for id, date := range s.sent {
		if date != today {
			delete(s.sent, id)
		}
	}

	users, err := s.store.ListUsers(runCtx)
	if err != nil {
		s.logger.Error("Failed to list users for daily summary", "error", err)
		return
	}

	for _, user := range users {
		if s.sent[user.ID] == today {
			continue
		}

		summary, err := s.reports.BuildSummary(runCtx, user.ID)
		if err != nil {
			s.logger.Error("Failed to build daily summary", "user_id", user.ID, "error", err)
			continue
		}
		if summary.TotalSessions == 0 {
			s.sent[user.ID] = today
			continue
		}

		delivered := false
		for _, n := range s.notifiers {
			if err := n.SendSummary(runCtx, user, summary); err != nil {
				s.logger.Warn("Failed to deliver daily summary",
					"channel", n.Name(), "user_id", user.ID, "error", err)
				continue
			}
			delivered = true
			s.logger.Debug("Daily summary delivered", "channel", n.Name(), "user_id", user.ID)
		}
		if delivered {
			s.sent[user.ID] = today
		}
	}
}
