// Package notify delivers expense summary digests over external channels.
// Delivery is best-effort; callers log failures and move on.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/service"
)

// Notifier sends one user's daily summary over a single channel.
type Notifier interface {
	// Name identifies the channel for logging.
	Name() string

	// SendSummary delivers the digest to the given user.
	SendSummary(ctx context.Context, user *models.User, summary *service.Summary) error
}

// FormatSummaryText renders the digest as plain text for chat channels.
func FormatSummaryText(summary *service.Summary, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily Expense Summary (%s)\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total Sessions: %d\n", summary.TotalSessions)
	fmt.Fprintf(&b, "Total Expenses: $%.2f\n", summary.TotalAmount)
	fmt.Fprintf(&b, "Total Items: %d\n", summary.TotalItems)
	fmt.Fprintf(&b, "Active Participants: %d\n", summary.ActiveParticipants)

	if len(summary.RecentSessions) > 0 {
		b.WriteString("Recent Sessions:\n")
		for _, s := range summary.RecentSessions {
			date := time.Unix(s.CreatedAt, 0).Format("2006-01-02")
			fmt.Fprintf(&b, "* %s: $%.2f (%s)\n", s.Name, s.Total, date)
		}
	}
	if len(summary.TopSpenders) > 0 {
		b.WriteString("Top Spenders:\n")
		for _, t := range summary.TopSpenders {
			fmt.Fprintf(&b, "* %s: $%.2f\n", t.Name, t.Amount)
		}
	}
	if len(summary.Outstanding) > 0 {
		fmt.Fprintf(&b, "Outstanding ($%.2f total):\n", summary.OutstandingTotal)
		for _, o := range summary.Outstanding {
			fmt.Fprintf(&b, "* %s owes $%.2f\n", o.ParticipantName, o.Balance)
		}
	}

	b.WriteString("Sent by SplitFair")
	return b.String()
}
