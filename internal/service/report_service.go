package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/splitfair/splitfair/internal/calculator"
	"github.com/splitfair/splitfair/internal/storage"
)

// Activity entry types.
const (
	ActivitySessionCreated     = "session_created"
	ActivitySettlementRecorded = "settlement_recorded"
	ActivitySessionSettled     = "session_settled"
)

// ActivityEntry is one event in the user's activity feed.
type ActivityEntry struct {
	Type            string  `json:"type"`
	SessionID       string  `json:"sessionId"`
	SessionName     string  `json:"sessionName"`
	ParticipantName string  `json:"participantName,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
	Timestamp       int64   `json:"timestamp"`
}

// SessionBrief is a one-line view of a session for digests.
type SessionBrief struct {
	SessionID string  `json:"sessionId"`
	Name      string  `json:"name"`
	Total     float64 `json:"total"`
	Settled   bool    `json:"settled"`
	CreatedAt int64   `json:"createdAt"`
}

// Spender pairs a participant name with their summed share.
type Spender struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Summary is the digest consumed by the scheduled notifiers: overall volume
// plus who still owes money across the user's open sessions.
type Summary struct {
	TotalSessions      int                            `json:"totalSessions"`
	TotalAmount        float64                        `json:"totalAmount"`
	TotalItems         int                            `json:"totalItems"`
	ActiveParticipants int                            `json:"activeParticipants"`
	OutstandingTotal   float64                        `json:"outstandingTotal"`
	Outstanding        []calculator.SettlementSummary `json:"outstanding"`
	TopSpenders        []Spender                      `json:"topSpenders"`
	RecentSessions     []SessionBrief                 `json:"recentSessions"`
}

// ReportService derives read-only views over the user's sessions.
type ReportService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewReportService creates a new ReportService with the given storage backend.
func NewReportService(store storage.Store, logger *slog.Logger) *ReportService {
	return &ReportService{store: store, logger: logger}
}

// Activity builds the user's recent activity feed, newest first. A limit of
// zero or less means no limit.
func (s *ReportService) Activity(ctx context.Context, userID string, limit int) ([]ActivityEntry, error) {
	sessions, err := s.store.ListSessions(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	var entries []ActivityEntry
	for _, session := range sessions {
		entries = append(entries, ActivityEntry{
			Type:        ActivitySessionCreated,
			SessionID:   session.ID,
			SessionName: session.Name,
			Timestamp:   session.CreatedAt,
		})
		for _, st := range session.Settlements {
			entries = append(entries, ActivityEntry{
				Type:            ActivitySettlementRecorded,
				SessionID:       session.ID,
				SessionName:     session.Name,
				ParticipantName: st.ParticipantName,
				Amount:          st.AmountPaid,
				Timestamp:       st.CreatedAt,
			})
		}
		if session.Settled {
			entries = append(entries, ActivityEntry{
				Type:        ActivitySessionSettled,
				SessionID:   session.ID,
				SessionName: session.Name,
				Timestamp:   session.SettledAt,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// BuildSummary aggregates the user's open sessions into the notifier digest.
// Fully settled participants are left out of the outstanding list.
func (s *ReportService) BuildSummary(ctx context.Context, userID string) (*Summary, error) {
	sessions, err := s.store.ListSessions(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	summary := &Summary{TotalSessions: len(sessions)}
	splits := make([]calculator.SessionSplit, len(sessions))
	for i, session := range sessions {
		splits[i] = toSessionSplit(session)
		summary.TotalItems += len(session.Items)
	}

	const recentLimit = 5
	for i, session := range sessions {
		if i >= recentLimit {
			break
		}
		calc := calculator.CalculateSplit(splits[i].Participants, splits[i].Items, session.TaxAmount)
		summary.RecentSessions = append(summary.RecentSessions, SessionBrief{
			SessionID: session.ID,
			Name:      session.Name,
			Total:     calc.Summary.Total,
			Settled:   session.Settled,
			CreatedAt: session.CreatedAt,
		})
	}

	for _, ps := range calculator.Aggregate(splits) {
		summary.ActiveParticipants++
		summary.TotalAmount += ps.TotalOwed
		summary.TopSpenders = append(summary.TopSpenders, Spender{Name: ps.ParticipantName, Amount: ps.TotalOwed})
		if ps.FullySettled {
			continue
		}
		summary.Outstanding = append(summary.Outstanding, ps)
		summary.OutstandingTotal += ps.Balance
	}

	sort.Slice(summary.TopSpenders, func(i, j int) bool {
		return summary.TopSpenders[i].Amount > summary.TopSpenders[j].Amount
	})
	if len(summary.TopSpenders) > recentLimit {
		summary.TopSpenders = summary.TopSpenders[:recentLimit]
	}

	s.logger.Debug("Summary built", "user_id", userID,
		"sessions", summary.TotalSessions, "outstanding", len(summary.Outstanding),
		"outstanding_total", summary.OutstandingTotal)
	return summary, nil
}
