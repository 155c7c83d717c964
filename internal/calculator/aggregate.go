package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SettlementRecord is the aggregator's view of a stored settlement row.
type SettlementRecord struct {
	ParticipantID string
	AmountPaid    float64
	Settled       bool
	SettledAt     int64
}

// SessionSplit is one session's worth of input to Aggregate. Callers pass
// only the sessions they want rolled up (in practice: non-archived sessions
// owned by one user).
type SessionSplit struct {
	SessionID    string
	SessionName  string
	TaxAmount    float64
	Participants []Person
	Items        []SplitItem
	Settlements  []SettlementRecord
}

// SessionEntry is one session's line in a participant's settlement summary.
type SessionEntry struct {
	SessionID   string  `json:"sessionId"`
	SessionName string  `json:"sessionName"`
	AmountOwed  float64 `json:"amountOwed"`
	AmountPaid  float64 `json:"amountPaid"`
	Settled     bool    `json:"settled"`
	SettledAt   int64   `json:"settledAt,omitempty"`
}

// SettlementSummary is the cross-session rollup for one participant name.
type SettlementSummary struct {
	ParticipantName string         `json:"participantName"`
	TotalOwed       float64        `json:"totalOwed"`
	TotalPaid       float64        `json:"totalPaid"`
	Balance         float64        `json:"balance"`
	Sessions        []SessionEntry `json:"sessions"`
	FullySettled    bool           `json:"fullySettled"`
}

type summaryAccumulator struct {
	summary   *SettlementSummary
	totalOwed decimal.Decimal
	totalPaid decimal.Decimal
}

// findAccumulator locates the bucket for a participant name via the
// SameParticipant policy rather than direct map lookup, so changing the
// matching policy changes aggregation with it.
func findAccumulator(accs []*summaryAccumulator, name string) *summaryAccumulator {
	for _, acc := range accs {
		if SameParticipant(acc.summary.ParticipantName, name) {
			return acc
		}
	}
	return nil
}

// Aggregate rolls settlement state up across sessions, merging participants
// by name (two participants with the same name in different sessions are the
// same real-world person). Each session gets its own CalculateSplit pass
// because tax apportionment is strictly per-session. Participants owing zero
// in a session are skipped for that session; names that owe nothing anywhere
// do not appear at all. The result is sorted by participant name ascending.
//
// Aggregate is read-only: it never touches settlement rows.
func Aggregate(sessions []SessionSplit) []SettlementSummary {
	var accs []*summaryAccumulator

	for _, session := range sessions {
		calc := CalculateSplit(session.Participants, session.Items, session.TaxAmount)

		for _, pt := range calc.Participants {
			if pt.Total == 0 {
				continue
			}

			acc := findAccumulator(accs, pt.Name)
			if acc == nil {
				acc = &summaryAccumulator{
					summary: &SettlementSummary{
						ParticipantName: pt.Name,
						Sessions:        []SessionEntry{},
						FullySettled:    true,
					},
				}
				accs = append(accs, acc)
			}

			var record *SettlementRecord
			for i := range session.Settlements {
				if session.Settlements[i].ParticipantID == pt.ParticipantID {
					record = &session.Settlements[i]
					break
				}
			}

			entry := SessionEntry{
				SessionID:   session.SessionID,
				SessionName: session.SessionName,
				AmountOwed:  pt.Total,
			}
			if record != nil {
				entry.AmountPaid = record.AmountPaid
				entry.Settled = record.Settled
				entry.SettledAt = record.SettledAt
			}

			acc.totalOwed = acc.totalOwed.Add(decimal.NewFromFloat(pt.Total))
			acc.totalPaid = acc.totalPaid.Add(decimal.NewFromFloat(entry.AmountPaid))
			acc.summary.Sessions = append(acc.summary.Sessions, entry)
			if !entry.Settled {
				acc.summary.FullySettled = false
			}
		}
	}

	summaries := make([]SettlementSummary, 0, len(accs))
	for _, acc := range accs {
		acc.summary.TotalOwed = Round2(acc.totalOwed).InexactFloat64()
		acc.summary.TotalPaid = Round2(acc.totalPaid).InexactFloat64()
		acc.summary.Balance = Round2(acc.totalOwed.Sub(acc.totalPaid)).InexactFloat64()
		summaries = append(summaries, *acc.summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ParticipantName < summaries[j].ParticipantName
	})

	return summaries
}
