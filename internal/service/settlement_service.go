package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/splitfair/splitfair/internal/calculator"
	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/storage"
)

// SettlementEntry is one participant's payment state in a settle request.
// Amount is credited as paid only when Settled is set; an unsettled entry
// records a zero payment.
type SettlementEntry struct {
	ParticipantID string
	Amount        float64
	Settled       bool
}

// SettlementService records who has paid what, per session and across all of
// a user's sessions.
type SettlementService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewSettlementService creates a new SettlementService with the given storage backend.
func NewSettlementService(store storage.Store, logger *slog.Logger) *SettlementService {
	return &SettlementService{store: store, logger: logger}
}

// toSessionSplit maps a stored session to the aggregator's input shape.
func toSessionSplit(session *models.Session) calculator.SessionSplit {
	split := calculator.SessionSplit{
		SessionID:    session.ID,
		SessionName:  session.Name,
		TaxAmount:    session.TaxAmount,
		Participants: splitPeople(session),
		Items:        splitItems(session),
	}
	for _, st := range session.Settlements {
		split.Settlements = append(split.Settlements, calculator.SettlementRecord{
			ParticipantID: st.ParticipantID,
			AmountPaid:    st.AmountPaid,
			Settled:       st.Settled,
			SettledAt:     st.SettledAt,
		})
	}
	return split
}

// SettleSession records settlement state for the given participants of one
// session. Each entry's owed amount is recomputed from the current items, so
// a stale client cannot write outdated debts. The session's own settled flag
// is refreshed in the same transaction: it is set only when the session has
// at least one settlement row and every row is settled.
func (s *SettlementService) SettleSession(ctx context.Context, userID, sessionID string, entries []SettlementEntry) (*models.Session, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("at least one settlement entry required: %w", ErrInvalidInput)
	}

	session, err := s.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	participantsByID := make(map[string]models.Participant, len(session.Participants))
	for _, p := range session.Participants {
		participantsByID[p.ID] = p
	}

	items := splitItems(session)
	now := time.Now().Unix()

	rows := make([]*models.Settlement, 0, len(entries))
	for _, entry := range entries {
		participant, ok := participantsByID[entry.ParticipantID]
		if !ok {
			return nil, fmt.Errorf("participant %s not in session: %w", entry.ParticipantID, ErrInvalidInput)
		}

		row := &models.Settlement{
			SessionID:       session.ID,
			ParticipantID:   participant.ID,
			ParticipantName: participant.Name,
			AmountOwed:      calculator.ParticipantShare(items, participant.ID, session.TaxAmount),
			Settled:         entry.Settled,
		}
		if entry.Settled {
			row.AmountPaid = entry.Amount
			row.SettledAt = now
		}
		rows = append(rows, row)
	}

	settled, settledAt := sessionSettledState(session.Settlements, rows, now)
	if err := s.store.SettleSession(ctx, session.ID, rows, settled, settledAt); err != nil {
		s.logger.Error("SettleSession failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	s.logger.Info("Session settlement recorded", "session_id", sessionID,
		"rows", len(rows), "session_settled", settled)
	return s.store.GetSession(ctx, userID, sessionID)
}

// SettleParticipant marks one named participant as settled across every
// non-archived session of the user. Sessions where the participant owes
// nothing and has no prior settlement row are skipped. All rows are written
// in one transaction; it returns the number of sessions affected.
func (s *SettlementService) SettleParticipant(ctx context.Context, userID, participantName string) (int, error) {
	if participantName == "" {
		return 0, fmt.Errorf("participant name required: %w", ErrInvalidInput)
	}

	sessions, err := s.store.ListSessions(ctx, userID, false)
	if err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	var rows []*models.Settlement
	affected := make(map[string][]*models.Settlement)

	for _, session := range sessions {
		items := splitItems(session)
		existing := make(map[string]bool, len(session.Settlements))
		for _, st := range session.Settlements {
			existing[st.ParticipantID] = true
		}

		for _, p := range session.Participants {
			if !calculator.SameParticipant(p.Name, participantName) {
				continue
			}

			owed := calculator.ParticipantShare(items, p.ID, session.TaxAmount)
			if owed == 0 && !existing[p.ID] {
				// Nothing owed and nothing recorded; no row to settle.
				continue
			}

			row := &models.Settlement{
				SessionID:       session.ID,
				ParticipantID:   p.ID,
				ParticipantName: p.Name,
				AmountOwed:      owed,
				AmountPaid:      owed,
				Settled:         true,
				SettledAt:       now,
			}
			rows = append(rows, row)
			affected[session.ID] = append(affected[session.ID], row)
		}
	}

	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.store.UpsertSettlements(ctx, rows); err != nil {
		s.logger.Error("SettleParticipant failed", "participant", participantName, "error", err)
		return 0, err
	}

	// Refresh each touched session's settled flag now that its rows changed.
	for _, session := range sessions {
		newRows, ok := affected[session.ID]
		if !ok {
			continue
		}
		settled, settledAt := sessionSettledState(session.Settlements, newRows, now)
		if settled == session.Settled {
			continue
		}
		if err := s.store.SettleSession(ctx, session.ID, nil, settled, settledAt); err != nil {
			return 0, err
		}
	}

	s.logger.Info("Participant settled across sessions", "participant", participantName,
		"sessions", len(affected), "rows", len(rows))
	return len(affected), nil
}

// SettlementSummary aggregates what each named participant owes and has paid
// across all of the user's non-archived sessions.
func (s *SettlementService) SettlementSummary(ctx context.Context, userID string) ([]calculator.SettlementSummary, error) {
	sessions, err := s.store.ListSessions(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	splits := make([]calculator.SessionSplit, len(sessions))
	for i, session := range sessions {
		splits[i] = toSessionSplit(session)
	}
	return calculator.Aggregate(splits), nil
}

// sessionSettledState folds existing rows and pending writes into the
// session's settled flag. Pending rows shadow existing rows with the same
// participant. A session with no rows at all is never settled.
func sessionSettledState(existing []models.Settlement, pending []*models.Settlement, now int64) (bool, int64) {
	merged := make(map[string]bool)
	for _, st := range existing {
		merged[st.ParticipantID] = st.Settled
	}
	for _, row := range pending {
		merged[row.ParticipantID] = row.Settled
	}

	if len(merged) == 0 {
		return false, 0
	}
	for _, settled := range merged {
		if !settled {
			return false, 0
		}
	}
	return true, now
}
