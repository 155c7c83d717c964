package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/storage"
)

// UpsertSettlements writes settlement rows keyed on (session_id,
// participant_id) in a single transaction. An existing row keeps its id and
// created_at; everything else takes the new values.
func (s *SQLiteStore) UpsertSettlements(ctx context.Context, rows []*models.Settlement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertSettlementsTx(ctx, tx, rows); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SettleSession upserts the session's settlement rows and updates the
// session's settled flag in the same transaction.
func (s *SQLiteStore) SettleSession(ctx context.Context, sessionID string, rows []*models.Settlement, settled bool, settledAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertSettlementsTx(ctx, tx, rows); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET settled = ?, settled_at = ? WHERE id = ?",
		settled, settledAt, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session settled flag: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found: %w", storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func upsertSettlementsTx(ctx context.Context, tx *sql.Tx, rows []*models.Settlement) error {
	now := time.Now().Unix()
	for _, row := range rows {
		if row.ID == "" {
			row.ID = uuid.New().String()
		}
		if row.CreatedAt == 0 {
			row.CreatedAt = now
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO settlements (id, session_id, participant_id, participant_name, amount_owed, amount_paid, settled, settled_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(session_id, participant_id) DO UPDATE SET
			     participant_name = excluded.participant_name,
			     amount_owed = excluded.amount_owed,
			     amount_paid = excluded.amount_paid,
			     settled = excluded.settled,
			     settled_at = excluded.settled_at`,
			row.ID, row.SessionID, row.ParticipantID, row.ParticipantName,
			row.AmountOwed, row.AmountPaid, row.Settled, row.SettledAt, row.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert settlement: %w", err)
		}
	}

	return nil
}
