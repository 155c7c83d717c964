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

// CreateSession persists a new session and its initial participants.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	// Generate IDs if not set
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt == 0 {
		session.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, name, tax_amount, total_amount, receipt_url, archived, archived_at, settled, settled_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Name, session.TaxAmount, session.TotalAmount,
		session.ReceiptURL, session.Archived, session.ArchivedAt, session.Settled, session.SettledAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for i := range session.Participants {
		p := &session.Participants[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt == 0 {
			p.CreatedAt = session.CreatedAt
		}
		p.SessionID = session.ID

		_, err = tx.ExecContext(ctx,
			"INSERT INTO participants (id, session_id, name, created_at) VALUES (?, ?, ?, ?)",
			p.ID, p.SessionID, p.Name, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSession retrieves a session owned by userID with participants, items and
// settlements loaded.
func (s *SQLiteStore) GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, tax_amount, total_amount, receipt_url, archived, archived_at, settled, settled_at, created_at
		 FROM sessions WHERE id = ? AND user_id = ?`,
		sessionID, userID,
	).Scan(&session.ID, &session.UserID, &session.Name, &session.TaxAmount, &session.TotalAmount,
		&session.ReceiptURL, &session.Archived, &session.ArchivedAt, &session.Settled, &session.SettledAt,
		&session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := s.loadSessionGraph(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// ListSessions retrieves the user's sessions, newest first, each fully loaded.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string, includeArchived bool) ([]*models.Session, error) {
	query := `SELECT id, user_id, name, tax_amount, total_amount, receipt_url, archived, archived_at, settled, settled_at, created_at
		 FROM sessions WHERE user_id = ?`
	if !includeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session := &models.Session{}
		if err := rows.Scan(&session.ID, &session.UserID, &session.Name, &session.TaxAmount, &session.TotalAmount,
			&session.ReceiptURL, &session.Archived, &session.ArchivedAt, &session.Settled, &session.SettledAt,
			&session.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	for _, session := range sessions {
		if err := s.loadSessionGraph(ctx, session); err != nil {
			return nil, err
		}
	}

	return sessions, nil
}

// ArchiveSession sets or clears the session's archived flag.
func (s *SQLiteStore) ArchiveSession(ctx context.Context, userID, sessionID string, archived bool) error {
	archivedAt := int64(0)
	if archived {
		archivedAt = time.Now().Unix()
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET archived = ?, archived_at = ? WHERE id = ? AND user_id = ?",
		archived, archivedAt, sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to archive session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found: %w", storage.ErrNotFound)
	}

	return nil
}

// UpdateSessionReceipt records the receipt reference and bill-level amounts.
func (s *SQLiteStore) UpdateSessionReceipt(ctx context.Context, sessionID, receiptURL string, taxAmount, totalAmount float64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET receipt_url = ?, tax_amount = ?, total_amount = ? WHERE id = ?",
		receiptURL, taxAmount, totalAmount, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session receipt: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found: %w", storage.ErrNotFound)
	}

	return nil
}

// loadSessionGraph fills in the session's participants, line items (with
// assignments, in display order) and settlement rows.
func (s *SQLiteStore) loadSessionGraph(ctx context.Context, session *models.Session) error {
	// Participants
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, name, created_at FROM participants WHERE session_id = ? ORDER BY created_at, id",
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Name, &p.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		session.Participants = append(session.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	// Items with their assignments
	itemRows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, name, quantity, price, taxable, order_index, created_at
		 FROM line_items WHERE session_id = ? ORDER BY order_index`,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.LineItem
		if err := itemRows.Scan(&item.ID, &item.SessionID, &item.Name, &item.Quantity,
			&item.Price, &item.Taxable, &item.OrderIndex, &item.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}

		assignRows, err := s.db.QueryContext(ctx,
			"SELECT participant_id FROM item_assignments WHERE item_id = ? ORDER BY participant_id",
			item.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to get item assignments: %w", err)
		}

		for assignRows.Next() {
			var participantID string
			if err := assignRows.Scan(&participantID); err != nil {
				assignRows.Close()
				return fmt.Errorf("failed to scan assignment: %w", err)
			}
			item.AssignedTo = append(item.AssignedTo, participantID)
		}
		assignRows.Close()
		if err := assignRows.Err(); err != nil {
			return fmt.Errorf("failed to iterate assignments: %w", err)
		}

		session.Items = append(session.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate items: %w", err)
	}

	// Settlements
	settlementRows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, participant_id, participant_name, amount_owed, amount_paid, settled, settled_at, created_at
		 FROM settlements WHERE session_id = ? ORDER BY created_at, id`,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get settlements: %w", err)
	}
	defer settlementRows.Close()

	for settlementRows.Next() {
		var st models.Settlement
		if err := settlementRows.Scan(&st.ID, &st.SessionID, &st.ParticipantID, &st.ParticipantName,
			&st.AmountOwed, &st.AmountPaid, &st.Settled, &st.SettledAt, &st.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan settlement: %w", err)
		}
		session.Settlements = append(session.Settlements, st)
	}
	if err := settlementRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return nil
}
