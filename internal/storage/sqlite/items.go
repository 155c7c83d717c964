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

// AddLineItem appends an item to a session at the next order index.
func (s *SQLiteStore) AddLineItem(ctx context.Context, item *models.LineItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().Unix()
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Next display position after the current highest
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(order_index), -1) + 1 FROM line_items WHERE session_id = ?",
		item.SessionID,
	).Scan(&item.OrderIndex)
	if err != nil {
		return fmt.Errorf("failed to compute order index: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO line_items (id, session_id, name, quantity, price, taxable, order_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.SessionID, item.Name, item.Quantity, item.Price, item.Taxable,
		item.OrderIndex, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	for _, participantID := range item.AssignedTo {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO item_assignments (item_id, participant_id) VALUES (?, ?)",
			item.ID, participantID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateLineItem updates an item's name, quantity, price and taxable flag.
func (s *SQLiteStore) UpdateLineItem(ctx context.Context, item *models.LineItem) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE line_items SET name = ?, quantity = ?, price = ?, taxable = ? WHERE id = ? AND session_id = ?",
		item.Name, item.Quantity, item.Price, item.Taxable, item.ID, item.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item not found: %w", storage.ErrNotFound)
	}

	return nil
}

// DeleteLineItem removes an item; its assignments cascade away.
func (s *SQLiteStore) DeleteLineItem(ctx context.Context, sessionID, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM line_items WHERE id = ? AND session_id = ?",
		itemID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item not found: %w", storage.ErrNotFound)
	}

	return nil
}

// ReplaceLineItems swaps a session's entire item list in one transaction,
// assigning order indexes from the slice order.
func (s *SQLiteStore) ReplaceLineItems(ctx context.Context, sessionID string, items []*models.LineItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "DELETE FROM line_items WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	now := time.Now().Unix()
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.CreatedAt == 0 {
			item.CreatedAt = now
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		item.SessionID = sessionID
		item.OrderIndex = i

		_, err = tx.ExecContext(ctx,
			`INSERT INTO line_items (id, session_id, name, quantity, price, taxable, order_index, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.SessionID, item.Name, item.Quantity, item.Price, item.Taxable,
			item.OrderIndex, item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		for _, participantID := range item.AssignedTo {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO item_assignments (item_id, participant_id) VALUES (?, ?)",
				item.ID, participantID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AssignItem replaces the whole assignment set of an item.
func (s *SQLiteStore) AssignItem(ctx context.Context, sessionID, itemID string, participantIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM line_items WHERE id = ? AND session_id = ?",
		itemID, sessionID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("item not found: %w", storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check item existence: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM item_assignments WHERE item_id = ?", itemID)
	if err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	for _, participantID := range participantIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO item_assignments (item_id, participant_id) VALUES (?, ?)",
			itemID, participantID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
