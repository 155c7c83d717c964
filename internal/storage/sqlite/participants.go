package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitfair/splitfair/internal/models"
)

// AddParticipant adds a participant to a session.
func (s *SQLiteStore) AddParticipant(ctx context.Context, participant *models.Participant) error {
	if participant.ID == "" {
		participant.ID = uuid.New().String()
	}
	if participant.CreatedAt == 0 {
		participant.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO participants (id, session_id, name, created_at) VALUES (?, ?, ?, ?)",
		participant.ID, participant.SessionID, participant.Name, participant.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	return nil
}

// UpsertGlobalParticipant records the user-scoped name if it is new; an
// existing (user, name) row is left untouched so its creation time survives.
func (s *SQLiteStore) UpsertGlobalParticipant(ctx context.Context, participant *models.GlobalParticipant) error {
	if participant.ID == "" {
		participant.ID = uuid.New().String()
	}
	if participant.CreatedAt == 0 {
		participant.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO global_participants (id, user_id, name, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, name) DO NOTHING`,
		participant.ID, participant.UserID, participant.Name, participant.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert global participant: %w", err)
	}

	return nil
}

// ListGlobalParticipants returns the user's participant names, ascending.
func (s *SQLiteStore) ListGlobalParticipants(ctx context.Context, userID string) ([]*models.GlobalParticipant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, name, created_at FROM global_participants WHERE user_id = ? ORDER BY name",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list global participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.GlobalParticipant
	for rows.Next() {
		p := &models.GlobalParticipant{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan global participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate global participants: %w", err)
	}

	return participants, nil
}
