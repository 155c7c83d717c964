package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/storage"
)

const userColumns = "id, email, username, password_hash, google_id, picture, provider, created_at, updated_at"

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.GoogleID,
		user.Picture,
		string(user.Provider),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByUsername retrieves a user by their username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username", username)
}

// GetUserByGoogleID retrieves a user by their linked Google account ID.
func (s *SQLiteStore) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.getUser(ctx, "google_id", googleID)
}

// ListUsers returns every registered user, oldest first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := "SELECT " + userColumns + " FROM users ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		var provider string
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.PasswordHash,
			&user.GoogleID,
			&user.Picture,
			&provider,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Provider = models.AuthProvider(provider)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = ?"

	user := &models.User{}
	var provider string
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Picture,
		&provider,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	user.Provider = models.AuthProvider(provider)
	return user, nil
}

// LinkGoogleAccount attaches a Google identity to an existing user.
func (s *SQLiteStore) LinkGoogleAccount(ctx context.Context, userID, googleID, picture string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET google_id = ?, picture = ?, provider = ?, updated_at = ? WHERE id = ?`,
		googleID, picture, string(models.AuthProviderGoogle), time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to link google account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user not found: %w", storage.ErrNotFound)
	}

	return nil
}
