// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitfair/splitfair/internal/models"
)

// ErrNotFound is returned when an entity does not exist or is not visible to
// the requesting user. Callers should treat both cases identically so that
// ownership checks do not leak entity existence.
var ErrNotFound = errors.New("not found")

// Store defines the interface for SplitFair storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// CreateUser persists a new user. The user's ID must already be set.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail retrieves a user by email. Returns ErrNotFound if absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByUsername retrieves a user by username. Returns ErrNotFound if
	// absent.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByGoogleID retrieves a user by linked Google account ID.
	// Returns ErrNotFound if absent.
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)

	// ListUsers returns every registered user, oldest first. Used by the
	// summary scheduler.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// LinkGoogleAccount attaches a Google identity to an existing user.
	LinkGoogleAccount(ctx context.Context, userID, googleID, picture string) error

	// CreateSession persists a new session together with any initial
	// participants. IDs and CreatedAt are populated by the store when unset.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session owned by userID with its participants,
	// line items (in display order, with assignments) and settlement rows.
	// Returns ErrNotFound for a missing or foreign session alike.
	GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error)

	// ListSessions retrieves all sessions owned by userID, newest first,
	// each loaded as fully as GetSession loads one. Archived sessions are
	// included only when includeArchived is set.
	ListSessions(ctx context.Context, userID string, includeArchived bool) ([]*models.Session, error)

	// ArchiveSession sets or clears the session's archived flag.
	ArchiveSession(ctx context.Context, userID, sessionID string, archived bool) error

	// UpdateSessionReceipt records the parsed receipt reference and the
	// session-level tax and total amounts.
	UpdateSessionReceipt(ctx context.Context, sessionID, receiptURL string, taxAmount, totalAmount float64) error

	// AddParticipant adds a participant to a session.
	AddParticipant(ctx context.Context, participant *models.Participant) error

	// UpsertGlobalParticipant creates the user-scoped participant name if it
	// does not exist yet; existing rows are left untouched.
	UpsertGlobalParticipant(ctx context.Context, participant *models.GlobalParticipant) error

	// ListGlobalParticipants returns the user's participant names, ascending.
	ListGlobalParticipants(ctx context.Context, userID string) ([]*models.GlobalParticipant, error)

	// AddLineItem appends an item to a session, assigning the next
	// contiguous order index.
	AddLineItem(ctx context.Context, item *models.LineItem) error

	// UpdateLineItem updates an item's mutable fields (name, quantity,
	// price, taxable). Returns ErrNotFound if the item is not in the session.
	UpdateLineItem(ctx context.Context, item *models.LineItem) error

	// DeleteLineItem removes an item and, via cascade, its assignments.
	DeleteLineItem(ctx context.Context, sessionID, itemID string) error

	// ReplaceLineItems swaps a session's entire item list in one
	// transaction, re-indexing order from zero. Used by receipt ingestion
	// and manual entry.
	ReplaceLineItems(ctx context.Context, sessionID string, items []*models.LineItem) error

	// AssignItem replaces the whole assignment set of an item.
	AssignItem(ctx context.Context, sessionID, itemID string, participantIDs []string) error

	// UpsertSettlements writes settlement rows keyed on
	// (session_id, participant_id) in a single transaction; either every row
	// lands or none do. Existing rows take the new amounts (last write wins).
	UpsertSettlements(ctx context.Context, rows []*models.Settlement) error

	// SettleSession upserts the given settlement rows and updates the
	// session's settled flag in the same transaction.
	SettleSession(ctx context.Context, sessionID string, rows []*models.Settlement, settled bool, settledAt int64) error

	// Close releases any resources held by the store.
	Close() error
}
