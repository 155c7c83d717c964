// Package service contains the application logic between the HTTP handlers
// and the storage layer: session management, split calculation, settlement
// bookkeeping and reporting.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/splitfair/splitfair/internal/calculator"
	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/storage"
)

// SessionService manages bill-splitting sessions and their contents.
type SessionService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewSessionService creates a new SessionService with the given storage backend.
func NewSessionService(store storage.Store, logger *slog.Logger) *SessionService {
	return &SessionService{store: store, logger: logger}
}

// splitPeople maps a session's participants to calculator inputs.
func splitPeople(session *models.Session) []calculator.Person {
	people := make([]calculator.Person, len(session.Participants))
	for i, p := range session.Participants {
		people[i] = calculator.Person{ID: p.ID, Name: p.Name}
	}
	return people
}

// splitItems maps a session's line items to calculator inputs.
func splitItems(session *models.Session) []calculator.SplitItem {
	items := make([]calculator.SplitItem, len(session.Items))
	for i, item := range session.Items {
		items[i] = calculator.SplitItem{
			Name:       item.Name,
			Price:      item.Price,
			Taxable:    item.Taxable,
			AssignedTo: item.AssignedTo,
		}
	}
	return items
}

// hasParticipantName reports whether the session already contains the exact name.
func hasParticipantName(session *models.Session, name string) bool {
	for _, p := range session.Participants {
		if calculator.SameParticipant(p.Name, name) {
			return true
		}
	}
	return false
}

// CreateSession creates a session owned by userID. The owner's username is
// always the first participant; additional names follow in request order with
// exact duplicates collapsed.
func (s *SessionService) CreateSession(ctx context.Context, userID, name string, participantNames []string) (*models.Session, error) {
	if name == "" {
		return nil, fmt.Errorf("session name required: %w", ErrInvalidInput)
	}

	owner, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID: userID,
		Name:   name,
		Participants: []models.Participant{
			{Name: owner.Username},
		},
	}
	for _, pname := range participantNames {
		if pname == "" {
			return nil, fmt.Errorf("participant name required: %w", ErrInvalidInput)
		}
		if hasParticipantName(session, pname) {
			continue
		}
		session.Participants = append(session.Participants, models.Participant{Name: pname})
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		s.logger.Error("CreateSession failed", "user_id", userID, "error", err)
		return nil, err
	}

	for _, p := range session.Participants {
		if err := s.store.UpsertGlobalParticipant(ctx, &models.GlobalParticipant{
			UserID: userID,
			Name:   p.Name,
		}); err != nil {
			s.logger.Warn("Failed to record global participant", "name", p.Name, "error", err)
		}
	}

	s.logger.Info("Session created", "session_id", session.ID, "user_id", userID,
		"participants", len(session.Participants))
	return session, nil
}

// GetSession retrieves one of the user's sessions with everything loaded.
func (s *SessionService) GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	return s.store.GetSession(ctx, userID, sessionID)
}

// ListSessions retrieves the user's sessions, newest first.
func (s *SessionService) ListSessions(ctx context.Context, userID string, includeArchived bool) ([]*models.Session, error) {
	return s.store.ListSessions(ctx, userID, includeArchived)
}

// ArchiveSession soft-deletes or restores a session.
func (s *SessionService) ArchiveSession(ctx context.Context, userID, sessionID string, archived bool) error {
	if err := s.store.ArchiveSession(ctx, userID, sessionID, archived); err != nil {
		return err
	}
	s.logger.Info("Session archive state changed", "session_id", sessionID, "archived", archived)
	return nil
}

// SetSessionAmounts records the session-level tax and bill total.
func (s *SessionService) SetSessionAmounts(ctx context.Context, userID, sessionID string, taxAmount, totalAmount float64) (*models.Session, error) {
	if taxAmount < 0 || totalAmount < 0 {
		return nil, fmt.Errorf("amounts must not be negative: %w", ErrInvalidInput)
	}

	session, err := s.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateSessionReceipt(ctx, session.ID, session.ReceiptURL, taxAmount, totalAmount); err != nil {
		return nil, err
	}
	return s.store.GetSession(ctx, userID, sessionID)
}

// AddParticipant adds a named participant to a session. The name must be new
// within the session; it is also recorded in the user's global name list.
func (s *SessionService) AddParticipant(ctx context.Context, userID, sessionID, name string) (*models.Participant, error) {
	if name == "" {
		return nil, fmt.Errorf("participant name required: %w", ErrInvalidInput)
	}

	session, err := s.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if hasParticipantName(session, name) {
		return nil, fmt.Errorf("participant %q already in session: %w", name, ErrInvalidInput)
	}

	participant := &models.Participant{SessionID: session.ID, Name: name}
	if err := s.store.AddParticipant(ctx, participant); err != nil {
		s.logger.Error("AddParticipant failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	if err := s.store.UpsertGlobalParticipant(ctx, &models.GlobalParticipant{
		UserID: userID,
		Name:   name,
	}); err != nil {
		s.logger.Warn("Failed to record global participant", "name", name, "error", err)
	}

	return participant, nil
}

// AddGlobalParticipant records a reusable participant name for the user.
// Adding an existing name is a no-op.
func (s *SessionService) AddGlobalParticipant(ctx context.Context, userID, name string) (*models.GlobalParticipant, error) {
	if name == "" {
		return nil, fmt.Errorf("participant name required: %w", ErrInvalidInput)
	}
	participant := &models.GlobalParticipant{UserID: userID, Name: name}
	if err := s.store.UpsertGlobalParticipant(ctx, participant); err != nil {
		return nil, err
	}
	return participant, nil
}

// ListGlobalParticipants returns the user's previously used participant names.
func (s *SessionService) ListGlobalParticipants(ctx context.Context, userID string) ([]*models.GlobalParticipant, error) {
	return s.store.ListGlobalParticipants(ctx, userID)
}

// AddItem appends a line item to a session.
func (s *SessionService) AddItem(ctx context.Context, userID, sessionID string, item *models.LineItem) (*models.LineItem, error) {
	if item.Name == "" {
		return nil, fmt.Errorf("item name required: %w", ErrInvalidInput)
	}
	if item.Price < 0 {
		return nil, fmt.Errorf("item price must not be negative: %w", ErrInvalidInput)
	}

	session, err := s.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := validateAssignees(session, item.AssignedTo); err != nil {
		return nil, err
	}

	item.SessionID = session.ID
	if err := s.store.AddLineItem(ctx, item); err != nil {
		s.logger.Error("AddItem failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	return item, nil
}

// UpdateItem updates a line item's name, quantity, price and taxable flag.
func (s *SessionService) UpdateItem(ctx context.Context, userID, sessionID string, item *models.LineItem) error {
	if item.Name == "" {
		return fmt.Errorf("item name required: %w", ErrInvalidInput)
	}
	if item.Price < 0 {
		return fmt.Errorf("item price must not be negative: %w", ErrInvalidInput)
	}

	if _, err := s.store.GetSession(ctx, userID, sessionID); err != nil {
		return err
	}
	item.SessionID = sessionID
	return s.store.UpdateLineItem(ctx, item)
}

// DeleteItem removes a line item from a session.
func (s *SessionService) DeleteItem(ctx context.Context, userID, sessionID, itemID string) error {
	if _, err := s.store.GetSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.store.DeleteLineItem(ctx, sessionID, itemID)
}

// AssignItem replaces an item's assignment set. Every ID must belong to the
// session; an empty set leaves the item unassigned and excluded from totals.
func (s *SessionService) AssignItem(ctx context.Context, userID, sessionID, itemID string, participantIDs []string) error {
	session, err := s.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if err := validateAssignees(session, participantIDs); err != nil {
		return err
	}
	return s.store.AssignItem(ctx, sessionID, itemID, participantIDs)
}

// ApplyReceipt swaps the session's entire item list for the receipt contents
// and records the receipt reference and session-level amounts. Items come in
// unassigned; assignment happens afterwards through AssignItem. An empty
// receiptURL keeps the existing reference, so manual entry reuses this path.
func (s *SessionService) ApplyReceipt(ctx context.Context, userID, sessionID, receiptURL string, items []*models.LineItem, taxAmount, totalAmount float64) (*models.Session, error) {
	if taxAmount < 0 || totalAmount < 0 {
		return nil, fmt.Errorf("amounts must not be negative: %w", ErrInvalidInput)
	}
	for _, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("item name required: %w", ErrInvalidInput)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("item price must not be negative: %w", ErrInvalidInput)
		}
	}

	session, err := s.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		item.SessionID = session.ID
	}
	if err := s.store.ReplaceLineItems(ctx, session.ID, items); err != nil {
		s.logger.Error("ApplyReceipt failed to replace items", "session_id", sessionID, "error", err)
		return nil, err
	}

	if receiptURL == "" {
		receiptURL = session.ReceiptURL
	}
	if err := s.store.UpdateSessionReceipt(ctx, session.ID, receiptURL, taxAmount, totalAmount); err != nil {
		return nil, err
	}

	s.logger.Info("Receipt applied", "session_id", sessionID, "items", len(items),
		"tax", taxAmount, "total", totalAmount)
	return s.store.GetSession(ctx, userID, sessionID)
}

// Calculate runs the split for one of the user's sessions.
func (s *SessionService) Calculate(ctx context.Context, userID, sessionID string) (calculator.SplitCalculation, error) {
	session, err := s.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		return calculator.SplitCalculation{}, err
	}

	calc := calculator.CalculateSplit(splitPeople(session), splitItems(session), session.TaxAmount)
	s.logger.Debug("Split calculated", "session_id", sessionID,
		"total", calc.Summary.Total, "rounding_error", calc.Summary.RoundingError)
	return calc, nil
}

// validateAssignees checks that every ID names a participant of the session.
func validateAssignees(session *models.Session, participantIDs []string) error {
	known := make(map[string]bool, len(session.Participants))
	for _, p := range session.Participants {
		known[p.ID] = true
	}
	for _, id := range participantIDs {
		if !known[id] {
			return fmt.Errorf("participant %s not in session: %w", id, ErrInvalidInput)
		}
	}
	return nil
}
