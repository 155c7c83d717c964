package models

// Settlement records what one participant owes and has paid for one session.
// There is exactly one row per (SessionID, ParticipantID) pair; writes go
// through an upsert keyed on that pair, last write wins.
type Settlement struct {
	// ID is the unique identifier for the settlement row (UUID format).
	ID string `json:"id"`

	// SessionID is the session the debt belongs to.
	SessionID string `json:"sessionId"`

	// ParticipantID is the participant within that session.
	ParticipantID string `json:"participantId"`

	// ParticipantName is denormalized from the participant at write time so
	// settlement history survives participant renames.
	ParticipantName string `json:"participantName"`

	// AmountOwed is the participant's computed share at settlement time.
	AmountOwed float64 `json:"amountOwed"`

	// AmountPaid is how much of the owed amount has been paid.
	AmountPaid float64 `json:"amountPaid"`

	// Settled is true once the participant has paid in full.
	Settled bool `json:"settled"`

	// SettledAt is the Unix timestamp when Settled flipped to true, 0 if not.
	SettledAt int64 `json:"settledAt,omitempty"`

	// CreatedAt is the Unix timestamp when the row was first written.
	CreatedAt int64 `json:"createdAt"`
}
