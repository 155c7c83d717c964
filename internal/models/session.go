package models

// Session represents a single bill-splitting occasion ("trip") owned by one
// user. Sessions are soft-deleted via the Archived flag so settlement history
// is never lost.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string `json:"id"`

	// Name is the human-readable trip name (e.g. "Costco run 03/12").
	Name string `json:"name"`

	// UserID is the owning user.
	UserID string `json:"userId"`

	// TaxAmount is the session-level tax in currency units. It is a single
	// scalar apportioned across taxable items at calculation time.
	TaxAmount float64 `json:"taxAmount"`

	// TotalAmount is the cached bill total from the last receipt parse or
	// manual entry. Informational; the calculator derives its own totals.
	TotalAmount float64 `json:"totalAmount"`

	// ReceiptURL is the stored filename of the uploaded receipt image, if any.
	ReceiptURL string `json:"receiptUrl,omitempty"`

	// Archived marks the session as soft-deleted.
	Archived bool `json:"archived"`

	// ArchivedAt is the Unix timestamp when the session was archived, 0 if not.
	ArchivedAt int64 `json:"archivedAt,omitempty"`

	// Settled is true when every settlement row of the session is settled.
	// A session with no settlement rows is not considered settled.
	Settled bool `json:"settled"`

	// SettledAt is the Unix timestamp when the session became fully settled.
	SettledAt int64 `json:"settledAt,omitempty"`

	// CreatedAt is the Unix timestamp when the session was created.
	CreatedAt int64 `json:"createdAt"`

	// Participants are the people splitting this session's bill.
	Participants []Participant `json:"participants"`

	// Items are the session's line items in display order.
	Items []LineItem `json:"items"`

	// Settlements are the recorded settlement rows for this session.
	Settlements []Settlement `json:"settlements"`
}

// Participant represents a person sharing costs within one session.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string `json:"id"`

	// SessionID is the owning session.
	SessionID string `json:"sessionId"`

	// Name is the participant's display name. Cross-session aggregation
	// merges participants by this name.
	Name string `json:"name"`

	// CreatedAt is the Unix timestamp when the participant was added.
	CreatedAt int64 `json:"createdAt"`
}

// GlobalParticipant is a user-scoped reusable participant name, unique per
// (user, name). It exists so the UI can offer previously used names when
// building a new session.
type GlobalParticipant struct {
	// ID is the unique identifier (UUID format).
	ID string `json:"id"`

	// UserID is the owning user.
	UserID string `json:"userId"`

	// Name is the participant name, unique within the user's list.
	Name string `json:"name"`

	// CreatedAt is the Unix timestamp when the name was first used.
	CreatedAt int64 `json:"createdAt"`
}
