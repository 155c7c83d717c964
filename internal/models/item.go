package models

// LineItem represents a single priced entry on a session's receipt.
// Items can be shared among multiple participants; cost math always uses the
// total line price, never price times quantity.
type LineItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// SessionID is the owning session.
	SessionID string `json:"sessionId"`

	// Name is the item description (e.g. "KS ORG EGGS").
	Name string `json:"name"`

	// Quantity is informational only and does not affect the split math.
	Quantity int `json:"quantity"`

	// Price is the total line price in currency units (2-decimal precision).
	Price float64 `json:"price"`

	// Taxable marks the item as part of the session's taxable base.
	Taxable bool `json:"taxable"`

	// OrderIndex is the stable zero-based display position within the
	// session. New items get max(existing)+1.
	OrderIndex int `json:"orderIndex"`

	// AssignedTo lists the IDs of participants sharing this item. Assigning
	// replaces the whole set. An item with no assignments contributes nothing
	// to anyone's share and is excluded from the tax base.
	AssignedTo []string `json:"assignedTo"`

	// CreatedAt is the Unix timestamp when the item was created.
	CreatedAt int64 `json:"createdAt"`
}

// AssignmentCount returns the number of participants sharing the item.
func (li *LineItem) AssignmentCount() int {
	return len(li.AssignedTo)
}
