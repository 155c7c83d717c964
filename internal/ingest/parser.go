// Package ingest turns receipt images and raw receipt text into line items.
package ingest

import "context"

// ParsedItem is one line item extracted from a receipt.
type ParsedItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Taxable  bool    `json:"taxable"`
}

// ParseResult is the outcome of parsing one receipt. A failed parse yields
// the zero value so users can fall back to manual entry.
type ParseResult struct {
	Items    []ParsedItem `json:"items"`
	Subtotal float64      `json:"subtotal"`
	Tax      float64      `json:"tax"`
	Total    float64      `json:"total"`
}

// Empty reports whether nothing usable was extracted.
func (r *ParseResult) Empty() bool {
	return len(r.Items) == 0 && r.Subtotal == 0 && r.Tax == 0 && r.Total == 0
}

// Parser extracts line items from a receipt image.
type Parser interface {
	Parse(ctx context.Context, image []byte, mimeType string) (*ParseResult, error)
}
