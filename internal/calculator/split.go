// Package calculator implements the bill-splitting math: proportional item
// shares, tax apportionment over the taxable base, and the cross-session
// settlement rollup. Everything in this package is pure; persistence and
// transport live elsewhere.
package calculator

import (
	"github.com/shopspring/decimal"
)

// Person identifies one participant for a calculation run.
type Person struct {
	ID   string
	Name string
}

// SplitItem is the calculator's view of a line item.
type SplitItem struct {
	Name       string
	Price      float64
	Taxable    bool
	AssignedTo []string // participant IDs sharing the item
}

// ItemShare is one participant's slice of a line item, for display.
type ItemShare struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	SplitCount int     `json:"splitCount"`
	Share      float64 `json:"share"`
}

// ParticipantTotal is the calculated split for one participant.
type ParticipantTotal struct {
	ParticipantID string      `json:"participantId"`
	Name          string      `json:"name"`
	Subtotal      float64     `json:"subtotal"`
	TaxAmount     float64     `json:"taxAmount"`
	Total         float64     `json:"total"`
	Items         []ItemShare `json:"items"`
}

// Summary describes the whole bill alongside the per-participant breakdown.
// RoundingError is the cents-level gap between the true bill total and the
// sum of rounded participant totals. It is reported, never redistributed.
type Summary struct {
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
	RoundingError float64 `json:"roundingError"`
}

// SplitCalculation is the full output of CalculateSplit.
type SplitCalculation struct {
	Participants []ParticipantTotal `json:"participants"`
	Summary      Summary            `json:"summary"`
}

// SameParticipant is the cross-session participant matching policy: exact,
// case-sensitive name equality. Aggregation and settlement both go through
// this function so the policy can be swapped in one place.
func SameParticipant(a, b string) bool {
	return a == b
}

// Round2 rounds to 2 decimal places, half away from zero. Currency outputs
// are rounded at each aggregation boundary, not just at display time.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// TaxRate returns taxAmount / taxableBase, or zero when the taxable base is
// empty. With no taxable items the session tax is apportioned to nobody:
// every participant gets zero tax while the summary still reports the full
// tax amount, and the gap surfaces in Summary.RoundingError.
func TaxRate(taxAmount, taxableBase decimal.Decimal) decimal.Decimal {
	if taxableBase.IsPositive() {
		return taxAmount.Div(taxableBase)
	}
	return decimal.Zero
}

// CalculateSplit computes each participant's share of the given items plus a
// proportional share of the session tax.
//
// Items with no assignments are excluded entirely: they contribute to no
// participant's subtotal and are left out of the pre-tax total and the
// taxable base. Tax is apportioned across taxable items only, in proportion
// to each participant's taxable subtotal.
func CalculateSplit(participants []Person, items []SplitItem, taxAmount float64) SplitCalculation {
	tax := decimal.NewFromFloat(taxAmount)

	totals := make([]ParticipantTotal, len(participants))
	subtotals := make([]decimal.Decimal, len(participants))
	taxableSubtotals := make([]decimal.Decimal, len(participants))
	index := make(map[string]int, len(participants))
	for i, p := range participants {
		totals[i] = ParticipantTotal{
			ParticipantID: p.ID,
			Name:          p.Name,
			Items:         []ItemShare{},
		}
		index[p.ID] = i
	}

	totalPreTax := decimal.Zero
	taxableBase := decimal.Zero

	for _, item := range items {
		count := len(item.AssignedTo)
		if count == 0 {
			// Unassigned cost is nobody's problem until assigned.
			continue
		}

		price := decimal.NewFromFloat(item.Price)
		share := price.Div(decimal.NewFromInt(int64(count)))

		for _, pid := range item.AssignedTo {
			i, ok := index[pid]
			if !ok {
				continue
			}
			subtotals[i] = subtotals[i].Add(share)
			if item.Taxable {
				taxableSubtotals[i] = taxableSubtotals[i].Add(share)
			}
			totals[i].Items = append(totals[i].Items, ItemShare{
				Name:       item.Name,
				Price:      item.Price,
				SplitCount: count,
				Share:      share.InexactFloat64(),
			})
		}

		totalPreTax = totalPreTax.Add(price)
		if item.Taxable {
			taxableBase = taxableBase.Add(price)
		}
	}

	rate := TaxRate(tax, taxableBase)

	sumOfTotals := decimal.Zero
	for i := range totals {
		participantTax := Round2(taxableSubtotals[i].Mul(rate))
		participantTotal := Round2(subtotals[i].Add(participantTax))
		sumOfTotals = sumOfTotals.Add(participantTotal)

		totals[i].TaxAmount = participantTax.InexactFloat64()
		totals[i].Total = participantTotal.InexactFloat64()
		totals[i].Subtotal = Round2(subtotals[i]).InexactFloat64()
	}

	actualTotal := totalPreTax.Add(tax)

	return SplitCalculation{
		Participants: totals,
		Summary: Summary{
			Subtotal:      Round2(totalPreTax).InexactFloat64(),
			Tax:           taxAmount,
			Total:         Round2(actualTotal).InexactFloat64(),
			RoundingError: Round2(actualTotal.Sub(sumOfTotals)).InexactFloat64(),
		},
	}
}

// ParticipantShare computes the rounded total one participant owes for a set
// of items plus their slice of the session tax. It derives the tax rate from
// the full item set with the same TaxRate formula as CalculateSplit, so the
// settle path and the calculator can never disagree.
func ParticipantShare(items []SplitItem, participantID string, taxAmount float64) float64 {
	subtotal := decimal.Zero
	taxableSubtotal := decimal.Zero
	taxableBase := decimal.Zero

	for _, item := range items {
		count := len(item.AssignedTo)
		if count == 0 {
			continue
		}
		price := decimal.NewFromFloat(item.Price)
		if item.Taxable {
			taxableBase = taxableBase.Add(price)
		}

		assigned := false
		for _, pid := range item.AssignedTo {
			if pid == participantID {
				assigned = true
				break
			}
		}
		if !assigned {
			continue
		}

		share := price.Div(decimal.NewFromInt(int64(count)))
		subtotal = subtotal.Add(share)
		if item.Taxable {
			taxableSubtotal = taxableSubtotal.Add(share)
		}
	}

	rate := TaxRate(decimal.NewFromFloat(taxAmount), taxableBase)
	// Round the tax slice before the total, matching CalculateSplit's
	// aggregation boundaries cent for cent.
	participantTax := Round2(taxableSubtotal.Mul(rate))
	return Round2(subtotal.Add(participantTax)).InexactFloat64()
}
