package calculator

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name         string
		participants []Person
		items        []SplitItem
		taxAmount    float64
		validateFunc func(t *testing.T, calc SplitCalculation)
	}{
		{
			name: "two-way taxable item with tax",
			participants: []Person{
				{ID: "p1", Name: "Alice"},
				{ID: "p2", Name: "Bob"},
			},
			items: []SplitItem{
				{Name: "Rotisserie Chicken", Price: 9.98, Taxable: true, AssignedTo: []string{"p1", "p2"}},
			},
			taxAmount: 1.00,
			validateFunc: func(t *testing.T, calc SplitCalculation) {
				// taxRate = 1.00/9.98; each: subtotal 4.99, tax 0.50, total 5.49
				for _, pt := range calc.Participants {
					if !almostEqual(pt.Subtotal, 4.99) {
						t.Errorf("%s subtotal = %v, want 4.99", pt.Name, pt.Subtotal)
					}
					if !almostEqual(pt.TaxAmount, 0.50) {
						t.Errorf("%s tax = %v, want 0.50", pt.Name, pt.TaxAmount)
					}
					if !almostEqual(pt.Total, 5.49) {
						t.Errorf("%s total = %v, want 5.49", pt.Name, pt.Total)
					}
				}
				if calc.Summary.Total != 10.98 {
					t.Errorf("summary total = %v, want 10.98", calc.Summary.Total)
				}
				if calc.Summary.RoundingError != 0 {
					t.Errorf("rounding error = %v, want 0", calc.Summary.RoundingError)
				}
			},
		},
		{
			name:         "mixed taxable items, single participant",
			participants: []Person{{ID: "p1", Name: "Alice"}},
			items: []SplitItem{
				{Name: "Bananas", Price: 8.99, Taxable: false, AssignedTo: []string{"p1"}},
				{Name: "Vacuum Bags", Price: 24.99, Taxable: true, AssignedTo: []string{"p1"}},
				{Name: "Shampoo", Price: 18.99, Taxable: true, AssignedTo: []string{"p1"}},
			},
			taxAmount: 3.00,
			validateFunc: func(t *testing.T, calc SplitCalculation) {
				// subtotal 52.97; taxable base 43.98; full tax lands on Alice
				alice := calc.Participants[0]
				if !almostEqual(alice.Subtotal, 52.97) {
					t.Errorf("subtotal = %v, want 52.97", alice.Subtotal)
				}
				if !almostEqual(alice.TaxAmount, 3.00) {
					t.Errorf("tax = %v, want 3.00", alice.TaxAmount)
				}
				if !almostEqual(alice.Total, 55.97) {
					t.Errorf("total = %v, want 55.97", alice.Total)
				}
				if len(alice.Items) != 3 {
					t.Errorf("items count = %d, want 3", len(alice.Items))
				}
			},
		},
		{
			name: "unassigned item excluded from every sum",
			participants: []Person{
				{ID: "p1", Name: "Alice"},
				{ID: "p2", Name: "Bob"},
			},
			items: []SplitItem{
				{Name: "Shared Pizza", Price: 20.00, Taxable: false, AssignedTo: []string{"p1", "p2"}},
				{Name: "Orphan TV", Price: 24.99, Taxable: true, AssignedTo: nil},
			},
			taxAmount: 5.00,
			validateFunc: func(t *testing.T, calc SplitCalculation) {
				if calc.Summary.Subtotal != 20.00 {
					t.Errorf("summary subtotal = %v, want 20.00 (orphan excluded)", calc.Summary.Subtotal)
				}
				// The orphan item was the only taxable one, so the taxable
				// base is empty and nobody pays tax.
				for _, pt := range calc.Participants {
					if pt.TaxAmount != 0 {
						t.Errorf("%s tax = %v, want 0", pt.Name, pt.TaxAmount)
					}
					if !almostEqual(pt.Total, 10.00) {
						t.Errorf("%s total = %v, want 10.00", pt.Name, pt.Total)
					}
				}
			},
		},
		{
			name: "zero taxable base drops tax into rounding error",
			participants: []Person{
				{ID: "p1", Name: "Alice"},
				{ID: "p2", Name: "Bob"},
			},
			items: []SplitItem{
				{Name: "Groceries", Price: 10.00, Taxable: false, AssignedTo: []string{"p1", "p2"}},
			},
			taxAmount: 2.00,
			validateFunc: func(t *testing.T, calc SplitCalculation) {
				if calc.Summary.Tax != 2.00 {
					t.Errorf("summary tax = %v, want 2.00 (passed through)", calc.Summary.Tax)
				}
				if calc.Summary.Total != 12.00 {
					t.Errorf("summary total = %v, want 12.00", calc.Summary.Total)
				}
				// Tax cannot be apportioned without a taxable base, so the
				// whole 2.00 shows up as the reported residual.
				if calc.Summary.RoundingError != 2.00 {
					t.Errorf("rounding error = %v, want 2.00", calc.Summary.RoundingError)
				}
			},
		},
		{
			name:         "no items yields zero everywhere",
			participants: []Person{{ID: "p1", Name: "Alice"}},
			items:        nil,
			taxAmount:    0,
			validateFunc: func(t *testing.T, calc SplitCalculation) {
				if calc.Summary.Subtotal != 0 || calc.Summary.Total != 0 || calc.Summary.RoundingError != 0 {
					t.Errorf("summary = %+v, want all zero", calc.Summary)
				}
				if calc.Participants[0].Total != 0 {
					t.Errorf("total = %v, want 0", calc.Participants[0].Total)
				}
			},
		},
		{
			name:         "no participants yields empty result",
			participants: nil,
			items: []SplitItem{
				{Name: "Pizza", Price: 20.00, Taxable: true, AssignedTo: []string{"ghost"}},
			},
			taxAmount: 1.00,
			validateFunc: func(t *testing.T, calc SplitCalculation) {
				if len(calc.Participants) != 0 {
					t.Errorf("participants = %d, want 0", len(calc.Participants))
				}
				// Items assigned to unknown IDs still count toward the bill.
				if calc.Summary.Subtotal != 20.00 {
					t.Errorf("summary subtotal = %v, want 20.00", calc.Summary.Subtotal)
				}
			},
		},
		{
			name: "three-way split with uneven cents",
			participants: []Person{
				{ID: "p1", Name: "Alice"},
				{ID: "p2", Name: "Bob"},
				{ID: "p3", Name: "Cleo"},
			},
			items: []SplitItem{
				{Name: "Sushi Platter", Price: 10.00, Taxable: true, AssignedTo: []string{"p1", "p2", "p3"}},
			},
			taxAmount: 1.00,
			validateFunc: func(t *testing.T, calc SplitCalculation) {
				// Each share 3.333..., tax 0.333... rounds to 0.33, so each
				// total rounds to 3.66; 3 x 3.66 = 10.98 vs actual 11.00.
				sum := 0.0
				for _, pt := range calc.Participants {
					if !almostEqual(pt.Total, 3.66) {
						t.Errorf("%s total = %v, want 3.66", pt.Name, pt.Total)
					}
					sum += pt.Total
				}
				if !almostEqual(calc.Summary.RoundingError, calc.Summary.Total-sum) {
					t.Errorf("rounding error = %v, want %v", calc.Summary.RoundingError, calc.Summary.Total-sum)
				}
				if !almostEqual(calc.Summary.RoundingError, 0.02) {
					t.Errorf("rounding error = %v, want 0.02", calc.Summary.RoundingError)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := CalculateSplit(tt.participants, tt.items, tt.taxAmount)
			tt.validateFunc(t, calc)
		})
	}
}

func TestCalculateSplitItemShares(t *testing.T) {
	calc := CalculateSplit(
		[]Person{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob"}},
		[]SplitItem{
			{Name: "Pizza", Price: 21.00, Taxable: false, AssignedTo: []string{"p1", "p2"}},
			{Name: "Beer", Price: 7.50, Taxable: true, AssignedTo: []string{"p2"}},
		},
		0,
	)

	alice, bob := calc.Participants[0], calc.Participants[1]
	if len(alice.Items) != 1 || len(bob.Items) != 2 {
		t.Fatalf("item lists = %d/%d, want 1/2", len(alice.Items), len(bob.Items))
	}
	if alice.Items[0].SplitCount != 2 || !almostEqual(alice.Items[0].Share, 10.50) {
		t.Errorf("Alice pizza share = %+v, want splitCount 2, share 10.50", alice.Items[0])
	}
	if bob.Items[1].SplitCount != 1 || !almostEqual(bob.Items[1].Share, 7.50) {
		t.Errorf("Bob beer share = %+v, want splitCount 1, share 7.50", bob.Items[1])
	}
}

func TestParticipantShareMatchesCalculator(t *testing.T) {
	participants := []Person{
		{ID: "p1", Name: "Alice"},
		{ID: "p2", Name: "Bob"},
		{ID: "p3", Name: "Cleo"},
	}
	items := []SplitItem{
		{Name: "Eggs", Price: 9.98, Taxable: true, AssignedTo: []string{"p1", "p2"}},
		{Name: "Paper Towels", Price: 24.99, Taxable: true, AssignedTo: []string{"p1", "p2", "p3"}},
		{Name: "Bananas", Price: 2.49, Taxable: false, AssignedTo: []string{"p3"}},
		{Name: "Orphan", Price: 99.99, Taxable: true, AssignedTo: nil},
	}

	calc := CalculateSplit(participants, items, 3.50)
	for _, pt := range calc.Participants {
		got := ParticipantShare(items, pt.ParticipantID, 3.50)
		if got != pt.Total {
			t.Errorf("ParticipantShare(%s) = %v, calculator total = %v", pt.Name, got, pt.Total)
		}
	}
}

func TestTaxRateZeroBase(t *testing.T) {
	rate := TaxRate(dec(5.00), dec(0))
	if !rate.IsZero() {
		t.Errorf("TaxRate with zero base = %v, want 0", rate)
	}
}
