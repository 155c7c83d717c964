package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Warehouse receipt header/footer noise that never describes an item.
var skipKeywords = []string{
	"costco",
	"wholesale",
	"member",
	"card",
	"thank you",
	"receipt",
	"cashier",
	"register",
	"date",
	"time",
	"warehouse",
}

var (
	// A price at the end of the line, tolerating OCR gaps like "12. 99".
	priceAtEOL = regexp.MustCompile(`(\d+[.\s]*\d{2})\s*$`)
	amount     = regexp.MustCompile(`(\d+\.\d{2})`)
	qtyPrefix  = regexp.MustCompile(`^(\d+)\s*[xX*]?\s+(.+)`)
	spaceRuns  = regexp.MustCompile(`\s{2,}`)
	digitsOnly = regexp.MustCompile(`^\d+$`)
	missingDot = regexp.MustCompile(`^(\d+)(\d{2})$`)
)

// ParseText applies line heuristics for warehouse-style receipt text: a price
// at the end of a line marks an item, dedicated lines carry subtotal, tax and
// total, and a leading number is a quantity. Missing totals are derived from
// the items found.
func ParseText(text string) *ParseResult {
	result := &ParseResult{}

	for _, rawLine := range strings.Split(text, "\n") {
		rawLine = strings.TrimSpace(rawLine)
		if rawLine == "" {
			continue
		}
		line := strings.ToLower(rawLine)

		if containsAny(line, skipKeywords) {
			continue
		}

		if strings.Contains(line, "subtotal") {
			if m := amount.FindString(line); m != "" {
				result.Subtotal, _ = strconv.ParseFloat(m, 64)
			}
			continue
		}
		if strings.Contains(line, "tax") && !strings.Contains(line, "taxable") {
			if m := amount.FindString(line); m != "" {
				result.Tax, _ = strconv.ParseFloat(m, 64)
			}
			continue
		}
		if strings.Contains(line, "total") {
			if m := amount.FindString(line); m != "" {
				result.Total, _ = strconv.ParseFloat(m, 64)
			}
			continue
		}

		if item, ok := parseItemLine(rawLine); ok {
			result.Items = append(result.Items, item)
		}
	}

	if result.Subtotal == 0 {
		for _, item := range result.Items {
			result.Subtotal += item.Price
		}
	}
	if result.Total == 0 {
		result.Total = result.Subtotal + result.Tax
	}

	result.Subtotal = round2(result.Subtotal)
	result.Tax = round2(result.Tax)
	result.Total = round2(result.Total)
	return result
}

func parseItemLine(line string) (ParsedItem, bool) {
	priceMatch := priceAtEOL.FindStringSubmatch(line)
	if priceMatch == nil {
		return ParsedItem{}, false
	}

	priceStr := strings.ReplaceAll(priceMatch[1], " ", "")
	priceStr = missingDot.ReplaceAllString(priceStr, "$1.$2")
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || price < 0.01 || price > 9999.99 {
		return ParsedItem{}, false
	}

	name := strings.TrimSpace(line[:strings.LastIndex(line, priceMatch[1])])
	quantity := 1
	if m := qtyPrefix.FindStringSubmatch(name); m != nil {
		quantity, _ = strconv.Atoi(m[1])
		name = strings.TrimSpace(m[2])
	}

	name = spaceRuns.ReplaceAllString(name, " ")
	name = strings.ReplaceAll(name, "|", "I")
	name = strings.TrimSpace(name)
	if len(name) <= 2 || digitsOnly.MatchString(name) {
		return ParsedItem{}, false
	}

	return ParsedItem{
		Name:     name,
		Quantity: quantity,
		Price:    price,
		Taxable:  true, // Assume taxable by default
	}, true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
