// Package filter narrows species snapshots for presentation. Filtering is
// pure: it never touches the store, never mutates its input and recomputes
// from the full snapshot on every call.
package filter

import (
	"strings"

	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// Criteria is one filter submission. All populated criteria must hold for a
// record to pass. Price bounds arrive as raw form strings; a bound that does
// not parse as a number is ignored rather than rejected.
type Criteria struct {
	SearchTerm  string
	CategoryID  string
	PriceMin    string
	PriceMax    string
	InStockOnly bool
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c.SearchTerm == "" && c.CategoryID == "" &&
		c.PriceMin == "" && c.PriceMax == "" && !c.InStockOnly
}

// Apply returns the records matching every populated criterion, preserving
// snapshot order. The result is always a fresh slice.
func Apply(rows []models.Species, c Criteria) []models.Species {
	out := make([]models.Species, 0, len(rows))

	search := strings.ToLower(strings.TrimSpace(c.SearchTerm))
	priceMin, hasMin := parseBound(c.PriceMin)
	priceMax, hasMax := parseBound(c.PriceMax)

	for _, row := range rows {
		if search != "" && !matchesSearch(row, search) {
			continue
		}
		if c.CategoryID != "" && row.CategoryID.String() != c.CategoryID {
			continue
		}
		if hasMin && row.Price.LessThan(priceMin) {
			continue
		}
		if hasMax && row.Price.GreaterThan(priceMax) {
			continue
		}
		if c.InStockOnly && !row.InStock {
			continue
		}
		out = append(out, row)
	}
	return out
}

// matchesSearch checks the term against name and description.
func matchesSearch(row models.Species, search string) bool {
	return strings.Contains(strings.ToLower(row.Name), search) ||
		strings.Contains(strings.ToLower(row.Description), search)
}

func parseBound(raw string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, false
	}
	bound, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false
	}
	return bound, true
}
