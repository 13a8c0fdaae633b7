package leadfilter

import (
	"strconv"
	"strings"

	"github.com/veda-group/leadgen-cli/internal/model"
)

// Match reports whether a lead matches a free-text search query. An
// empty query matches everything. A non-empty query matches on any of:
// business name, exact numeric phone, digit-substring phone, email (any
// candidate), category, or address — all case-insensitive substring
// checks except the numeric phone comparison. The validity gate is a
// separate AND applied by the caller, never folded into this OR.
func (f *Filter) Match(lead model.Lead, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	lower := strings.ToLower(q)

	if strings.Contains(strings.ToLower(lead.BusinessName), lower) {
		return true
	}

	// Exact match when the query parses fully as a number and the phone
	// coerces to the same number.
	if qn, err := strconv.ParseFloat(q, 64); err == nil {
		if pn, perr := strconv.ParseFloat(strings.TrimSpace(lead.Phone), 64); perr == nil && pn == qn {
			return true
		}
	}

	// Digit-substring match handles formatted numbers: query "0113"
	// finds phone "+44 113 555 1234". A leading trunk zero is also
	// tried without the zero, since international storage drops it.
	if digits := Digits(q); digits != "" {
		phoneDigits := Digits(lead.Phone)
		if strings.Contains(phoneDigits, digits) {
			return true
		}
		if trimmed := strings.TrimLeft(digits, "0"); trimmed != "" && trimmed != digits &&
			strings.Contains(phoneDigits, trimmed) {
			return true
		}
	}

	for _, email := range lead.Email {
		if strings.Contains(strings.ToLower(email), lower) {
			return true
		}
	}

	return strings.Contains(strings.ToLower(lead.Category), lower) ||
		strings.Contains(strings.ToLower(lead.Address), lower)
}

// Search returns the leads matching query, preserving input order.
func (f *Filter) Search(leads []model.Lead, query string) []model.Lead {
	if strings.TrimSpace(query) == "" {
		return leads
	}
	out := make([]model.Lead, 0, len(leads))
	for _, lead := range leads {
		if f.Match(lead, query) {
			out = append(out, lead)
		}
	}
	return out
}

// EscapeLike escapes %, _ and \ so free text can be embedded in a SQL
// LIKE pattern. Escaping up front means pattern construction can never
// fail; queries with special characters degrade to literal substring
// search.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
