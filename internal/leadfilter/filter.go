package leadfilter

import "github.com/veda-group/leadgen-cli/internal/model"

// Valid reports whether a single lead passes all three gates: a usable
// email, a usable phone number, and a website off the builder denylist.
func (f *Filter) Valid(lead model.Lead) bool {
	return f.HasValidEmail(lead) && f.ValidPhone(lead.Phone) && !f.ExcludedWebsite(lead.Website)
}

// ValidLeads returns the subset of leads passing Valid, preserving the
// input order. The input slice is never modified.
func (f *Filter) ValidLeads(leads []model.Lead) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	for _, lead := range leads {
		if f.Valid(lead) {
			out = append(out, lead)
		}
	}
	return out
}
