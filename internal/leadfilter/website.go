package leadfilter

import "strings"

// ExcludedWebsite reports whether a lead's website sits on a known
// website-builder or tracking platform. An absent website is not
// excluded; the signal only applies at the final validity gate, never to
// the email or phone checks.
func (f *Filter) ExcludedWebsite(website string) bool {
	if website == "" {
		return false
	}
	lower := strings.ToLower(website)
	for _, domain := range f.cfg.ExcludedWebsites {
		if strings.Contains(lower, strings.ToLower(domain)) {
			return true
		}
	}
	return false
}
