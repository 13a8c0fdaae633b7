package leadfilter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/veda-group/leadgen-cli/internal/model"
)

// hashLocalPart matches synthetic tracking addresses whose local part is
// an opaque hash: 32 hex chars, 24 hex chars, or a canonical UUID
// immediately preceding the @.
var hashLocalPart = regexp.MustCompile(`^(?:[0-9a-f]{32}|[0-9a-f]{24}|[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})@`)

// Filter applies the lead-validity rules. Construct once with New and
// share freely; all methods are read-only.
type Filter struct {
	cfg  Config
	tlds []string // cfg.TLDs sorted longest-first
}

// New builds a Filter from cfg. Empty list fields fall back to the
// defaults so a partially-populated config stays usable.
func New(cfg Config) *Filter {
	def := DefaultConfig()
	if cfg.MinPhoneDigits <= 0 {
		cfg.MinPhoneDigits = def.MinPhoneDigits
	}
	if len(cfg.TrackingDomains) == 0 {
		cfg.TrackingDomains = def.TrackingDomains
	}
	if len(cfg.ExcludedWebsites) == 0 {
		cfg.ExcludedWebsites = def.ExcludedWebsites
	}
	if len(cfg.TLDs) == 0 {
		cfg.TLDs = def.TLDs
	}

	// Longest-first so compound TLDs like .co.uk win over .uk.
	tlds := make([]string, len(cfg.TLDs))
	copy(tlds, cfg.TLDs)
	sort.SliceStable(tlds, func(i, j int) bool {
		return len(tlds[i]) > len(tlds[j])
	})

	return &Filter{cfg: cfg, tlds: tlds}
}

// ValidEmail reports whether a single email candidate is usable.
func (f *Filter) ValidEmail(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" || strings.EqualFold(trimmed, "N/A") {
		return false
	}

	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return false
	}

	lower := strings.ToLower(email)
	for _, domain := range f.cfg.TrackingDomains {
		if strings.Contains(lower, strings.ToLower(domain)) {
			return false
		}
	}

	return !hashLocalPart.MatchString(lower)
}

// CleanEmail truncates garbage appended after a recognized TLD, e.g.
// "name@example.comContactUs" becomes "name@example.com". Unrecognized
// domains pass through unchanged.
func (f *Filter) CleanEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	local, domain := parts[0], parts[1]
	lowerDomain := strings.ToLower(domain)

	for _, tld := range f.tlds {
		idx := strings.Index(lowerDomain, strings.ToLower(tld))
		if idx > 0 {
			return local + "@" + domain[:idx+len(tld)]
		}
	}
	return email
}

// HasValidEmail reports whether a lead carries at least one usable email
// after cleanup. A list-valued email field is valid if any element
// passes; invalid elements are dropped, not the whole record.
func (f *Filter) HasValidEmail(lead model.Lead) bool {
	return len(f.ValidEmails(lead)) > 0
}

// ValidEmails returns the cleaned, usable email candidates of a lead in
// their original order.
func (f *Filter) ValidEmails(lead model.Lead) []string {
	var out []string
	for _, e := range lead.Email {
		cleaned := f.CleanEmail(e)
		if f.ValidEmail(cleaned) {
			out = append(out, cleaned)
		}
	}
	return out
}
