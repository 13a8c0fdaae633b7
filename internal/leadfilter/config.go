// Package leadfilter decides which scraped leads are usable: email and
// phone validation, website-builder exclusion, free-text matching, and
// pagination of the valid subset. Every consumer (CLI, HTTP API, export)
// goes through this one implementation so listed and exported results
// can never drift apart.
package leadfilter

// Config holds the filtering heuristics. The thresholds and denylists
// were tuned empirically on UK restaurant data, so they are carried as
// configuration rather than constants.
type Config struct {
	// MinPhoneDigits is the minimum digit count for a usable phone
	// number. A pure length heuristic: no country-code normalization,
	// so short-format numbers are rejected and some malformed long
	// strings are admitted.
	MinPhoneDigits int `yaml:"min_phone_digits" mapstructure:"min_phone_digits"`

	// TrackingDomains are substring fragments of error-reporting and
	// analytics vendors whose addresses show up in scraped page source.
	TrackingDomains []string `yaml:"tracking_domains" mapstructure:"tracking_domains"`

	// ExcludedWebsites are website-builder platforms. A lead whose
	// website sits on one of these is a placeholder site, not the
	// business's own.
	ExcludedWebsites []string `yaml:"excluded_websites" mapstructure:"excluded_websites"`

	// TLDs are the recognized top-level domains used to truncate
	// garbage appended after a scraped email address. Compound forms
	// must be present so ".co.uk" wins over ".uk".
	TLDs []string `yaml:"tlds" mapstructure:"tlds"`
}

// DefaultConfig returns the filtering defaults.
func DefaultConfig() Config {
	return Config{
		MinPhoneDigits: 10,
		TrackingDomains: []string{
			"sentry",
			"wixpress",
			"o2.mouseflow.com",
			"fullstory.com",
			"loggly.com",
			"rollbar.com",
			"bugsnag.com",
			"airbrake.io",
		},
		ExcludedWebsites: []string{
			"wix.com",
			"sentry.com",
			"squarespace.com",
			"weebly.com",
			"wordpress.com",
			"shopify.com",
			"godaddy.com",
			"webflow.com",
			"jimdo.com",
			"strikingly.com",
		},
		TLDs: defaultTLDs(),
	}
}

// defaultTLDs lists the recognized TLDs, compound country forms first.
func defaultTLDs() []string {
	return []string{
		// Compound TLDs.
		".co.uk", ".ac.uk", ".gov.uk", ".org.uk", ".me.uk", ".net.uk",
		".sch.uk", ".nhs.uk", ".police.uk", ".mod.uk",
		".co.nz", ".org.nz", ".net.nz", ".govt.nz",
		".co.za", ".org.za",
		".co.in", ".org.in", ".net.in", ".gov.in", ".ac.in",
		".com.au", ".net.au", ".org.au", ".gov.au", ".edu.au",
		// Simple TLDs.
		".com", ".org", ".net", ".edu", ".gov", ".co", ".us", ".uk",
		".de", ".ca", ".au", ".fr", ".in", ".jp", ".cn", ".io",
		".info", ".biz", ".me", ".tv", ".ru", ".br", ".it", ".nl",
		".es", ".ch", ".se", ".no", ".fi", ".dk", ".be", ".nz",
		".mx", ".za", ".pl", ".tr", ".gr", ".kr", ".hk", ".sg",
		".tw", ".ae", ".sa", ".ir", ".pt", ".cz", ".ar", ".cl",
		".id", ".vn",
	}
}
