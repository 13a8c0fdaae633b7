package leadfilter

import "strings"

// Digits strips every non-digit character from s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ValidPhone reports whether the candidate carries at least the
// configured number of digits. Formatting and country prefixes are
// ignored; this is a length heuristic only.
func (f *Filter) ValidPhone(phone string) bool {
	return len(Digits(phone)) >= f.cfg.MinPhoneDigits
}
