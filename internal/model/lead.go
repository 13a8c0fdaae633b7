package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Lead is a scraped business record, the unit of data that gets
// validated, filtered, and exported. Documents arrive from the store in
// whatever shape the scraper wrote them (email as string or array, phone
// as string or number); decoding coerces everything into this canonical
// form once, at the store boundary. Nothing downstream mutates a Lead.
type Lead struct {
	ID             string     `json:"_id"`
	BusinessName   string     `json:"businessname"`
	Phone          string     `json:"phonenumber,omitempty"`
	Address        string     `json:"address,omitempty"`
	Website        string     `json:"website,omitempty"`
	Category       string     `json:"subsector,omitempty"`
	Rating         string     `json:"stars,omitempty"`
	ReviewCount    int        `json:"numberofreviews,omitempty"`
	Email          []string   `json:"email,omitempty"`
	ScrapedAt      *time.Time `json:"scraped_at,omitempty"`
	EmailScrapedAt *time.Time `json:"emailscraped_at,omitempty"`
	EmailStatus    string     `json:"emailstatus,omitempty"`
}

// DisplayName returns the business name, or a placeholder when the
// scraper left it blank.
func (l Lead) DisplayName() string {
	if strings.TrimSpace(l.BusinessName) == "" {
		return "Unnamed Business"
	}
	return l.BusinessName
}

// rawLead mirrors Lead with loosely-typed fields for document decoding.
type rawLead struct {
	ID             string          `json:"_id"`
	BusinessName   string          `json:"businessname"`
	Phone          json.RawMessage `json:"phonenumber"`
	Address        string          `json:"address"`
	Website        string          `json:"website"`
	Category       string          `json:"subsector"`
	Rating         json.RawMessage `json:"stars"`
	ReviewCount    json.RawMessage `json:"numberofreviews"`
	Email          json.RawMessage `json:"email"`
	ScrapedAt      *time.Time      `json:"scraped_at"`
	EmailScrapedAt *time.Time      `json:"emailscraped_at"`
	EmailStatus    string          `json:"emailstatus"`
}

// DecodeLead parses a raw store document into a Lead, coercing the
// fields the scraper stores inconsistently: phone numbers written as
// JSON numbers become digit strings, single email strings become
// one-element lists, and numeric star ratings become strings.
func DecodeLead(doc []byte) (Lead, error) {
	var raw rawLead
	if err := json.Unmarshal(doc, &raw); err != nil {
		return Lead{}, eris.Wrap(err, "model: decode lead document")
	}

	lead := Lead{
		ID:             raw.ID,
		BusinessName:   raw.BusinessName,
		Phone:          coerceScalar(raw.Phone),
		Address:        raw.Address,
		Website:        raw.Website,
		Category:       raw.Category,
		Rating:         coerceScalar(raw.Rating),
		Email:          coerceStringList(raw.Email),
		ScrapedAt:      raw.ScrapedAt,
		EmailScrapedAt: raw.EmailScrapedAt,
		EmailStatus:    raw.EmailStatus,
	}

	if len(raw.ReviewCount) > 0 {
		var n float64
		if err := json.Unmarshal(raw.ReviewCount, &n); err == nil {
			lead.ReviewCount = int(n)
		} else {
			// Review counts occasionally arrive as quoted numbers.
			var s string
			if err := json.Unmarshal(raw.ReviewCount, &s); err == nil {
				if parsed, perr := strconv.Atoi(strings.TrimSpace(s)); perr == nil {
					lead.ReviewCount = parsed
				}
			}
		}
	}

	return lead, nil
}

// coerceScalar renders a JSON string or number as a plain string.
// Integral floats drop the trailing ".0" so phone numbers stored as
// JSON numbers round-trip as digit strings.
func coerceScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// coerceStringList renders a JSON string, or array of strings, as a
// string slice. Non-string array elements are skipped.
func coerceStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		var v string
		if err := json.Unmarshal(e, &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}
