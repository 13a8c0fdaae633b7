// Package export serializes valid-lead subsets for download. The CSV
// column set and order are fixed; downstream spreadsheet consumers
// depend on them.
package export

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/veda-group/leadgen-cli/internal/model"
)

// Columns is the fixed export header, shared by the CSV and XLSX writers.
var Columns = []string{
	"Business Name",
	"Email",
	"Phone Number",
	"Address",
	"Website",
	"Rating",
	"Number of Reviews",
	"Category",
}

// CSV renders leads as CSV text: the header row plus one row per lead,
// joined with \n and no trailing newline or BOM. Export trusts the
// validity filter already applied upstream; no re-validation happens
// here.
func CSV(leads []model.Lead) string {
	lines := make([]string, 0, len(leads)+1)
	lines = append(lines, strings.Join(Columns, ","))
	for _, lead := range leads {
		lines = append(lines, csvRow(lead))
	}
	return strings.Join(lines, "\n")
}

func csvRow(lead model.Lead) string {
	fields := Row(lead)
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = escapeField(f)
	}
	return strings.Join(escaped, ",")
}

// Row maps a lead onto the Columns order. Missing scalars render as
// empty strings, never "N/A" or "null"; a zero review count also
// renders empty.
func Row(lead model.Lead) []string {
	reviews := ""
	if lead.ReviewCount != 0 {
		reviews = strconv.Itoa(lead.ReviewCount)
	}
	return []string{
		lead.BusinessName,
		JoinEmails(lead.Email),
		lead.Phone,
		lead.Address,
		lead.Website,
		lead.Rating,
		reviews,
		lead.Category,
	}
}

// JoinEmails renders a multi-valued email field as a "; "-joined list,
// dropping empty and N/A placeholders.
func JoinEmails(emails []string) string {
	kept := make([]string, 0, len(emails))
	for _, e := range emails {
		if e == "" || strings.EqualFold(e, "N/A") {
			continue
		}
		kept = append(kept, e)
	}
	return strings.Join(kept, "; ")
}

// escapeField applies minimal RFC 4180 quoting: a field is wrapped in
// double quotes, with inner quotes doubled, iff it contains a comma,
// quote, or newline.
func escapeField(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

// Filename builds the download filename for an export scoped to one
// database and collection, e.g. "Leeds-restaurants-export-2026-08-29.csv".
func Filename(db, collection string, now time.Time) string {
	return fmt.Sprintf("%s-%s-export-%s.csv", db, collection, now.Format("2006-01-02"))
}

// WriteCSV writes the CSV rendering of leads to path.
func WriteCSV(leads []model.Lead, path string) error {
	if err := os.WriteFile(path, []byte(CSV(leads)), 0o644); err != nil {
		return eris.Wrapf(err, "export: write csv %s", path)
	}
	return nil
}
