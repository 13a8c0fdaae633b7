package leadfilter

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/veda-group/leadgen-cli/internal/model"
)

// SortKey selects the ordering applied to a lead set before pagination.
type SortKey string

const (
	// SortRecent orders by scrape time, newest first. Leads without a
	// timestamp sort oldest.
	SortRecent SortKey = "recent"
	// SortName orders by business name ascending, locale-aware.
	SortName SortKey = "name"
	// SortReviews orders by review count descending; missing counts as 0.
	SortReviews SortKey = "reviews"
)

// ParseSortKey maps a request parameter onto a SortKey, defaulting to
// SortRecent for anything unrecognized.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortName:
		return SortName
	case SortReviews:
		return SortReviews
	default:
		return SortRecent
	}
}

// Page is one slice of a sorted lead set.
type Page struct {
	Items      []model.Lead     `json:"results"`
	Pagination model.Pagination `json:"pagination"`
}

// Sorted returns a sorted copy of leads; the input is left untouched.
func Sorted(leads []model.Lead, key SortKey) []model.Lead {
	out := make([]model.Lead, len(leads))
	copy(out, leads)

	switch key {
	case SortName:
		c := collate.New(language.BritishEnglish, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].BusinessName, out[j].BusinessName) < 0
		})
	case SortReviews:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ReviewCount > out[j].ReviewCount
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return scrapeUnix(out[i]) > scrapeUnix(out[j])
		})
	}
	return out
}

func scrapeUnix(l model.Lead) int64 {
	if l.ScrapedAt == nil {
		return 0
	}
	return l.ScrapedAt.Unix()
}

// Paginate sorts the full lead set and returns the 1-indexed page of
// size pageSize. An out-of-range page yields empty items, not an error.
func Paginate(leads []model.Lead, page, pageSize int, key SortKey) Page {
	if pageSize < 1 {
		pageSize = 1
	}

	sorted := Sorted(leads, key)
	total := len(sorted)
	pages := (total + pageSize - 1) / pageSize

	skip := (page - 1) * pageSize
	items := []model.Lead{}
	if skip >= 0 && skip < total {
		end := skip + pageSize
		if end > total {
			end = total
		}
		items = sorted[skip:end]
	}

	return Page{
		Items: items,
		Pagination: model.Pagination{
			Total:       total,
			Pages:       pages,
			CurrentPage: page,
			Limit:       pageSize,
		},
	}
}
