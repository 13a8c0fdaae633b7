package leadfilter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veda-group/leadgen-cli/internal/model"
)

func named(names ...string) []model.Lead {
	leads := make([]model.Lead, len(names))
	for i, n := range names {
		leads[i] = model.Lead{BusinessName: n}
	}
	return leads
}

func TestPaginate_NameSort(t *testing.T) {
	t.Parallel()

	leads := named("Charlie", "Alpha", "Bravo", "Delta")

	page := Paginate(leads, 2, 2, SortName)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Bravo", page.Items[0].BusinessName)
	assert.Equal(t, "Charlie", page.Items[1].BusinessName)
	assert.Equal(t, 4, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Pages)
	assert.Equal(t, 2, page.Pagination.CurrentPage)
}

func TestPaginate_RecentSort(t *testing.T) {
	t.Parallel()

	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	leads := []model.Lead{
		{BusinessName: "old", ScrapedAt: &t1},
		{BusinessName: "missing"}, // nil timestamp sorts oldest
		{BusinessName: "new", ScrapedAt: &t2},
	}

	page := Paginate(leads, 1, 10, SortRecent)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "new", page.Items[0].BusinessName)
	assert.Equal(t, "old", page.Items[1].BusinessName)
	assert.Equal(t, "missing", page.Items[2].BusinessName)
}

func TestPaginate_ReviewsSort(t *testing.T) {
	t.Parallel()

	leads := []model.Lead{
		{BusinessName: "few", ReviewCount: 3},
		{BusinessName: "none"},
		{BusinessName: "many", ReviewCount: 250},
	}

	page := Paginate(leads, 1, 10, SortReviews)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "many", page.Items[0].BusinessName)
	assert.Equal(t, "few", page.Items[1].BusinessName)
	assert.Equal(t, "none", page.Items[2].BusinessName)
}

func TestPaginate_OutOfRangePage(t *testing.T) {
	t.Parallel()

	leads := named("a", "b", "c")

	page := Paginate(leads, 5, 2, SortName)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Pages)
	assert.Equal(t, 5, page.Pagination.CurrentPage)

	page = Paginate(leads, 0, 2, SortName)
	assert.Empty(t, page.Items)

	page = Paginate(nil, 1, 2, SortName)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Pagination.Pages)
}

func TestPaginate_DoesNotReorderInput(t *testing.T) {
	t.Parallel()

	leads := named("z", "a", "m")
	_ = Paginate(leads, 1, 10, SortName)
	assert.Equal(t, named("z", "a", "m"), leads)
}

func TestParseSortKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SortName, ParseSortKey("name"))
	assert.Equal(t, SortReviews, ParseSortKey(" Reviews "))
	assert.Equal(t, SortRecent, ParseSortKey("recent"))
	assert.Equal(t, SortRecent, ParseSortKey(""))
	assert.Equal(t, SortRecent, ParseSortKey("bogus"))
}
