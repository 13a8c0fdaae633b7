package cities

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veda-group/leadgen-cli/internal/model"
	"github.com/veda-group/leadgen-cli/internal/store"
)

// fakeStore implements store.Store with canned city results and a call
// counter to observe cache behaviour.
type fakeStore struct {
	store.Store
	cities []model.City
	err    error
	calls  int
}

func (f *fakeStore) SearchCities(ctx context.Context, query string, limit int) ([]model.City, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cities, nil
}

func TestSearchShortQueryReturnsEmpty(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{cities: []model.City{{PostcodeArea: "LS"}}}
	svc := NewService(fs, Options{MinQueryLen: 2})
	defer svc.Close()

	cities, err := svc.Search(context.Background(), "l")
	require.NoError(t, err)
	assert.Empty(t, cities)
	assert.Zero(t, fs.calls, "store should not be hit for short queries")
}

func TestSearchCachesPerQuery(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{cities: []model.City{{PostcodeArea: "LS", AreaCovered: "Leeds"}}}
	svc := NewService(fs, Options{CacheTTL: time.Minute})
	defer svc.Close()

	for range 3 {
		cities, err := svc.Search(context.Background(), "  Leeds  ")
		require.NoError(t, err)
		require.Len(t, cities, 1)
	}
	assert.Equal(t, 1, fs.calls, "repeat queries should come from cache")

	_, err := svc.Search(context.Background(), "york")
	require.NoError(t, err)
	assert.Equal(t, 2, fs.calls)
}

func TestSearchStoreError(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{err: eris.New("connection refused")}
	svc := NewService(fs, Options{})
	defer svc.Close()

	_, err := svc.Search(context.Background(), "leeds")
	require.Error(t, err)

	// Failures are not cached.
	fs.err = nil
	fs.cities = []model.City{{PostcodeArea: "LS"}}
	cities, err := svc.Search(context.Background(), "leeds")
	require.NoError(t, err)
	assert.Len(t, cities, 1)
}

func TestTTLCacheExpiry(t *testing.T) {
	t.Parallel()

	c := newTTLCache(4, 20*time.Millisecond, 0)
	defer c.close()

	c.put("leeds", []model.City{{PostcodeArea: "LS"}})
	_, ok := c.get("leeds")
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.get("leeds")
	assert.False(t, ok, "entry should expire after TTL")

	// Sweep drops the expired entry from the map entirely.
	assert.Equal(t, 1, c.len())
	c.sweep(time.Now())
	assert.Equal(t, 0, c.len())
}

func TestTTLCacheCapacityEviction(t *testing.T) {
	t.Parallel()

	c := newTTLCache(2, time.Minute, 0)
	defer c.close()

	c.put("a", nil)
	c.put("b", nil)
	c.put("c", nil)

	assert.Equal(t, 2, c.len())
	_, ok := c.get("a")
	assert.False(t, ok, "oldest entry should be evicted at capacity")
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestTTLCacheSweeperRuns(t *testing.T) {
	t.Parallel()

	c := newTTLCache(4, 10*time.Millisecond, 15*time.Millisecond)
	defer c.close()

	c.put("leeds", nil)
	assert.Eventually(t, func() bool { return c.len() == 0 }, time.Second, 5*time.Millisecond)
}
