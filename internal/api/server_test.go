package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veda-group/leadgen-cli/internal/cities"
	"github.com/veda-group/leadgen-cli/internal/jobs"
	"github.com/veda-group/leadgen-cli/internal/leadfilter"
	"github.com/veda-group/leadgen-cli/internal/leads"
	"github.com/veda-group/leadgen-cli/internal/model"
	"github.com/veda-group/leadgen-cli/internal/store"
	"github.com/veda-group/leadgen-cli/pkg/scraperapi"
)

// fakeStore serves canned leads and cities.
type fakeStore struct {
	store.Store
	leads    []model.Lead
	cities   []model.City
	exists   bool
	leadsErr error
}

func (f *fakeStore) Leads(ctx context.Context, dbName, collection string, filter store.LeadFilter) ([]model.Lead, error) {
	if f.leadsErr != nil {
		return nil, f.leadsErr
	}
	return f.leads, nil
}

func (f *fakeStore) SearchCities(ctx context.Context, query string, limit int) ([]model.City, error) {
	return f.cities, nil
}

func (f *fakeStore) DatabaseExists(ctx context.Context, dbName string) (bool, error) {
	return f.exists, nil
}

func (f *fakeStore) Collections(ctx context.Context, dbName string) ([]string, error) {
	return []string{"restaurant"}, nil
}

// fakeScraper answers health checks and job starts without a network.
type fakeScraper struct {
	healthErr error
	start     *scraperapi.StartResponse
	startErr  error
}

func (f *fakeScraper) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeScraper) CheckPostcodeData(ctx context.Context, city, keyword string) (*scraperapi.PostcodeDataResponse, error) {
	return &scraperapi.PostcodeDataResponse{}, nil
}

func (f *fakeScraper) StartPostcodeScrape(ctx context.Context, city, keyword string, autoRunMaps bool) (*scraperapi.StartResponse, error) {
	return f.start, f.startErr
}

func (f *fakeScraper) StartMapsScrape(ctx context.Context, dbName, queueCollection string) (*scraperapi.StartResponse, error) {
	return f.start, f.startErr
}

func (f *fakeScraper) StartEmailScrape(ctx context.Context, dbName, collection string) (*scraperapi.StartResponse, error) {
	return f.start, f.startErr
}

func (f *fakeScraper) TaskStatus(ctx context.Context, kind scraperapi.JobKind, taskID string) (*scraperapi.TaskStatusResponse, error) {
	return &scraperapi.TaskStatusResponse{Status: scraperapi.StatusRunning}, nil
}

func (f *fakeScraper) StatusByURL(ctx context.Context, statusURL string) (*scraperapi.TaskStatusResponse, error) {
	return &scraperapi.TaskStatusResponse{Status: scraperapi.StatusRunning}, nil
}

func (f *fakeScraper) Terminate(ctx context.Context, kind scraperapi.JobKind, taskID string) (*scraperapi.TerminateResponse, error) {
	return &scraperapi.TerminateResponse{Status: "terminated"}, nil
}

func newTestServer(t *testing.T, fs *fakeStore, sc *fakeScraper) *httptest.Server {
	t.Helper()

	filter := leadfilter.New(leadfilter.DefaultConfig())
	leadSvc := leads.NewService(fs, filter, 20)
	citySvc := cities.NewService(fs, cities.Options{})
	tracker := jobs.NewTracker(sc, time.Hour)
	t.Cleanup(tracker.Close)
	t.Cleanup(citySvc.Close)

	srv := NewServer(leadSvc, citySvc, tracker, sc)
	ts := httptest.NewServer(srv.Router(Options{}))
	t.Cleanup(ts.Close)
	return ts
}

func validLead(name, email string) model.Lead {
	return model.Lead{
		BusinessName: name,
		Email:        []string{email},
		Phone:        "0113 555 1234",
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestResultsEndpoint(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{leads: []model.Lead{
		validLead("Alpha", "a@alpha.com"),
		{BusinessName: "Invalid"},
	}}
	ts := newTestServer(t, fs, &fakeScraper{})

	var body resultsResponse
	code := getJSON(t, ts.URL+"/api/results?db=leeds&collection=restaurant", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Alpha", body.Results[0].BusinessName)
	assert.Equal(t, 1, body.Pagination.Total)
}

func TestResultsMissingParams(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeStore{}, &fakeScraper{})

	code := getJSON(t, ts.URL+"/api/results?collection=restaurant", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = getJSON(t, ts.URL+"/api/results?db=leeds", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestResultsStoreFailureYieldsEmptyPage(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{leadsErr: eris.New("connection refused")}
	ts := newTestServer(t, fs, &fakeScraper{})

	var body resultsResponse
	code := getJSON(t, ts.URL+"/api/results?db=leeds&collection=restaurant", &body)
	assert.Equal(t, http.StatusOK, code, "store failures must not surface as 5xx")
	assert.Empty(t, body.Results)
	assert.NotEmpty(t, body.Message)
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{leads: []model.Lead{
		validLead("Alpha", "a@alpha.com"),
		validLead("Bravo", "b@bravo.com"),
	}}
	ts := newTestServer(t, fs, &fakeScraper{})

	var body resultsResponse
	code := getJSON(t, ts.URL+"/api/search?db=leeds&collection=restaurant&q=bravo", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Bravo", body.Results[0].BusinessName)
}

func TestExportEndpoint(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{leads: []model.Lead{validLead("Alpha", "a@alpha.com")}}
	ts := newTestServer(t, fs, &fakeScraper{})

	resp, err := http.Get(ts.URL + "/api/export?db=leeds&collection=restaurant")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "leeds-restaurant-export-")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(string(raw), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Business Name,Email,Phone Number,Address,Website,Rating,Number of Reviews,Category", lines[0])
}

func TestCitiesEndpoint(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{cities: []model.City{{PostcodeArea: "LS", AreaCovered: "Leeds"}}}
	ts := newTestServer(t, fs, &fakeScraper{})

	code := getJSON(t, ts.URL+"/api/cities", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	var body struct {
		Cities []model.City `json:"cities"`
	}
	code = getJSON(t, ts.URL+"/api/cities?q=le", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, body.Cities, 1)
	assert.Equal(t, "Leeds", body.Cities[0].AreaCovered)
}

func TestCheckDatabaseEndpoint(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{exists: true}
	ts := newTestServer(t, fs, &fakeScraper{})

	var body struct {
		Exists      bool     `json:"exists"`
		Collections []string `json:"collections"`
	}
	code := getJSON(t, ts.URL+"/api/check-database?db=leeds", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, body.Exists)
	assert.Equal(t, []string{"restaurant"}, body.Collections)

	code = getJSON(t, ts.URL+"/api/check-database", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestScrapeEndpoint(t *testing.T) {
	t.Parallel()

	sc := &fakeScraper{start: &scraperapi.StartResponse{TaskID: "PS_1", Status: "running"}}
	ts := newTestServer(t, &fakeStore{}, sc)

	resp, err := http.Post(ts.URL+"/api/scrape", "application/json",
		strings.NewReader(`{"type":"city","city":"Leeds","keyword":"restaurant","auto_run_gmaps":true}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var job jobs.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, "PS_1", job.TaskID)
	assert.NotEmpty(t, job.ID)

	// The new job shows up in the status listing.
	var listing struct {
		Jobs []jobs.Job `json:"jobs"`
	}
	code := getJSON(t, ts.URL+"/api/scraper/status", &listing)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, listing.Jobs, 1)

	var single jobs.Job
	code = getJSON(t, ts.URL+"/api/scraper/status/"+job.ID, &single)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, job.ID, single.ID)
}

func TestScrapeEndpointValidation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeStore{}, &fakeScraper{})

	resp, err := http.Post(ts.URL+"/api/scrape", "application/json",
		strings.NewReader(`{"type":"city"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/scrape", "application/json",
		strings.NewReader(`{"type":"warp"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScrapeEndpointUpstreamFailure(t *testing.T) {
	t.Parallel()

	sc := &fakeScraper{startErr: eris.New("connection refused")}
	ts := newTestServer(t, &fakeStore{}, sc)

	resp, err := http.Post(ts.URL+"/api/scrape", "application/json",
		strings.NewReader(`{"type":"city","city":"Leeds"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeStore{}, &fakeScraper{})

	var body map[string]string
	code := getJSON(t, ts.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["scraper"])

	tsDown := newTestServer(t, &fakeStore{}, &fakeScraper{healthErr: eris.New("down")})
	code = getJSON(t, tsDown.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "unreachable", body["scraper"])
}
