// Package scraperapi is a client for the external scraper service that
// performs the actual crawling: postcode discovery, the maps-based
// business crawl, and the email-enrichment pass. This application only
// triggers jobs, polls their status, and terminates them.
package scraperapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Default base URL for a locally running scraper service.
const defaultBaseURL = "http://127.0.0.1:5000"

// JobKind identifies the scraper job families.
type JobKind string

const (
	// JobPostcode crawls postcode sectors for a city.
	JobPostcode JobKind = "PS"
	// JobMaps crawls business listings from the queued subsectors.
	JobMaps JobKind = "GM"
	// JobEmail enriches scraped businesses with email addresses.
	JobEmail JobKind = "ES"
)

// Status mirrors the scraper service's task state strings.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusTerminated Status = "terminated"
	StatusFailed     Status = "failed"
)

// Terminal reports whether a task in this state will never progress.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusTerminated, StatusFailed:
		return true
	}
	return false
}

// Client defines the scraper service operations.
type Client interface {
	Health(ctx context.Context) error
	CheckPostcodeData(ctx context.Context, city, keyword string) (*PostcodeDataResponse, error)
	StartPostcodeScrape(ctx context.Context, city, keyword string, autoRunMaps bool) (*StartResponse, error)
	StartMapsScrape(ctx context.Context, dbName, queueCollection string) (*StartResponse, error)
	StartEmailScrape(ctx context.Context, dbName, collection string) (*StartResponse, error)
	TaskStatus(ctx context.Context, kind JobKind, taskID string) (*TaskStatusResponse, error)
	StatusByURL(ctx context.Context, statusURL string) (*TaskStatusResponse, error)
	Terminate(ctx context.Context, kind JobKind, taskID string) (*TerminateResponse, error)
}

// PostcodeDataResponse is the response from GET /api/dataPS.
type PostcodeDataResponse struct {
	Exists     bool   `json:"exists"`
	Message    string `json:"message,omitempty"`
	Collection *struct {
		Name string `json:"name"`
	} `json:"collection,omitempty"`
}

// StartResponse is the response from the scrape-start endpoints. When
// postcode data already exists, scrapePS skips straight to a maps task
// and reports it via the gmaps fields.
type StartResponse struct {
	TaskID         string `json:"task_id"`
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	StatusURL      string `json:"status_url,omitempty"`
	GmapsTaskID    string `json:"gmaps_task_id,omitempty"`
	GmapsStatusURL string `json:"gmaps_status_url,omitempty"`
}

// TaskStatusResponse is the response from the status endpoints. The
// progress counter pair depends on the job family: subsector counts for
// the maps crawl, record counts for email enrichment; the postcode job
// reports a percentage directly.
type TaskStatusResponse struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`

	Progress              int `json:"progress,omitempty"`
	TotalSubsectors       int `json:"total_subsectors,omitempty"`
	UnprocessedSubsectors int `json:"unprocessed_subsectors,omitempty"`
	TotalRecords          int `json:"total_records,omitempty"`
	RemainingRecords      int `json:"remaining_records,omitempty"`

	// Set when a completed postcode task handed off to a maps task.
	GmapsTaskID    string `json:"gmaps_task_id,omitempty"`
	GmapsStatusURL string `json:"gmaps_status_url,omitempty"`
}

// Percent derives a 0-100 progress figure from whichever counter pair
// the task reports: processed = total - remaining, rounded. A
// non-positive total yields 0.
func (r *TaskStatusResponse) Percent() int {
	if r.TotalSubsectors > 0 {
		return pct(r.TotalSubsectors-r.UnprocessedSubsectors, r.TotalSubsectors)
	}
	if r.TotalRecords > 0 {
		return pct(r.TotalRecords-r.RemainingRecords, r.TotalRecords)
	}
	if r.Progress > 0 {
		if r.Progress > 100 {
			return 100
		}
		return r.Progress
	}
	return 0
}

func pct(processed, total int) int {
	if total <= 0 {
		return 0
	}
	if processed < 0 {
		processed = 0
	}
	p := int(math.Round(100 * float64(processed) / float64(total)))
	if p > 100 {
		p = 100
	}
	return p
}

// TerminateResponse is the response from POST /api/terminateXX/{id}.
type TerminateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// APIError is returned when the scraper service responds with a non-2xx
// status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scraperapi: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative
// disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new scraper service client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(4), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health probes GET /health. A 404 still proves the service is up, so
// only transport failures and 5xx responses count as unhealthy.
func (c *httpClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return eris.Wrap(err, "scraperapi: create health request")
	}
	req.Header.Set("Accept", "application/json")

	if err := c.wait(ctx); err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "scraperapi: health check")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return &APIError{StatusCode: resp.StatusCode, Body: "health check failed"}
	}
	return nil
}

func (c *httpClient) CheckPostcodeData(ctx context.Context, city, keyword string) (*PostcodeDataResponse, error) {
	q := url.Values{"city": {city}, "keyword": {keyword}}
	var resp PostcodeDataResponse
	if err := c.get(ctx, "/api/dataPS?"+q.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "scraperapi: check postcode data")
	}
	return &resp, nil
}

func (c *httpClient) StartPostcodeScrape(ctx context.Context, city, keyword string, autoRunMaps bool) (*StartResponse, error) {
	q := url.Values{
		"city":           {city},
		"keyword":        {keyword},
		"auto_run_gmaps": {fmt.Sprintf("%t", autoRunMaps)},
	}
	var resp StartResponse
	if err := c.get(ctx, "/api/scrapePS?"+q.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "scraperapi: start postcode scrape")
	}
	return &resp, nil
}

func (c *httpClient) StartMapsScrape(ctx context.Context, dbName, queueCollection string) (*StartResponse, error) {
	q := url.Values{"db_name": {dbName}, "queue_collection": {queueCollection}}
	var resp StartResponse
	if err := c.get(ctx, "/api/scrapeGM?"+q.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "scraperapi: start maps scrape")
	}
	return &resp, nil
}

func (c *httpClient) StartEmailScrape(ctx context.Context, dbName, collection string) (*StartResponse, error) {
	q := url.Values{"db_name": {dbName}, "collection": {collection}}
	var resp StartResponse
	if err := c.get(ctx, "/api/scrapeES?"+q.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "scraperapi: start email scrape")
	}
	return &resp, nil
}

func (c *httpClient) TaskStatus(ctx context.Context, kind JobKind, taskID string) (*TaskStatusResponse, error) {
	return c.StatusByURL(ctx, fmt.Sprintf("/api/status%s/%s", kind, url.PathEscape(taskID)))
}

// StatusByURL fetches a task status from a status path handed back by a
// start response.
func (c *httpClient) StatusByURL(ctx context.Context, statusURL string) (*TaskStatusResponse, error) {
	var resp TaskStatusResponse
	if err := c.get(ctx, statusURL, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("scraperapi: get task status %s", statusURL))
	}
	return &resp, nil
}

func (c *httpClient) Terminate(ctx context.Context, kind JobKind, taskID string) (*TerminateResponse, error) {
	path := fmt.Sprintf("/api/terminate%s/%s", kind, url.PathEscape(taskID))
	var resp TerminateResponse
	if err := c.post(ctx, path, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("scraperapi: terminate %s task %s", kind, taskID))
	}
	return &resp, nil
}

// KindForTask infers the job family from the scraper's task ID prefix,
// defaulting to the maps crawl.
func KindForTask(taskID string) JobKind {
	switch {
	case len(taskID) >= 3 && taskID[:3] == "PS_":
		return JobPostcode
	case len(taskID) >= 3 && taskID[:3] == "ES_":
		return JobEmail
	default:
		return JobMaps
	}
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, req, out)
}

func (c *httpClient) post(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, req, out)
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}
	return nil
}

func (c *httpClient) do(ctx context.Context, req *http.Request, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
