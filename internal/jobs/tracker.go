// Package jobs tracks scrape jobs running on the external scraper
// service. The tracker starts a job, then polls its status on a fixed
// interval in a dedicated goroutine, keeping a last-known snapshot that
// the CLI and HTTP API read without touching the scraper service.
package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/veda-group/leadgen-cli/pkg/scraperapi"
)

// Job is a point-in-time snapshot of a tracked scrape job.
type Job struct {
	ID         string             `json:"id"`
	Kind       scraperapi.JobKind `json:"kind"`
	TaskID     string             `json:"task_id"`
	City       string             `json:"city,omitempty"`
	Keyword    string             `json:"keyword,omitempty"`
	DBName     string             `json:"db_name,omitempty"`
	Collection string             `json:"collection,omitempty"`
	Status     scraperapi.Status  `json:"status"`
	Message    string             `json:"message,omitempty"`
	Progress   int                `json:"progress"`
	StartedAt  time.Time          `json:"started_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Done reports whether the job has reached a terminal state.
func (j Job) Done() bool {
	return j.Status.Terminal()
}

// Tracker starts and observes scraper jobs. All exported methods are
// safe for concurrent use.
type Tracker struct {
	client   scraperapi.Client
	interval time.Duration
	log      *zap.Logger

	mu      sync.RWMutex
	jobs    map[string]Job
	cancels map[string]context.CancelFunc

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTracker creates a tracker polling at the given interval.
// interval <= 0 falls back to 5 seconds.
func NewTracker(client scraperapi.Client, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	root, cancel := context.WithCancel(context.Background())
	return &Tracker{
		client:   client,
		interval: interval,
		log:      zap.L().With(zap.String("component", "jobs")),
		jobs:     make(map[string]Job),
		cancels:  make(map[string]context.CancelFunc),
		root:     root,
		cancel:   cancel,
	}
}

// StartCityScrape kicks off the postcode scrape for a city. When the
// scraper already holds postcode data it skips straight to the maps
// crawl; the tracker follows whichever task came back.
func (t *Tracker) StartCityScrape(ctx context.Context, city, keyword string, autoRunMaps bool) (Job, error) {
	resp, err := t.client.StartPostcodeScrape(ctx, city, keyword, autoRunMaps)
	if err != nil {
		return Job{}, eris.Wrapf(err, "jobs: start city scrape %s", city)
	}

	job := Job{
		ID:      uuid.New().String(),
		Kind:    scraperapi.JobPostcode,
		TaskID:  resp.TaskID,
		City:    city,
		Keyword: keyword,
		Status:  scraperapi.StatusRunning,
		Message: resp.Message,
	}
	if resp.TaskID == "" && resp.GmapsTaskID != "" {
		// Postcode data existed; the scraper went directly to maps.
		job.Kind = scraperapi.JobMaps
		job.TaskID = resp.GmapsTaskID
	}
	t.track(job)
	return t.snapshot(job.ID), nil
}

// StartMapsScrape kicks off the maps crawl over a queued subsector
// collection.
func (t *Tracker) StartMapsScrape(ctx context.Context, dbName, queueCollection string) (Job, error) {
	resp, err := t.client.StartMapsScrape(ctx, dbName, queueCollection)
	if err != nil {
		return Job{}, eris.Wrapf(err, "jobs: start maps scrape %s/%s", dbName, queueCollection)
	}

	job := Job{
		ID:         uuid.New().String(),
		Kind:       scraperapi.JobMaps,
		TaskID:     resp.TaskID,
		DBName:     dbName,
		Collection: queueCollection,
		Status:     scraperapi.StatusRunning,
		Message:    resp.Message,
	}
	t.track(job)
	return t.snapshot(job.ID), nil
}

// StartEmailScrape kicks off email enrichment for a scraped collection.
func (t *Tracker) StartEmailScrape(ctx context.Context, dbName, collection string) (Job, error) {
	resp, err := t.client.StartEmailScrape(ctx, dbName, collection)
	if err != nil {
		return Job{}, eris.Wrapf(err, "jobs: start email scrape %s/%s", dbName, collection)
	}

	job := Job{
		ID:         uuid.New().String(),
		Kind:       scraperapi.JobEmail,
		TaskID:     resp.TaskID,
		DBName:     dbName,
		Collection: collection,
		Status:     scraperapi.StatusRunning,
		Message:    resp.Message,
	}
	t.track(job)
	return t.snapshot(job.ID), nil
}

// Job returns the last-known snapshot for an internal job ID.
func (t *Tracker) Job(id string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	return j, ok
}

// Jobs returns snapshots of every tracked job, newest first.
func (t *Tracker) Jobs() []Job {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Terminate asks the scraper to stop a job and stops polling it.
func (t *Tracker) Terminate(ctx context.Context, id string) error {
	t.mu.RLock()
	job, ok := t.jobs[id]
	t.mu.RUnlock()
	if !ok {
		return eris.Errorf("jobs: unknown job %s", id)
	}

	resp, err := t.client.Terminate(ctx, job.Kind, job.TaskID)
	if err != nil {
		return eris.Wrapf(err, "jobs: terminate %s", id)
	}

	t.mu.Lock()
	if cancel, ok := t.cancels[id]; ok {
		cancel()
		delete(t.cancels, id)
	}
	job = t.jobs[id]
	job.Status = scraperapi.StatusTerminated
	job.Message = resp.Message
	job.UpdatedAt = time.Now()
	t.jobs[id] = job
	t.mu.Unlock()
	return nil
}

// Close stops all polling goroutines and waits for them to exit.
func (t *Tracker) Close() {
	t.cancel()
	t.wg.Wait()
}

func (t *Tracker) snapshot(id string) Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.jobs[id]
}

func (t *Tracker) track(job Job) {
	now := time.Now()
	job.StartedAt = now
	job.UpdatedAt = now

	ctx, cancel := context.WithCancel(t.root)

	t.mu.Lock()
	t.jobs[job.ID] = job
	t.cancels[job.ID] = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go t.poll(ctx, job.ID)
}

// poll checks the job status once per interval until a terminal state
// or cancellation. Individual check failures are logged and retried;
// the scraper going briefly unreachable should not lose the job.
func (t *Tracker) poll(ctx context.Context, id string) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		t.mu.RLock()
		job := t.jobs[id]
		t.mu.RUnlock()

		status, err := t.client.TaskStatus(ctx, job.Kind, job.TaskID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.Warn("status check failed",
				zap.String("job", id),
				zap.String("task", job.TaskID),
				zap.Error(err))
			continue
		}

		done := t.apply(id, status)
		if done {
			return
		}
	}
}

// apply folds a status response into the snapshot. It returns true when
// polling should stop. A completed postcode task with a maps handoff
// swaps the tracked task and keeps going.
func (t *Tracker) apply(id string, status *scraperapi.TaskStatusResponse) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return true
	}

	job.Status = status.Status
	job.Message = status.Message
	if p := status.Percent(); p > 0 {
		job.Progress = p
	}
	job.UpdatedAt = time.Now()

	if job.Kind == scraperapi.JobPostcode &&
		status.Status == scraperapi.StatusCompleted &&
		status.GmapsTaskID != "" {
		t.log.Info("postcode task handed off to maps crawl",
			zap.String("job", id),
			zap.String("maps_task", status.GmapsTaskID))
		job.Kind = scraperapi.JobMaps
		job.TaskID = status.GmapsTaskID
		job.Status = scraperapi.StatusRunning
		job.Progress = 0
		t.jobs[id] = job
		return false
	}

	t.jobs[id] = job
	if job.Status.Terminal() {
		t.log.Info("job finished",
			zap.String("job", id),
			zap.String("status", string(job.Status)))
		delete(t.cancels, id)
		return true
	}
	return false
}
