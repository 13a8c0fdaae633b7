package scraperapi

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPollTimeout  = 30 * time.Minute
)

// PollOption configures Poll.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval time.Duration
	timeout  time.Duration
	onUpdate func(*TaskStatusResponse)
}

// WithPollInterval sets the delay between status checks.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithPollTimeout sets the overall polling deadline.
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUpdateFunc registers a callback invoked after every status check.
func WithUpdateFunc(fn func(*TaskStatusResponse)) PollOption {
	return func(c *pollConfig) {
		c.onUpdate = fn
	}
}

// Poll checks a task at a fixed interval until it reaches a terminal
// state, the context is cancelled, or the timeout elapses. The terminal
// status is returned regardless of whether the task succeeded; callers
// inspect Status themselves.
func Poll(ctx context.Context, client Client, kind JobKind, taskID string, opts ...PollOption) (*TaskStatusResponse, error) {
	cfg := pollConfig{
		interval: defaultPollInterval,
		timeout:  defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	for {
		status, err := client.TaskStatus(ctx, kind, taskID)
		if err != nil {
			return nil, eris.Wrapf(err, "poll %s task %s", kind, taskID)
		}
		if cfg.onUpdate != nil {
			cfg.onUpdate(status)
		}
		if status.Status.Terminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "polling %s task %s", kind, taskID)
		case <-ticker.C:
		}
	}
}

// PollWorkflow polls a postcode task and, when it completes with a maps
// handoff, follows the chained maps task to its own terminal state. For
// other job kinds it behaves like Poll.
func PollWorkflow(ctx context.Context, client Client, kind JobKind, taskID string, opts ...PollOption) (*TaskStatusResponse, error) {
	status, err := Poll(ctx, client, kind, taskID, opts...)
	if err != nil {
		return nil, err
	}
	if kind == JobPostcode && status.Status == StatusCompleted && status.GmapsTaskID != "" {
		return Poll(ctx, client, JobMaps, status.GmapsTaskID, opts...)
	}
	return status, nil
}
