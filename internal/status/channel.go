// Package status exposes job state to callers: a pull-based snapshot and a
// push-based live stream over the same store.
package status

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/entity"
	"github.com/amara-obi/designweek/internal/repository"
)

// Snapshot is the caller-facing view of one job's state.
type Snapshot struct {
	JobID    uuid.UUID             `json:"job_id"`
	Status   constants.JobStatus   `json:"status"`
	Stage    *constants.JobStage   `json:"stage,omitempty"`
	Progress *entity.StageProgress `json:"progress,omitempty"`
	Error    *string               `json:"error,omitempty"`
}

// Channel reads job state. It never blocks job execution.
type Channel struct {
	jobs         repository.JobRepository
	pollInterval time.Duration
	logger       *slog.Logger
}

func NewChannel(jobs repository.JobRepository, pollInterval time.Duration, logger *slog.Logger) *Channel {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{jobs: jobs, pollInterval: pollInterval, logger: logger}
}

// Get returns the current snapshot for a job. Unknown ids surface the
// store's not-found error.
func (c *Channel) Get(ctx context.Context, jobID uuid.UUID) (*Snapshot, error) {
	job, err := c.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(job), nil
}

// Watch returns a channel that emits the current snapshot immediately, then
// again on every observed change, polling the store at a fixed interval. The
// channel closes once the job reaches a terminal state or ctx is cancelled;
// cancellation stops the polling loop promptly and leaks nothing.
func (c *Channel) Watch(ctx context.Context, jobID uuid.UUID) (<-chan Snapshot, error) {
	first, err := c.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot, 1)
	out <- *first

	if first.Status.Terminal() {
		close(out)
		return out, nil
	}

	go func() {
		defer close(out)
		last := *first
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.logger.Debug("status.watch.disconnected", "job_id", jobID)
				return
			case <-ticker.C:
			}

			snap, err := c.Get(ctx, jobID)
			if err != nil {
				// job deleted out from under us by an administrative action
				c.logger.Warn("status.watch.lost", "job_id", jobID, "error", err)
				return
			}

			if !reflect.DeepEqual(*snap, last) {
				last = *snap
				select {
				case out <- *snap:
				case <-ctx.Done():
					return
				}
			}
			if snap.Status.Terminal() {
				return
			}
		}
	}()
	return out, nil
}

func snapshotOf(job *entity.Job) *Snapshot {
	return &Snapshot{
		JobID:    job.ID,
		Status:   job.Status,
		Stage:    job.CurrentStage,
		Progress: job.StageProgress,
		Error:    job.ErrorMessage,
	}
}
