// Package async runs queued extraction jobs on a bounded worker pool.
package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
)

// Runner executes one job to completion. The pipeline orchestrator is the
// production implementation.
type Runner interface {
	Start(ctx context.Context, jobID uuid.UUID) error
}

// JobQueue fans queued job ids out to a fixed pool of workers. Enqueue
// blocks once the buffer is full, which is the backpressure signal for the
// ingest path.
type JobQueue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan uuid.UUID
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*JobQueue)

func WithWorkers(n int) Option {
	return func(q *JobQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *JobQueue) {
		if n > 0 {
			q.ch = make(chan uuid.UUID, n)
		}
	}
}
func WithJobTimeout(d time.Duration) Option {
	return func(q *JobQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewJobQueue(runner Runner, logger *slog.Logger, opts ...Option) *JobQueue {
	q := &JobQueue{
		runner:  runner,
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan uuid.UUID, 256),
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *JobQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for jobID := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.runner.Start(ctx, jobID)
					cancel()

					if err != nil {
						q.logger.Error("job processing failed", "worker_id", workerID, "job_id", jobID, "error", err)
					} else {
						q.logger.Info("job processed", "worker_id", workerID, "job_id", jobID)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue hands a job id to the pool. A full buffer blocks the caller until
// a worker drains a slot or ctx is cancelled; producers do not serialize each
// other while waiting. After Shutdown the id is dropped with a warning rather
// than panicking on a closed channel.
func (q *JobQueue) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", jobID)
		return nil
	}
	select {
	case q.ch <- jobID:
		q.logger.Info("queued job for processing", "job_id", jobID)
		return nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", "job_id", jobID)
	select {
	case q.ch <- jobID:
		q.logger.Info("queued job for processing", "job_id", jobID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown closes intake and waits for in-flight jobs to drain, bounded by
// ctx.
func (q *JobQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
