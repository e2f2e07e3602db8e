package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingRunner struct {
	mu   sync.Mutex
	seen []uuid.UUID
	done chan struct{}
	want int
}

func (r *countingRunner) Start(_ context.Context, jobID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, jobID)
	if len(r.seen) == r.want {
		close(r.done)
	}
	return nil
}

func TestQueueRunsEveryEnqueuedJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	runner := &countingRunner{done: make(chan struct{}), want: 5}
	q := NewJobQueue(runner, nil, WithWorkers(2), WithQueueSize(8))

	ids := make(map[uuid.UUID]bool)
	for i := 0; i < 5; i++ {
		id := uuid.New()
		ids[id] = true
		require.NoError(t, q.Enqueue(context.Background(), id))
	}

	select {
	case <-runner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs did not drain")
	}
	q.Shutdown(context.Background())

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Len(t, runner.seen, 5)
	for _, id := range runner.seen {
		assert.True(t, ids[id])
	}
}

type blockingRunner struct {
	started chan uuid.UUID
	release chan struct{}
}

func (r *blockingRunner) Start(_ context.Context, jobID uuid.UUID) error {
	r.started <- jobID
	<-r.release
	return nil
}

func TestBackpressureSendRespectsContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	runner := &blockingRunner{started: make(chan uuid.UUID, 4), release: make(chan struct{})}
	q := NewJobQueue(runner, nil, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), uuid.New()))
	<-runner.started // the only worker is now busy

	// Fills the one-slot buffer.
	require.NoError(t, q.Enqueue(context.Background(), uuid.New()))

	// Queue full: the backpressure send must give up with the caller's
	// context instead of blocking forever.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Enqueue(cancelled, uuid.New())
	require.ErrorIs(t, err, context.Canceled)

	close(runner.release)
	q.Shutdown(context.Background())
}

func TestEnqueueAfterShutdownIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	runner := &countingRunner{done: make(chan struct{}), want: 1}
	q := NewJobQueue(runner, nil, WithWorkers(1))
	q.Shutdown(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), uuid.New()))
	q.Shutdown(context.Background()) // second shutdown is a no-op

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Empty(t, runner.seen)
}
