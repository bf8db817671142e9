package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriplan/backend/internal/domain"
)

// collector records deliveries and fails the first n of them
type collector struct {
	mu         sync.Mutex
	deliveries []domain.Job
	names      []string
	failures   int
	done       chan struct{}
}

func newCollector(failures int) *collector {
	return &collector{failures: failures, done: make(chan struct{})}
}

func (c *collector) handle(ctx context.Context, name string, job domain.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliveries = append(c.deliveries, job)
	c.names = append(c.names, name)
	if len(c.deliveries) <= c.failures {
		return errors.New("transient failure")
	}
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.deliveries)
}

func waitFor(t *testing.T, ch <-chan struct{}, timeout time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestEnqueueDelivers(t *testing.T) {
	c := newCollector(0)
	q := NewMemoryQueue("test", c.handle, Config{BackoffBase: time.Millisecond})
	defer q.Stop()

	err := q.Enqueue(context.Background(), "process", domain.Job{RequestID: 42})
	require.NoError(t, err)

	waitFor(t, c.done, 2*time.Second)
	assert.Equal(t, 1, c.count())
	assert.Equal(t, "process", c.names[0])
	assert.Equal(t, uint(42), c.deliveries[0].RequestID)
}

func TestRedeliveryAfterFailure(t *testing.T) {
	c := newCollector(2)
	q := NewMemoryQueue("test", c.handle, Config{Attempts: 3, BackoffBase: time.Millisecond})
	defer q.Stop()

	err := q.Enqueue(context.Background(), "process", domain.Job{RequestID: 1})
	require.NoError(t, err)

	waitFor(t, c.done, 2*time.Second)
	assert.Equal(t, 3, c.count())
}

func TestAttemptBudgetExhausted(t *testing.T) {
	c := newCollector(10)
	q := NewMemoryQueue("test", c.handle, Config{Attempts: 2, BackoffBase: time.Millisecond})
	defer q.Stop()

	err := q.Enqueue(context.Background(), "process", domain.Job{RequestID: 1})
	require.NoError(t, err)

	// Give the retries time to run out
	deadline := time.Now().Add(time.Second)
	for c.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 2, c.count())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, c.count(), "abandoned job must not be redelivered")
}

func TestStop(t *testing.T) {
	c := newCollector(0)
	q := NewMemoryQueue("test", c.handle, Config{})
	q.Stop()

	// Every enqueue after Stop must fail, including while buffer slots are
	// free; repeat to catch a queue that only rejects intermittently.
	for i := 0; i < 50; i++ {
		err := q.Enqueue(context.Background(), "process", domain.Job{RequestID: uint(i)})
		assert.ErrorIs(t, err, ErrQueueStopped)
	}
	assert.Equal(t, 0, c.count())

	// Stop is idempotent
	q.Stop()
}

func TestEnqueueHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No workers pick jobs up once the buffer is full, so a cancelled
	// context is the only way out.
	blocked := make(chan struct{})
	q := NewMemoryQueue("test", func(context.Context, string, domain.Job) error {
		<-blocked
		return nil
	}, Config{})
	defer func() {
		close(blocked)
		q.Stop()
	}()

	for i := 0; i < defaultBuffer+1; i++ {
		if err := q.Enqueue(context.Background(), "process", domain.Job{RequestID: uint(i)}); err != nil {
			t.Fatalf("fill enqueue %d: %v", i, err)
		}
	}

	err := q.Enqueue(ctx, "process", domain.Job{RequestID: 99})
	assert.ErrorIs(t, err, context.Canceled)
}
