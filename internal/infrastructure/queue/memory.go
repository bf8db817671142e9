package queue

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nutriplan/backend/internal/domain"
)

// Defaults match the producer's enqueue policy: 3 attempts with exponential
// backoff starting at 2000ms.
const (
	defaultAttempts    = 3
	defaultBackoffBase = 2000 * time.Millisecond
	defaultWorkers     = 1
	defaultBuffer      = 64
)

// ErrQueueStopped is returned when enqueueing after Stop
var ErrQueueStopped = errors.New("queue stopped")

// Handler processes one job delivery. A non-nil return triggers redelivery
// until the attempt budget is exhausted.
type Handler func(ctx context.Context, name string, job domain.Job) error

// Config holds configuration for the in-process queue
type Config struct {
	Attempts    int
	BackoffBase time.Duration
	Workers     int
}

// delivery is one enqueued job with its retry bookkeeping
type delivery struct {
	id      string
	name    string
	job     domain.Job
	attempt int
}

// MemoryQueue is an in-process job queue with worker goroutines and
// exponential-backoff redelivery. It stands in for an external broker;
// consumers only rely on the at-least-once contract, not on durability.
type MemoryQueue struct {
	name        string
	handler     Handler
	attempts    int
	backoffBase time.Duration

	jobs     chan delivery
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMemoryQueue creates the queue and starts its workers
func NewMemoryQueue(name string, handler Handler, cfg Config) *MemoryQueue {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	q := &MemoryQueue{
		name:        name,
		handler:     handler,
		attempts:    attempts,
		backoffBase: backoffBase,
		jobs:        make(chan delivery, defaultBuffer),
		quit:        make(chan struct{}),
	}

	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}

	return q
}

// Enqueue submits a job for processing
func (q *MemoryQueue) Enqueue(ctx context.Context, name string, job domain.Job) error {
	// A stopped queue must never accept a job, even while buffer slots are
	// free; the combined select below picks randomly between ready cases.
	select {
	case <-q.quit:
		return ErrQueueStopped
	default:
	}

	d := delivery{
		id:      uuid.NewString(),
		name:    name,
		job:     job,
		attempt: 1,
	}
	select {
	case q.jobs <- d:
		return nil
	case <-q.quit:
		return ErrQueueStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts the workers down. Jobs already being processed finish; queued
// and scheduled redeliveries are dropped.
func (q *MemoryQueue) Stop() {
	q.stopOnce.Do(func() {
		close(q.quit)
	})
	q.wg.Wait()
}

func (q *MemoryQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.quit:
			return
		case d := <-q.jobs:
			q.process(d)
		}
	}
}

func (q *MemoryQueue) process(d delivery) {
	err := q.handler(context.Background(), d.name, d.job)
	if err == nil {
		return
	}

	if d.attempt >= q.attempts {
		log.Printf("[QUEUE %s] job %s (%s) abandoned after %d attempts: %v",
			q.name, d.id, d.name, d.attempt, err)
		return
	}

	// Exponential backoff: base * 2^(attempt-1)
	delay := q.backoffBase << (d.attempt - 1)
	log.Printf("[QUEUE %s] job %s (%s) attempt %d failed, retrying in %s: %v",
		q.name, d.id, d.name, d.attempt, delay, err)

	next := d
	next.attempt++
	time.AfterFunc(delay, func() {
		select {
		case q.jobs <- next:
		case <-q.quit:
		}
	})
}
