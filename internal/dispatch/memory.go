package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayia-hosni/study-sync-backend/internal/deadletter"
	"github.com/ayia-hosni/study-sync-backend/internal/metrics"
)

// errAbandoned is recorded for jobs a stopping MemoryQueue could not finish.
var errAbandoned = errors.New("queue stopped before the job completed")

// MemoryQueueConfig configures a MemoryQueue.
type MemoryQueueConfig struct {
	Policy  QueuePolicy
	Workers int
	Buffer  int
	// DrainTimeout bounds how long Run keeps working through buffered jobs
	// after ctx is cancelled. Default 5s.
	DrainTimeout time.Duration
	Logger       *slog.Logger
	DeadLetter   deadletter.Sink
	Metrics      *metrics.Metrics
}

type delivery struct {
	job   Job
	tries int
}

// MemoryQueue is a process-local queue served by a worker pool. On shutdown
// the workers drain buffered jobs until the drain deadline; whatever is
// still queued or waiting for redelivery after that is dead-lettered.
type MemoryQueue struct {
	jobs         chan delivery
	done         chan struct{}
	workers      int
	drainTimeout time.Duration
	fail         failures

	closeOnce sync.Once
	// pushMu is held shared by every send on jobs and exclusively by Close,
	// so nothing lands in the buffer after Close has emptied it.
	pushMu   sync.RWMutex
	timersMu sync.Mutex
	timers   map[*time.Timer]delivery
}

// NewMemoryQueue creates an in-memory queue.
func NewMemoryQueue(cfg MemoryQueueConfig) *MemoryQueue {
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.Buffer < 1 {
		cfg.Buffer = 1024
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DeadLetter == nil {
		cfg.DeadLetter = deadletter.LogSink{Logger: cfg.Logger}
	}
	return &MemoryQueue{
		jobs:         make(chan delivery, cfg.Buffer),
		done:         make(chan struct{}),
		workers:      cfg.Workers,
		drainTimeout: cfg.DrainTimeout,
		fail: failures{
			policy:     cfg.Policy.normalize(),
			logger:     cfg.Logger,
			deadLetter: cfg.DeadLetter,
			metrics:    cfg.Metrics,
		},
		timers: make(map[*time.Timer]delivery),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	return q.push(ctx, delivery{job: job})
}

func (q *MemoryQueue) push(ctx context.Context, d delivery) error {
	q.pushMu.RLock()
	defer q.pushMu.RUnlock()
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.jobs <- d:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the worker pool and blocks until ctx is cancelled or the queue
// is closed. Handlers run on a context detached from ctx: once ctx ends the
// workers keep draining buffered jobs, and only when the drain deadline
// passes is the handlers' context cancelled.
func (q *MemoryQueue) Run(ctx context.Context, h Handler) error {
	work, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
		case <-q.done:
		case <-finished:
			return
		}
		t := time.NewTimer(q.drainTimeout)
		defer t.Stop()
		select {
		case <-t.C:
			q.fail.logger.Warn("queue drain deadline reached, abandoning remaining jobs", "timeout", q.drainTimeout)
			cancelWork()
		case <-finished:
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					q.drain(work, h)
					return
				case <-q.done:
					q.drain(work, h)
					return
				case d := <-q.jobs:
					q.process(work, h, d)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

// drain processes buffered jobs until the buffer is empty or ctx ends.
func (q *MemoryQueue) drain(ctx context.Context, h Handler) {
	for ctx.Err() == nil {
		select {
		case d := <-q.jobs:
			q.process(ctx, h, d)
		default:
			return
		}
	}
}

func (q *MemoryQueue) process(ctx context.Context, h Handler, d delivery) {
	tries := d.tries + 1
	err := invoke(ctx, h, d.job)
	if err == nil {
		return
	}
	if errors.Is(err, ErrInterrupted) && ctx.Err() != nil {
		q.fail.exhausted(ctx, d.job, tries, fmt.Errorf("%w: %w", errAbandoned, err))
		return
	}
	if q.fail.policy.retry(err, tries) {
		q.fail.retrying(d.job, tries, err)
		q.redeliver(delivery{job: d.job, tries: tries})
		return
	}
	q.fail.exhausted(ctx, d.job, tries, err)
}

func (q *MemoryQueue) redeliver(d delivery) {
	q.timersMu.Lock()
	defer q.timersMu.Unlock()
	select {
	case <-q.done:
		q.abandon(d)
		return
	default:
	}
	var t *time.Timer
	t = time.AfterFunc(q.fail.policy.Delay, func() {
		q.timersMu.Lock()
		_, pending := q.timers[t]
		delete(q.timers, t)
		q.timersMu.Unlock()
		if !pending {
			// Close took over this delivery.
			return
		}
		if err := q.push(context.Background(), d); err != nil {
			q.abandon(d)
		}
	})
	q.timers[t] = d
}

func (q *MemoryQueue) abandon(d delivery) {
	q.fail.exhausted(context.Background(), d.job, d.tries, errAbandoned)
}

// Close stops the workers and dead-letters every job still buffered or
// waiting for redelivery. Call it after Run returns to give buffered jobs
// the full drain deadline.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
		// Wait out sends that started before done was closed.
		q.pushMu.Lock()
		defer q.pushMu.Unlock()

		var left []delivery
		q.timersMu.Lock()
		for t, d := range q.timers {
			t.Stop()
			left = append(left, d)
		}
		q.timers = map[*time.Timer]delivery{}
		q.timersMu.Unlock()

		for empty := false; !empty; {
			select {
			case d := <-q.jobs:
				left = append(left, d)
			default:
				empty = true
			}
		}
		for _, d := range left {
			q.abandon(d)
		}
	})
	return nil
}
