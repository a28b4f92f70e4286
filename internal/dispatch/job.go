package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ayia-hosni/study-sync-backend/internal/deadletter"
	"github.com/ayia-hosni/study-sync-backend/internal/events"
	"github.com/ayia-hosni/study-sync-backend/internal/idgen"
	"github.com/ayia-hosni/study-sync-backend/internal/metrics"
)

// ErrPermanent marks a handler failure that retrying cannot fix. Jobs
// failing with it go straight to the dead-letter sink.
var ErrPermanent = errors.New("permanent job failure")

// ErrInterrupted marks a job whose handler stopped because the queue is
// shutting down. Queues hand such jobs back instead of counting a failure.
var ErrInterrupted = errors.New("job interrupted")

// Job is the queued envelope carrying one occurrence.
type Job struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// NewJob wraps o in a job envelope.
func NewJob(o Occurrence) (Job, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return Job{}, fmt.Errorf("encoding %s occurrence: %w", o.Kind(), err)
	}
	id, err := idgen.WithPrefix("job_")
	if err != nil {
		return Job{}, fmt.Errorf("generating job id: %w", err)
	}
	return Job{
		ID:         id,
		Kind:       o.Kind(),
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Handler processes one job. A nil return completes the job; any other
// error is retried by the queue unless it wraps ErrPermanent.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

func (f HandlerFunc) Handle(ctx context.Context, job Job) error { return f(ctx, job) }

// PublishHandler turns jobs into published events.
type PublishHandler struct {
	publisher *events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewPublishHandler creates a handler publishing through p.
func NewPublishHandler(p *events.Publisher, logger *slog.Logger, m *metrics.Metrics) *PublishHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishHandler{publisher: p, logger: logger, metrics: m}
}

// Handle decodes the job and publishes its event. A publish that exhausts
// its own retries is terminal for the job: it is logged and the job
// completes, so the two retry tiers never multiply. A publish cut short by
// ctx returns ErrInterrupted so the queue keeps the job.
func (h *PublishHandler) Handle(ctx context.Context, job Job) error {
	occ, err := Decode(job.Kind, job.Payload)
	if err != nil {
		return fmt.Errorf("%w: job %s: %w", ErrPermanent, job.ID, err)
	}
	if !occ.publish(ctx, h.publisher) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: job %s: %w", ErrInterrupted, job.ID, err)
		}
		h.metrics.Job(string(job.Kind), metrics.OutcomeDropped)
		h.logger.Warn("event not delivered, job will not be retried", "job_id", job.ID, "kind", job.Kind)
		return nil
	}
	h.metrics.Job(string(job.Kind), metrics.OutcomeSuccess)
	return nil
}

// QueuePolicy is the queue-level retry tier. Zero fields select the
// defaults.
type QueuePolicy struct {
	MaxTries int
	Delay    time.Duration
}

// DefaultQueuePolicy allows 3 handler invocations, 10s apart.
func DefaultQueuePolicy() QueuePolicy {
	return QueuePolicy{MaxTries: 3, Delay: 10 * time.Second}
}

func (p QueuePolicy) normalize() QueuePolicy {
	def := DefaultQueuePolicy()
	if p.MaxTries < 1 {
		p.MaxTries = def.MaxTries
	}
	if p.Delay <= 0 {
		p.Delay = def.Delay
	}
	return p
}

// retry reports whether a job that failed its tries-th invocation with err
// should be delivered again.
func (p QueuePolicy) retry(err error, tries int) bool {
	return !errors.Is(err, ErrPermanent) && tries < p.MaxTries
}

// Queue is a task queue feeding jobs to a handler.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Run delivers jobs to h until ctx is cancelled or the queue is closed.
	Run(ctx context.Context, h Handler) error
	Close() error
}

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("queue closed")

// invoke calls h, converting a panic into an error.
func invoke(ctx context.Context, h Handler, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s (%s) panicked: %v", job.ID, job.Kind, r)
		}
	}()
	return h.Handle(ctx, job)
}

// failures holds the bookkeeping shared by queue implementations when a
// handler returns an error.
type failures struct {
	policy     QueuePolicy
	logger     *slog.Logger
	deadLetter deadletter.Sink
	metrics    *metrics.Metrics
}

func (f failures) retrying(job Job, tries int, err error) {
	f.metrics.Job(string(job.Kind), metrics.OutcomeRetry)
	f.logger.Warn("job failed, will retry",
		"job_id", job.ID, "kind", job.Kind, "try", tries, "max_tries", f.policy.MaxTries,
		"delay", f.policy.Delay, "error", err)
}

func (f failures) exhausted(ctx context.Context, job Job, tries int, err error) {
	f.metrics.Job(string(job.Kind), metrics.OutcomeDeadLetter)
	f.logger.Error("job dead-lettered",
		"job_id", job.ID, "kind", job.Kind, "tries", tries, "error", err,
		"payload", job.Payload)
	rec := deadletter.Record{
		Stage:    deadletter.StageDispatch,
		Kind:     string(job.Kind),
		EventID:  job.ID,
		Attempts: tries,
		Error:    err.Error(),
		Payload:  job.Payload,
		FailedAt: time.Now().UTC(),
	}
	if werr := f.deadLetter.Write(context.WithoutCancel(ctx), rec); werr != nil {
		f.logger.Error("writing dead-letter record", "job_id", job.ID, "error", werr)
	}
}
