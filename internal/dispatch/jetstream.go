package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/ayia-hosni/study-sync-backend/internal/deadletter"
	"github.com/ayia-hosni/study-sync-backend/internal/metrics"
)

// JetStreamConfig configures a JetStreamQueue.
type JetStreamConfig struct {
	URL        string
	Stream     string // default STUDYSYNC_JOBS
	Subject    string // subject prefix, default studysync.jobs
	Consumer   string // durable consumer name, default studysync-worker
	// AckWait is how long the server waits for an ack before redelivering.
	// Running jobs extend it with progress acks. Default 30s.
	AckWait time.Duration
	// DrainTimeout bounds how long Run lets in-flight jobs finish after ctx
	// is cancelled. Jobs still running then are released back to the stream.
	// Default 5s.
	DrainTimeout time.Duration
	Policy       QueuePolicy
	Logger       *slog.Logger
	DeadLetter   deadletter.Sink
	Metrics      *metrics.Metrics
}

// JetStreamQueue is a durable queue on a NATS JetStream work-queue stream.
// Jobs survive process restarts; failed deliveries are negatively
// acknowledged with the policy delay and terminated once exhausted. The
// consumer has no server-side delivery limit: the try budget is enforced
// here so an exhausted job is always dead-lettered.
type JetStreamQueue struct {
	conn         *nats.Conn
	js           jetstream.JetStream
	cons         jetstream.Consumer
	stream       string
	subject      string
	ackWait      time.Duration
	drainTimeout time.Duration
	fail         failures
}

// NewJetStreamQueue connects to NATS and ensures the stream and durable
// consumer exist.
func NewJetStreamQueue(ctx context.Context, cfg JetStreamConfig) (*JetStreamQueue, error) {
	if cfg.Stream == "" {
		cfg.Stream = "STUDYSYNC_JOBS"
	}
	if cfg.Subject == "" {
		cfg.Subject = "studysync.jobs"
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "studysync-worker"
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 30 * time.Second
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
	policy := cfg.Policy.normalize()
	logger := cfg.Logger

	nc, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.Subject + ".>"},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensuring stream %s: %w", cfg.Stream, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:    cfg.Consumer,
		AckPolicy:  jetstream.AckExplicitPolicy,
		AckWait:    cfg.AckWait,
		MaxDeliver: -1,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensuring consumer %s: %w", cfg.Consumer, err)
	}

	return &JetStreamQueue{
		conn:         nc,
		js:           js,
		cons:         cons,
		stream:       cfg.Stream,
		subject:      cfg.Subject,
		ackWait:      cfg.AckWait,
		drainTimeout: cfg.DrainTimeout,
		fail: failures{
			policy:     policy,
			logger:     logger,
			deadLetter: cfg.DeadLetter,
			metrics:    cfg.Metrics,
		},
	}, nil
}

// Enqueue publishes the job and waits for the stream to persist it. The job
// ID doubles as the JetStream message ID, so a retried Enqueue is
// deduplicated.
func (q *JetStreamQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}
	if _, err := q.js.Publish(ctx, q.subject+"."+string(job.Kind), data, jetstream.WithMsgID(job.ID)); err != nil {
		return fmt.Errorf("enqueue %s: %w", job.Kind, err)
	}
	return nil
}

// Run consumes jobs until ctx is cancelled, then drains in-flight
// deliveries. Handlers run on a context detached from ctx; it is cancelled
// only when the drain deadline passes, and jobs interrupted that way are
// released back to the stream rather than acknowledged.
func (q *JetStreamQueue) Run(ctx context.Context, h Handler) error {
	work, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	// Callbacks run one at a time; busy is held for the one in flight.
	var busy sync.Mutex
	cc, err := q.cons.Consume(func(msg jetstream.Msg) {
		busy.Lock()
		defer busy.Unlock()
		q.handle(work, h, msg)
	})
	if err != nil {
		return fmt.Errorf("starting consumer: %w", err)
	}
	<-ctx.Done()
	cc.Drain()

	idle := make(chan struct{})
	go func() {
		<-cc.Closed()
		busy.Lock()
		close(idle)
		busy.Unlock()
	}()
	t := time.NewTimer(q.drainTimeout)
	defer t.Stop()
	select {
	case <-idle:
	case <-t.C:
		q.fail.logger.Warn("queue drain deadline reached, releasing in-flight jobs", "timeout", q.drainTimeout)
		cancelWork()
		<-idle
	}
	return nil
}

func (q *JetStreamQueue) handle(ctx context.Context, h Handler, msg jetstream.Msg) {
	var job Job
	if err := json.Unmarshal(msg.Data(), &job); err != nil {
		q.fail.logger.Error("undecodable job on stream", "subject", msg.Subject(), "error", err)
		raw, _ := json.Marshal(string(msg.Data()))
		q.fail.exhausted(ctx, Job{Kind: "undecodable", Payload: raw}, 1, err)
		_ = msg.Term()
		return
	}
	if ctx.Err() != nil {
		q.release(job, msg)
		return
	}

	tries := 1
	if md, err := msg.Metadata(); err == nil {
		tries = int(md.NumDelivered)
	}

	stop := q.keepAlive(job, msg)
	err := invoke(ctx, h, job)
	stop()
	if err == nil {
		if err := msg.Ack(); err != nil {
			q.fail.logger.Warn("acking job", "job_id", job.ID, "error", err)
		}
		return
	}
	if errors.Is(err, ErrInterrupted) && ctx.Err() != nil {
		q.release(job, msg)
		return
	}
	if q.fail.policy.retry(err, tries) {
		q.fail.retrying(job, tries, err)
		if err := msg.NakWithDelay(q.fail.policy.Delay); err != nil {
			q.fail.logger.Warn("nak job", "job_id", job.ID, "error", err)
		}
		return
	}
	q.fail.exhausted(ctx, job, tries, err)
	if err := msg.Term(); err != nil {
		q.fail.logger.Warn("terminating job", "job_id", job.ID, "error", err)
	}
}

// release hands a job back to the stream for immediate redelivery.
func (q *JetStreamQueue) release(job Job, msg jetstream.Msg) {
	q.fail.logger.Info("releasing job to the stream", "job_id", job.ID, "kind", job.Kind)
	if err := msg.Nak(); err != nil {
		q.fail.logger.Warn("nak job", "job_id", job.ID, "error", err)
	}
}

// keepAlive sends progress acks every half AckWait so the server does not
// redeliver a job that is still running. The returned func stops it.
func (q *JetStreamQueue) keepAlive(job Job, msg jetstream.Msg) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tick := time.NewTicker(q.ackWait / 2)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				if err := msg.InProgress(); err != nil {
					q.fail.logger.Warn("extending ack deadline", "job_id", job.ID, "error", err)
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// Pending reports how many jobs the stream still holds, counting those
// delivered but not yet acknowledged.
func (q *JetStreamQueue) Pending(ctx context.Context) (uint64, error) {
	stream, err := q.js.Stream(ctx, q.stream)
	if err != nil {
		return 0, fmt.Errorf("looking up stream %s: %w", q.stream, err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading stream %s info: %w", q.stream, err)
	}
	return info.State.Msgs, nil
}

// Close closes the NATS connection.
func (q *JetStreamQueue) Close() error {
	q.conn.Close()
	return nil
}
