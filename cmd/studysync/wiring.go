package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ayia-hosni/study-sync-backend/internal/config"
	"github.com/ayia-hosni/study-sync-backend/internal/deadletter"
	"github.com/ayia-hosni/study-sync-backend/internal/dispatch"
	"github.com/ayia-hosni/study-sync-backend/internal/events"
	"github.com/ayia-hosni/study-sync-backend/internal/logging"
	"github.com/ayia-hosni/study-sync-backend/internal/metrics"
	"github.com/ayia-hosni/study-sync-backend/internal/store"
	"github.com/ayia-hosni/study-sync-backend/internal/store/cache"
	"github.com/ayia-hosni/study-sync-backend/internal/store/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// newLogger builds the process logger from the configured level and the
// --log-format flag, and installs it as the slog default.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	switch logging.Format(logFormat) {
	case logging.FormatAuto, logging.FormatText, logging.FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q (must be auto, text or json)", logFormat)
	}
	logger := logging.New(os.Stderr, level, logging.Format(logFormat))
	slog.SetDefault(logger)
	return logger, nil
}

// newRegistry returns a registry carrying the runtime collectors and the
// service metrics.
func newRegistry() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.New(reg)
}

// openStore connects to Postgres and, when Redis is configured, wraps the
// store in the read-through cache.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	pg, err := postgres.New(ctx, cfg.Database.URL, postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Migrate:         cfg.Database.Migrate,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Redis.URL == "" {
		logger.Info("cache disabled (STUDYSYNC_REDIS_URL not set)")
		return pg, nil
	}
	rdb, err := cache.Open(ctx, cfg.Redis.URL)
	if err != nil {
		pg.Close()
		return nil, err
	}
	logger.Info("cache enabled", "ttl", cfg.Redis.CacheTTL)
	return cache.New(pg, rdb, cfg.Redis.CacheTTL, logger), nil
}

// newDeadLetter always logs exhausted work and also archives it to S3 when a
// bucket is configured.
func newDeadLetter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (deadletter.Sink, error) {
	logSink := deadletter.LogSink{Logger: logger}
	if cfg.DeadLetter.S3Bucket == "" {
		return logSink, nil
	}
	s3Sink, err := deadletter.NewS3Sink(ctx,
		cfg.DeadLetter.S3Bucket,
		cfg.DeadLetter.S3Prefix,
		cfg.DeadLetter.S3Region,
		cfg.DeadLetter.S3Endpoint,
	)
	if err != nil {
		return nil, err
	}
	logger.Info("dead-letter archive enabled", "bucket", cfg.DeadLetter.S3Bucket, "prefix", cfg.DeadLetter.S3Prefix)
	return deadletter.Multi{logSink, s3Sink}, nil
}

// newPublisher creates the event publisher over Kafka, or over the noop
// producer when no brokers are configured.
func newPublisher(cfg *config.Config, logger *slog.Logger, sink deadletter.Sink, m *metrics.Metrics) (*events.Publisher, error) {
	var producer events.Producer = events.NoopProducer{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaProducer(events.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Acks:         cfg.Kafka.Acks,
			Compression:  cfg.Kafka.Compression,
			Idempotent:   cfg.Kafka.Idempotent,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		producer = kp
		logger.Info("events enabled", "brokers", cfg.Kafka.Brokers)
	} else {
		logger.Warn("events disabled (STUDYSYNC_KAFKA_BROKERS empty)")
	}

	return events.NewPublisher(producer, events.PublisherConfig{
		Topics: events.Topics{
			Interaction: cfg.Kafka.TopicUserInteraction,
			Lifecycle:   cfg.Kafka.TopicPostLifecycle,
		},
		Source:     cfg.Source,
		Retry:      events.RetryPolicy{MaxAttempts: cfg.Kafka.Retries, BaseBackoff: cfg.Kafka.RetryBackoff},
		Logger:     logger,
		DeadLetter: sink,
		Metrics:    m,
	}), nil
}

// openQueue returns the durable JetStream queue when NATS is configured and
// the in-memory queue otherwise.
func openQueue(ctx context.Context, cfg *config.Config, logger *slog.Logger, sink deadletter.Sink, m *metrics.Metrics) (dispatch.Queue, error) {
	policy := dispatch.QueuePolicy{MaxTries: cfg.Queue.Tries, Delay: cfg.Queue.Backoff}
	if cfg.Queue.NATSURL != "" {
		q, err := dispatch.NewJetStreamQueue(ctx, dispatch.JetStreamConfig{
			URL:          cfg.Queue.NATSURL,
			DrainTimeout: cfg.Queue.DrainTimeout,
			Policy:       policy,
			Logger:       logger,
			DeadLetter:   sink,
			Metrics:      m,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("job queue: jetstream", "nats_url", cfg.Queue.NATSURL)
		return q, nil
	}
	logger.Info("job queue: in-memory (STUDYSYNC_NATS_URL not set)", "workers", cfg.Queue.Workers)
	return dispatch.NewMemoryQueue(dispatch.MemoryQueueConfig{
		Policy:       policy,
		Workers:      cfg.Queue.Workers,
		DrainTimeout: cfg.Queue.DrainTimeout,
		Logger:       logger,
		DeadLetter:   sink,
		Metrics:      m,
	}), nil
}

// jobHandler publishes each job, evicting the post it changes from the
// cache first when inv is non-nil.
func jobHandler(publisher *events.Publisher, inv dispatch.Invalidator, logger *slog.Logger, m *metrics.Metrics) dispatch.Handler {
	var h dispatch.Handler = dispatch.NewPublishHandler(publisher, logger, m)
	if inv != nil {
		h = dispatch.NewInvalidatingHandler(h, inv, logger)
	}
	return h
}

// cacheOf returns the cache in front of st, if any.
func cacheOf(st store.Store) dispatch.Invalidator {
	if c, ok := st.(*cache.Store); ok {
		return c
	}
	return nil
}

// runQueue starts the queue consumer and returns a channel closed when it
// has stopped.
func runQueue(ctx context.Context, q dispatch.Queue, h dispatch.Handler, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := q.Run(ctx, h); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, dispatch.ErrQueueClosed) {
			logger.Error("job queue stopped", "err", err)
		}
	}()
	return done
}
