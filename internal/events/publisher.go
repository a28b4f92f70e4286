package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ayia-hosni/study-sync-backend/internal/deadletter"
	"github.com/ayia-hosni/study-sync-backend/internal/metrics"
)

// DefaultSource is the value of the "source" header on every message.
const DefaultSource = "study-sync-backend"

// Header is a message header.
type Header struct {
	Key   string
	Value []byte
}

// Message is one record handed to a Producer.
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers []Header
}

// Producer writes a single message to the broker. Implementations must not
// retry on their own; Publisher owns the retry budget.
type Producer interface {
	WriteMessage(ctx context.Context, msg Message) error
	Close() error
}

// RetryPolicy bounds how often Publisher tries a write.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryPolicy is 3 attempts with 200ms and 400ms pauses between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseBackoff: 100 * time.Millisecond}
}

// Backoff returns the pause before the given attempt (1-based). The first
// attempt is never delayed.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return p.BaseBackoff * time.Duration(1<<(attempt-1))
}

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	Topics     Topics
	Source     string
	Retry      RetryPolicy
	Logger     *slog.Logger
	DeadLetter deadletter.Sink
	Metrics    *metrics.Metrics
}

// Publisher delivers events to the broker with bounded retries. It holds no
// mutable state and is safe for concurrent use.
type Publisher struct {
	producer   Producer
	topics     Topics
	source     string
	retry      RetryPolicy
	logger     *slog.Logger
	deadLetter deadletter.Sink
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

// NewPublisher creates a Publisher writing through p.
func NewPublisher(p Producer, cfg PublisherConfig) *Publisher {
	if cfg.Topics.Interaction == "" {
		cfg.Topics.Interaction = DefaultInteractionTopic
	}
	if cfg.Topics.Lifecycle == "" {
		cfg.Topics.Lifecycle = DefaultLifecycleTopic
	}
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DeadLetter == nil {
		cfg.DeadLetter = deadletter.LogSink{Logger: cfg.Logger}
	}
	return &Publisher{
		producer:   p,
		topics:     cfg.Topics,
		source:     cfg.Source,
		retry:      cfg.Retry,
		logger:     cfg.Logger,
		deadLetter: cfg.DeadLetter,
		metrics:    cfg.Metrics,
		tracer:     otel.Tracer("github.com/ayia-hosni/study-sync-backend/internal/events"),
		sleep:      sleepContext,
		now:        time.Now,
	}
}

// Topics returns the topic names this publisher routes events to.
func (p *Publisher) Topics() Topics { return p.topics }

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Publish encodes payload as JSON and writes it to topic under key. It
// reports whether the broker accepted the message within the retry budget;
// failures are logged and dead-lettered, never returned. A publish cut short
// by ctx is not dead-lettered: the caller still owns the event and decides
// whether to retry it.
func (p *Publisher) Publish(ctx context.Context, topic, key string, payload any) bool {
	eventID := ""
	if ider, ok := payload.(interface{ ID() string }); ok {
		eventID = ider.ID()
	}

	ctx, span := p.tracer.Start(ctx, "events.Publish", trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.kafka.message.key", key),
			attribute.String("event.id", eventID),
		))
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("encoding event payload", "topic", topic, "key", key, "error", err)
		span.SetStatus(codes.Error, "encode")
		return false
	}

	msg := Message{
		Topic: topic,
		Key:   key,
		Value: body,
		Headers: []Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "source", Value: []byte(p.source)},
			{Key: "timestamp", Value: []byte(Timestamp(p.now()))},
		},
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		if d := p.retry.Backoff(attempt); d > 0 {
			if err := p.sleep(ctx, d); err != nil {
				lastErr = fmt.Errorf("waiting for retry: %w", err)
				break
			}
		}
		attempts = attempt
		lastErr = p.producer.WriteMessage(ctx, msg)
		if lastErr == nil {
			p.metrics.PublishAttempt(topic, metrics.OutcomeSuccess)
			span.SetAttributes(attribute.Int("publish.attempts", attempt))
			p.logger.Info("event published", "topic", topic, "key", key, "event_id", eventID, "attempt", attempt)
			return true
		}
		p.metrics.PublishAttempt(topic, metrics.OutcomeFailure)
		p.logger.Warn("publish attempt failed",
			"topic", topic, "key", key, "attempt", attempt, "max_attempts", p.retry.MaxAttempts, "error", lastErr)
		if ctx.Err() != nil {
			break
		}
	}

	if ctx.Err() != nil {
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, "interrupted")
		p.logger.Warn("publish interrupted",
			"topic", topic, "key", key, "event_id", eventID, "attempts", attempts, "error", lastErr)
		return false
	}

	p.metrics.PublishExhausted(topic)
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "retries exhausted")
	p.logger.Error("event dropped after retries",
		"topic", topic,
		"key", key,
		"event_id", eventID,
		"attempts", attempts,
		"error", lastErr,
		"payload", json.RawMessage(body),
	)

	rec := deadletter.Record{
		Stage:    deadletter.StagePublish,
		Topic:    topic,
		Key:      key,
		EventID:  eventID,
		Attempts: attempts,
		Payload:  body,
		FailedAt: p.now().UTC(),
	}
	if lastErr != nil {
		rec.Error = lastErr.Error()
	}
	if err := p.deadLetter.Write(context.WithoutCancel(ctx), rec); err != nil {
		p.logger.Error("writing dead-letter record", "topic", topic, "key", key, "error", err)
	}
	return false
}

// PublishInteraction publishes e on the interaction topic.
func (p *Publisher) PublishInteraction(ctx context.Context, e InteractionEvent) bool {
	return p.Publish(ctx, e.Topic(p.topics), e.PartitionKey(), e)
}

// PublishPostLifecycle publishes e on the lifecycle topic.
func (p *Publisher) PublishPostLifecycle(ctx context.Context, e PostLifecycleEvent) bool {
	return p.Publish(ctx, e.Topic(p.topics), e.PartitionKey(), e)
}

func (p *Publisher) PublishLike(ctx context.Context, userID, postID int64, category *string) bool {
	return p.PublishInteraction(ctx, NewLike(userID, postID, category))
}

func (p *Publisher) PublishUnlike(ctx context.Context, userID, postID int64) bool {
	return p.PublishInteraction(ctx, NewUnlike(userID, postID))
}

func (p *Publisher) PublishView(ctx context.Context, userID, postID int64, durationSeconds *int64, category *string) bool {
	return p.PublishInteraction(ctx, NewView(userID, postID, durationSeconds, category))
}

func (p *Publisher) PublishComment(ctx context.Context, userID, postID int64, commentID *int64, category *string) bool {
	return p.PublishInteraction(ctx, NewComment(userID, postID, commentID, category))
}

func (p *Publisher) PublishShare(ctx context.Context, userID, postID int64, platform, category *string) bool {
	return p.PublishInteraction(ctx, NewShare(userID, postID, platform, category))
}

func (p *Publisher) PublishBookmark(ctx context.Context, userID, postID int64, category *string) bool {
	return p.PublishInteraction(ctx, NewBookmark(userID, postID, category))
}

func (p *Publisher) PublishClick(ctx context.Context, userID, postID int64, source *string) bool {
	return p.PublishInteraction(ctx, NewClick(userID, postID, source))
}

func (p *Publisher) PublishPostCreated(ctx context.Context, postID, authorID int64, postData Fields) bool {
	return p.PublishPostLifecycle(ctx, NewPostCreated(postID, authorID, postData))
}

func (p *Publisher) PublishPostUpdated(ctx context.Context, postID, authorID int64, postData Fields) bool {
	return p.PublishPostLifecycle(ctx, NewPostUpdated(postID, authorID, postData))
}

func (p *Publisher) PublishPostDeleted(ctx context.Context, postID, authorID int64) bool {
	return p.PublishPostLifecycle(ctx, NewPostDeleted(postID, authorID))
}

func (p *Publisher) PublishPostPublished(ctx context.Context, postID, authorID int64, postData Fields) bool {
	return p.PublishPostLifecycle(ctx, NewPostPublished(postID, authorID, postData))
}

func (p *Publisher) PublishPostUnpublished(ctx context.Context, postID, authorID int64) bool {
	return p.PublishPostLifecycle(ctx, NewPostUnpublished(postID, authorID))
}

// Close closes the underlying producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
