// Package deadletter archives payloads whose retry budgets are exhausted so
// they can be replayed by hand.
package deadletter

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Stages at which a payload can be dead-lettered.
const (
	StagePublish  = "publish"
	StageDispatch = "dispatch"
)

// Record is one terminally failed payload.
type Record struct {
	Stage    string          `json:"stage"`
	Topic    string          `json:"topic,omitempty"`
	Key      string          `json:"key,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	EventID  string          `json:"event_id,omitempty"`
	Attempts int             `json:"attempts"`
	Error    string          `json:"error"`
	Payload  json.RawMessage `json:"payload"`
	FailedAt time.Time       `json:"failed_at"`
}

// Sink receives dead-lettered records. Implementations must be safe for
// concurrent use.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// LogSink writes records to a structured logger only.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Write(_ context.Context, rec Record) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("dead-letter",
		"stage", rec.Stage,
		"topic", rec.Topic,
		"key", rec.Key,
		"kind", rec.Kind,
		"event_id", rec.EventID,
		"attempts", rec.Attempts,
		"error", rec.Error,
		"payload", rec.Payload,
	)
	return nil
}

// Multi fans a record out to several sinks, returning the first error.
type Multi []Sink

func (m Multi) Write(ctx context.Context, rec Record) error {
	var first error
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}
