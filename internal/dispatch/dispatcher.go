package dispatch

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher is the interface the CRUD layer raises occurrences through.
// Methods return once the job is queued; they never wait on the broker.
type Dispatcher struct {
	queue  Queue
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher enqueuing onto q.
func NewDispatcher(q Queue, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{queue: q, logger: logger}
}

// Raise queues any occurrence.
func (d *Dispatcher) Raise(ctx context.Context, o Occurrence) error {
	job, err := NewJob(o)
	if err != nil {
		return err
	}
	if err := d.queue.Enqueue(ctx, job); err != nil {
		d.logger.Error("enqueue failed", "kind", job.Kind, "job_id", job.ID, "error", err)
		return fmt.Errorf("enqueue %s: %w", job.Kind, err)
	}
	d.logger.Debug("occurrence queued", "kind", job.Kind, "job_id", job.ID)
	return nil
}

// RaiseJSON decodes body as an occurrence of kind and queues it.
func (d *Dispatcher) RaiseJSON(ctx context.Context, kind Kind, body []byte) error {
	occ, err := Decode(kind, body)
	if err != nil {
		return err
	}
	return d.Raise(ctx, occ)
}

// Liked queues a like.
func (d *Dispatcher) Liked(ctx context.Context, o PostLiked) error {
	return d.Raise(ctx, o)
}

// Unliked queues an unlike.
func (d *Dispatcher) Unliked(ctx context.Context, o PostUnliked) error {
	return d.Raise(ctx, o)
}

// Viewed queues a view.
func (d *Dispatcher) Viewed(ctx context.Context, o PostViewed) error {
	return d.Raise(ctx, o)
}

// Commented queues a comment.
func (d *Dispatcher) Commented(ctx context.Context, o PostCommented) error {
	return d.Raise(ctx, o)
}

// Shared queues a share.
func (d *Dispatcher) Shared(ctx context.Context, o PostShared) error {
	return d.Raise(ctx, o)
}

// Bookmarked queues a bookmark.
func (d *Dispatcher) Bookmarked(ctx context.Context, o PostBookmarked) error {
	return d.Raise(ctx, o)
}

// Clicked queues a click.
func (d *Dispatcher) Clicked(ctx context.Context, o PostClicked) error {
	return d.Raise(ctx, o)
}

// Created queues a new post.
func (d *Dispatcher) Created(ctx context.Context, o PostCreated) error {
	return d.Raise(ctx, o)
}

// Updated queues a post edit.
func (d *Dispatcher) Updated(ctx context.Context, o PostUpdated) error {
	return d.Raise(ctx, o)
}

// Deleted queues a post deletion.
func (d *Dispatcher) Deleted(ctx context.Context, o PostDeleted) error {
	return d.Raise(ctx, o)
}

// Published queues a post going live.
func (d *Dispatcher) Published(ctx context.Context, o PostPublished) error {
	return d.Raise(ctx, o)
}

// Unpublished queues a post being withdrawn.
func (d *Dispatcher) Unpublished(ctx context.Context, o PostUnpublished) error {
	return d.Raise(ctx, o)
}
