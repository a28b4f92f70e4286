package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Invalidator evicts cached copies of posts.
type Invalidator interface {
	Invalidate(ctx context.Context, postIDs ...int64) error
}

// InvalidatingHandler evicts the cached post a job changes before handing
// the job to the next handler. Eviction is best-effort: a failure is logged
// and the entry ages out with the cache TTL.
type InvalidatingHandler struct {
	next   Handler
	cache  Invalidator
	logger *slog.Logger
}

// NewInvalidatingHandler wraps next, evicting through cache.
func NewInvalidatingHandler(next Handler, cache Invalidator, logger *slog.Logger) *InvalidatingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvalidatingHandler{next: next, cache: cache, logger: logger}
}

func (h *InvalidatingHandler) Handle(ctx context.Context, job Job) error {
	if id, ok := changedPost(job); ok {
		if err := h.cache.Invalidate(ctx, id); err != nil {
			h.logger.Warn("evicting cached post", "job_id", job.ID, "post_id", id, "error", err)
		} else {
			h.logger.Debug("cached post evicted", "job_id", job.ID, "post_id", id)
		}
	}
	return h.next.Handle(ctx, job)
}

// changedPost returns the post whose stored state a job of this kind
// alters. Interactions and creations leave cached posts valid.
func changedPost(job Job) (int64, bool) {
	switch job.Kind {
	case KindPostUpdated, KindPostDeleted, KindPostPublished, KindPostUnpublished:
	default:
		return 0, false
	}
	var ref struct {
		PostID int64 `json:"postId"`
	}
	if err := json.Unmarshal(job.Payload, &ref); err != nil || ref.PostID == 0 {
		return 0, false
	}
	return ref.PostID, true
}
