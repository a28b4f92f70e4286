// Package query serves canonical post and user-profile snapshots to the
// recommendation service. Lookups return an explicit error internally; the
// exported boundary methods turn every failure into the empty snapshot
// plus a log line, so callers never see an error.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ayia-hosni/study-sync-backend/internal/metrics"
	"github.com/ayia-hosni/study-sync-backend/internal/model"
	"github.com/ayia-hosni/study-sync-backend/internal/store"
)

// ErrorKind classifies a failed lookup.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// QueryError is the error side of a lookup.
type QueryError struct {
	Op   string
	Kind ErrorKind
	ID   int64
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %d: %s: %v", e.Op, e.ID, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Service answers point and batch lookups against a store.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService creates a Service reading from s.
func NewService(s store.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, logger: logger, metrics: m}
}

func classify(op string, id int64, err error) *QueryError {
	kind := KindInternal
	if errors.Is(err, store.ErrNotFound) {
		kind = KindNotFound
	}
	return &QueryError{Op: op, Kind: kind, ID: id, Err: err}
}

// guard converts a panic during a lookup into an internal QueryError.
func guard(op string, id int64, qerr **QueryError) {
	if r := recover(); r != nil {
		*qerr = &QueryError{Op: op, Kind: KindInternal, ID: id, Err: fmt.Errorf("panic: %v", r)}
	}
}

// LookupPost returns the snapshot for postID or a *QueryError.
func (s *Service) LookupPost(ctx context.Context, postID int64) (snap model.PostSnapshot, qerr *QueryError) {
	defer guard("GetPostInfo", postID, &qerr)
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return model.PostSnapshot{}, classify("GetPostInfo", postID, err)
	}
	return p.Snapshot(), nil
}

// LookupPosts returns snapshots for the posts that exist among postIDs, in
// request order with duplicates collapsed.
func (s *Service) LookupPosts(ctx context.Context, postIDs []int64) (snaps []model.PostSnapshot, qerr *QueryError) {
	defer guard("GetBatchPostInfo", 0, &qerr)

	unique := make([]int64, 0, len(postIDs))
	seen := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return []model.PostSnapshot{}, nil
	}

	posts, err := s.store.GetPosts(ctx, unique)
	if err != nil {
		return nil, classify("GetBatchPostInfo", 0, err)
	}
	byID := make(map[int64]*model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	snaps = make([]model.PostSnapshot, 0, len(posts))
	for _, id := range unique {
		if p, ok := byID[id]; ok {
			snaps = append(snaps, p.Snapshot())
		}
	}
	return snaps, nil
}

// LookupUser returns the profile snapshot for userID or a *QueryError.
func (s *Service) LookupUser(ctx context.Context, userID int64) (snap model.UserProfileSnapshot, qerr *QueryError) {
	defer guard("GetUserProfile", userID, &qerr)
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return model.UserProfileSnapshot{}, classify("GetUserProfile", userID, err)
	}
	return u.Snapshot(), nil
}

// GetPostInfo returns the post snapshot, or the empty snapshot if the post
// is missing or the lookup fails.
func (s *Service) GetPostInfo(ctx context.Context, postID int64) model.PostSnapshot {
	snap, qerr := s.LookupPost(ctx, postID)
	if qerr != nil {
		s.report(qerr, "post_id")
		return model.EmptyPostSnapshot()
	}
	s.metrics.Lookup("GetPostInfo", metrics.OutcomeSuccess)
	s.logger.Debug("retrieved post info", "post_id", postID)
	return snap
}

// GetBatchPostInfo returns snapshots for the posts found. Missing posts are
// omitted; a failed lookup yields an empty list.
func (s *Service) GetBatchPostInfo(ctx context.Context, postIDs []int64) []model.PostSnapshot {
	snaps, qerr := s.LookupPosts(ctx, postIDs)
	if qerr != nil {
		s.metrics.Lookup("GetBatchPostInfo", metrics.OutcomeError)
		s.logger.Error("fetching batch post info", "requested", len(postIDs), "error", qerr.Err)
		return []model.PostSnapshot{}
	}
	s.metrics.Lookup("GetBatchPostInfo", metrics.OutcomeSuccess)
	s.logger.Debug("retrieved batch post info", "requested", len(postIDs), "found", len(snaps))
	return snaps
}

// GetUserProfile returns the profile snapshot, or the empty profile if the
// user is missing or the lookup fails.
func (s *Service) GetUserProfile(ctx context.Context, userID int64) model.UserProfileSnapshot {
	snap, qerr := s.LookupUser(ctx, userID)
	if qerr != nil {
		s.report(qerr, "user_id")
		return model.EmptyUserProfileSnapshot()
	}
	s.metrics.Lookup("GetUserProfile", metrics.OutcomeSuccess)
	s.logger.Debug("retrieved user profile", "user_id", userID)
	return snap
}

func (s *Service) report(qerr *QueryError, idKey string) {
	if qerr.Kind == KindNotFound {
		s.metrics.Lookup(qerr.Op, metrics.OutcomeNotFound)
		s.logger.Warn("entity not found", "op", qerr.Op, idKey, qerr.ID)
		return
	}
	s.metrics.Lookup(qerr.Op, metrics.OutcomeError)
	s.logger.Error("lookup failed", "op", qerr.Op, idKey, qerr.ID, "error", qerr.Err)
}
