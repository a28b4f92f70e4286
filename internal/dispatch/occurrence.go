// Package dispatch decouples the request path from event delivery. Domain
// occurrences are queued as jobs and turned into published events by
// workers, with a retry tier of its own above the Publisher's.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayia-hosni/study-sync-backend/internal/events"
)

// Kind names an occurrence type on the queue and in the HTTP ingress path.
type Kind string

const (
	KindPostLiked       Kind = "post.liked"
	KindPostUnliked     Kind = "post.unliked"
	KindPostViewed      Kind = "post.viewed"
	KindPostCommented   Kind = "post.commented"
	KindPostShared      Kind = "post.shared"
	KindPostBookmarked  Kind = "post.bookmarked"
	KindPostClicked     Kind = "post.clicked"
	KindPostCreated     Kind = "post.created"
	KindPostUpdated     Kind = "post.updated"
	KindPostDeleted     Kind = "post.deleted"
	KindPostPublished   Kind = "post.published"
	KindPostUnpublished Kind = "post.unpublished"
)

var (
	// ErrUnknownKind is returned for a job or ingress request whose kind has
	// no registered occurrence.
	ErrUnknownKind = errors.New("unknown occurrence kind")
	// ErrInvalidPayload is returned when an occurrence body cannot be decoded.
	ErrInvalidPayload = errors.New("invalid occurrence payload")
)

// Occurrence is a domain fact raised by the CRUD layer. Each maps to exactly
// one event and one publish call.
type Occurrence interface {
	Kind() Kind
	publish(ctx context.Context, p *events.Publisher) bool
}

// PostLiked is raised when a user likes a post.
type PostLiked struct {
	UserID   int64   `json:"userId"`
	PostID   int64   `json:"postId"`
	Category *string `json:"category,omitempty"`
}

// PostUnliked is raised when a user removes a like.
type PostUnliked struct {
	UserID int64 `json:"userId"`
	PostID int64 `json:"postId"`
}

// PostViewed is raised when a user views a post, optionally with the time spent.
type PostViewed struct {
	UserID          int64   `json:"userId"`
	PostID          int64   `json:"postId"`
	DurationSeconds *int64  `json:"durationSeconds,omitempty"`
	Category        *string `json:"category,omitempty"`
}

// PostCommented is raised when a user comments on a post.
type PostCommented struct {
	UserID    int64   `json:"userId"`
	PostID    int64   `json:"postId"`
	CommentID *int64  `json:"commentId,omitempty"`
	Category  *string `json:"category,omitempty"`
}

// PostShared is raised when a user shares a post, optionally naming the platform.
type PostShared struct {
	UserID   int64   `json:"userId"`
	PostID   int64   `json:"postId"`
	Platform *string `json:"platform,omitempty"`
	Category *string `json:"category,omitempty"`
}

// PostBookmarked is raised when a user bookmarks a post.
type PostBookmarked struct {
	UserID   int64   `json:"userId"`
	PostID   int64   `json:"postId"`
	Category *string `json:"category,omitempty"`
}

// PostClicked is raised when a user opens a post from a feed or link.
type PostClicked struct {
	UserID int64   `json:"userId"`
	PostID int64   `json:"postId"`
	Source *string `json:"source,omitempty"`
}

// PostCreated is raised when an author creates a post.
type PostCreated struct {
	PostID   int64         `json:"postId"`
	AuthorID int64         `json:"authorId"`
	PostData events.Fields `json:"postData,omitempty"`
}

// PostUpdated is raised when an author edits a post.
type PostUpdated struct {
	PostID   int64         `json:"postId"`
	AuthorID int64         `json:"authorId"`
	PostData events.Fields `json:"postData,omitempty"`
}

// PostDeleted is raised when a post is removed.
type PostDeleted struct {
	PostID   int64 `json:"postId"`
	AuthorID int64 `json:"authorId"`
}

// PostPublished is raised when a post becomes visible.
type PostPublished struct {
	PostID   int64         `json:"postId"`
	AuthorID int64         `json:"authorId"`
	PostData events.Fields `json:"postData,omitempty"`
}

// PostUnpublished is raised when a post is withdrawn from view.
type PostUnpublished struct {
	PostID   int64 `json:"postId"`
	AuthorID int64 `json:"authorId"`
}

func (PostLiked) Kind() Kind       { return KindPostLiked }
func (PostUnliked) Kind() Kind     { return KindPostUnliked }
func (PostViewed) Kind() Kind      { return KindPostViewed }
func (PostCommented) Kind() Kind   { return KindPostCommented }
func (PostShared) Kind() Kind      { return KindPostShared }
func (PostBookmarked) Kind() Kind  { return KindPostBookmarked }
func (PostClicked) Kind() Kind     { return KindPostClicked }
func (PostCreated) Kind() Kind     { return KindPostCreated }
func (PostUpdated) Kind() Kind     { return KindPostUpdated }
func (PostDeleted) Kind() Kind     { return KindPostDeleted }
func (PostPublished) Kind() Kind   { return KindPostPublished }
func (PostUnpublished) Kind() Kind { return KindPostUnpublished }

func (o PostLiked) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishLike(ctx, o.UserID, o.PostID, o.Category)
}

func (o PostUnliked) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishUnlike(ctx, o.UserID, o.PostID)
}

func (o PostViewed) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishView(ctx, o.UserID, o.PostID, o.DurationSeconds, o.Category)
}

func (o PostCommented) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishComment(ctx, o.UserID, o.PostID, o.CommentID, o.Category)
}

func (o PostShared) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishShare(ctx, o.UserID, o.PostID, o.Platform, o.Category)
}

func (o PostBookmarked) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishBookmark(ctx, o.UserID, o.PostID, o.Category)
}

func (o PostClicked) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishClick(ctx, o.UserID, o.PostID, o.Source)
}

func (o PostCreated) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishPostCreated(ctx, o.PostID, o.AuthorID, o.PostData)
}

func (o PostUpdated) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishPostUpdated(ctx, o.PostID, o.AuthorID, o.PostData)
}

func (o PostDeleted) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishPostDeleted(ctx, o.PostID, o.AuthorID)
}

func (o PostPublished) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishPostPublished(ctx, o.PostID, o.AuthorID, o.PostData)
}

func (o PostUnpublished) publish(ctx context.Context, p *events.Publisher) bool {
	return p.PublishPostUnpublished(ctx, o.PostID, o.AuthorID)
}

var registry = map[Kind]func() Occurrence{
	KindPostLiked:       func() Occurrence { return &PostLiked{} },
	KindPostUnliked:     func() Occurrence { return &PostUnliked{} },
	KindPostViewed:      func() Occurrence { return &PostViewed{} },
	KindPostCommented:   func() Occurrence { return &PostCommented{} },
	KindPostShared:      func() Occurrence { return &PostShared{} },
	KindPostBookmarked:  func() Occurrence { return &PostBookmarked{} },
	KindPostClicked:     func() Occurrence { return &PostClicked{} },
	KindPostCreated:     func() Occurrence { return &PostCreated{} },
	KindPostUpdated:     func() Occurrence { return &PostUpdated{} },
	KindPostDeleted:     func() Occurrence { return &PostDeleted{} },
	KindPostPublished:   func() Occurrence { return &PostPublished{} },
	KindPostUnpublished: func() Occurrence { return &PostUnpublished{} },
}

// Kinds returns every registered occurrence kind.
func Kinds() []Kind {
	return []Kind{
		KindPostLiked, KindPostUnliked, KindPostViewed, KindPostCommented,
		KindPostShared, KindPostBookmarked, KindPostClicked, KindPostCreated,
		KindPostUpdated, KindPostDeleted, KindPostPublished, KindPostUnpublished,
	}
}

// Decode parses an occurrence of the given kind. Unknown JSON fields are
// rejected so a misrouted body fails loudly.
func Decode(kind Kind, payload []byte) (Occurrence, error) {
	newOcc, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	occ := newOcc()
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(occ); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, kind, err)
	}
	return occ, nil
}

// Publish delivers o through p immediately, bypassing the queue. It reports
// whether the event reached the broker.
func Publish(ctx context.Context, p *events.Publisher, o Occurrence) bool {
	return o.publish(ctx, p)
}
