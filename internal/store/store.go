package store

import (
	"context"
	"errors"

	"github.com/ayia-hosni/study-sync-backend/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Store is the read side the entity query service needs. Implementations
// return relations already resolved to plain lists, never nil.
type Store interface {
	// GetPost returns the post with its author name and tags, or ErrNotFound.
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	// GetPosts returns the posts that exist among ids, in no particular order.
	GetPosts(ctx context.Context, ids []int64) ([]*model.Post, error)
	// GetUser returns the user with interests, followed categories and
	// followed users, or ErrNotFound.
	GetUser(ctx context.Context, id int64) (*model.User, error)

	Ping(ctx context.Context) error
	Close() error
}
