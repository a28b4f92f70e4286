// Package cache fronts a store.Store with a Redis read-through cache of
// resolved posts and users. Redis is best-effort: any cache error falls
// through to the wrapped store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ayia-hosni/study-sync-backend/internal/model"
	"github.com/ayia-hosni/study-sync-backend/internal/store"
)

const keyPrefix = "studysync:"

// Store wraps another store.Store with Redis caching. Misses are not cached.
type Store struct {
	next   store.Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to the Redis server at url (redis://host:port/db).
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// New wraps next. A zero ttl defaults to five minutes.
func New(next store.Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func postKey(id int64) string { return keyPrefix + "post:" + strconv.FormatInt(id, 10) }
func userKey(id int64) string { return keyPrefix + "user:" + strconv.FormatInt(id, 10) }

func (s *Store) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post
	if s.load(ctx, postKey(id), &p) {
		return &p, nil
	}
	post, err := s.next.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	s.save(ctx, postKey(id), post)
	return post, nil
}

func (s *Store) GetPosts(ctx context.Context, ids []int64) ([]*model.Post, error) {
	if len(ids) == 0 {
		return s.next.GetPosts(ctx, ids)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = postKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		s.logger.Warn("cache mget failed, reading through", "keys", len(keys), "error", err)
		return s.fetchPosts(ctx, ids)
	}

	posts := make([]*model.Post, 0, len(ids))
	var missing []int64
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var p model.Post
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		posts = append(posts, &p)
	}
	if len(missing) == 0 {
		return posts, nil
	}
	fetched, err := s.fetchPosts(ctx, missing)
	if err != nil {
		return nil, err
	}
	return append(posts, fetched...), nil
}

func (s *Store) fetchPosts(ctx context.Context, ids []int64) ([]*model.Post, error) {
	posts, err := s.next.GetPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}
	pipe := s.rdb.Pipeline()
	for _, p := range posts {
		b, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(ctx, postKey(p.ID), b, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Debug("cache fill failed", "posts", len(posts), "error", err)
	}
	return posts, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if s.load(ctx, userKey(id), &u) {
		return &u, nil
	}
	user, err := s.next.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.save(ctx, userKey(id), user)
	return user, nil
}

// Invalidate drops cached entries for the given posts.
func (s *Store) Invalidate(ctx context.Context, postIDs ...int64) error {
	return evict(ctx, s.rdb, postIDs)
}

func evict(ctx context.Context, rdb *redis.Client, postIDs []int64) error {
	if len(postIDs) == 0 {
		return nil
	}
	keys := make([]string, len(postIDs))
	for i, id := range postIDs {
		keys[i] = postKey(id)
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("evicting %d cached posts: %w", len(keys), err)
	}
	return nil
}

// Evictor drops cached posts for a process that publishes changes but does
// not serve reads, such as a standalone worker.
type Evictor struct {
	rdb *redis.Client
}

// NewEvictor evicts from the cache behind rdb.
func NewEvictor(rdb *redis.Client) *Evictor { return &Evictor{rdb: rdb} }

func (e *Evictor) Invalidate(ctx context.Context, postIDs ...int64) error {
	return evict(ctx, e.rdb, postIDs)
}

// Close closes the Redis client.
func (e *Evictor) Close() error { return e.rdb.Close() }

func (s *Store) load(ctx context.Context, key string, dst any) bool {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed, reading through", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		s.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
		s.logger.Debug("cache write failed", "key", key, "error", err)
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the Redis client and the wrapped store.
func (s *Store) Close() error {
	return errors.Join(s.rdb.Close(), s.next.Close())
}
