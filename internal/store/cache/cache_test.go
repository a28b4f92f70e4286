package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ayia-hosni/study-sync-backend/internal/model"
	"github.com/ayia-hosni/study-sync-backend/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeStore serves fixed posts and users and counts calls.
type fakeStore struct {
	mu        sync.Mutex
	posts     map[int64]*model.Post
	users     map[int64]*model.User
	postCalls int
	userCalls int
	batchIDs  [][]int64
	closed    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts: map[int64]*model.Post{
			1: {ID: 1, Title: "A", Tags: []string{"go"}},
			2: {ID: 2, Title: "B", Tags: []string{}},
		},
		users: map[int64]*model.User{
			4: {ID: 4, Name: "Grace", Interests: []string{}, FollowedCategories: []string{}, FollowedUserIDs: []int64{7}},
		},
	}
}

func (f *fakeStore) GetPost(_ context.Context, id int64) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postCalls++
	p, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, store.ErrNotFound)
	}
	return p, nil
}

func (f *fakeStore) GetPosts(_ context.Context, ids []int64) ([]*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchIDs = append(f.batchIDs, ids)
	out := []*model.Post{}
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { f.closed = true; return nil }

func newCachedStore(t *testing.T) (*Store, *fakeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	next := newFakeStore()
	return New(next, rdb, time.Minute, discard), next, mr
}

func TestGetPost_HitSkipsStore(t *testing.T) {
	s, next, mr := newCachedStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := s.GetPost(ctx, 1)
		if err != nil {
			t.Fatalf("GetPost: %v", err)
		}
		if p.Title != "A" || len(p.Tags) != 1 {
			t.Errorf("post = %+v", p)
		}
	}
	if next.postCalls != 1 {
		t.Errorf("store calls = %d, want 1", next.postCalls)
	}
	if !mr.Exists("studysync:post:1") {
		t.Error("post not cached")
	}
	if ttl := mr.TTL("studysync:post:1"); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
}

func TestGetPost_NotFoundNotCached(t *testing.T) {
	s, next, mr := newCachedStore(t)
	for i := 0; i < 2; i++ {
		if _, err := s.GetPost(context.Background(), 999); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if next.postCalls != 2 {
		t.Errorf("store calls = %d, want 2", next.postCalls)
	}
	if mr.Exists("studysync:post:999") {
		t.Error("miss was cached")
	}
}

func TestGetPosts_MixesHitsAndMisses(t *testing.T) {
	s, next, _ := newCachedStore(t)
	ctx := context.Background()

	if _, err := s.GetPost(ctx, 1); err != nil {
		t.Fatal(err)
	}
	posts, err := s.GetPosts(ctx, []int64{1, 2, 999})
	if err != nil {
		t.Fatalf("GetPosts: %v", err)
	}
	var ids []int64
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("ids = %v, want [1 2]", ids)
	}
	if len(next.batchIDs) != 1 || len(next.batchIDs[0]) != 2 {
		t.Errorf("store batch calls = %v, want one call for [2 999]", next.batchIDs)
	}

	if _, err := s.GetPosts(ctx, []int64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if len(next.batchIDs) != 1 {
		t.Errorf("store batch calls = %d, want 1 after full hit", len(next.batchIDs))
	}
}

func TestGetUser_Cached(t *testing.T) {
	s, next, _ := newCachedStore(t)
	for i := 0; i < 2; i++ {
		u, err := s.GetUser(context.Background(), 4)
		if err != nil {
			t.Fatal(err)
		}
		if u.Name != "Grace" || len(u.FollowedUserIDs) != 1 {
			t.Errorf("user = %+v", u)
		}
	}
	if next.userCalls != 1 {
		t.Errorf("store calls = %d, want 1", next.userCalls)
	}
}

func TestUnreachableRedisFallsThrough(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	next := newFakeStore()
	s := New(next, rdb, time.Minute, discard)
	ctx := context.Background()

	if p, err := s.GetPost(ctx, 1); err != nil || p.ID != 1 {
		t.Fatalf("GetPost = %+v, %v", p, err)
	}
	if posts, err := s.GetPosts(ctx, []int64{1, 2}); err != nil || len(posts) != 2 {
		t.Fatalf("GetPosts = %d posts, %v", len(posts), err)
	}
	if u, err := s.GetUser(ctx, 4); err != nil || u.ID != 4 {
		t.Fatalf("GetUser = %+v, %v", u, err)
	}
}

func TestInvalidateAndClose(t *testing.T) {
	s, next, mr := newCachedStore(t)
	ctx := context.Background()
	if _, err := s.GetPost(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate(ctx, 2); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists("studysync:post:2") {
		t.Error("entry survived invalidation")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !next.closed {
		t.Error("wrapped store not closed")
	}
}

func TestEvictor(t *testing.T) {
	s, _, mr := newCachedStore(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		if _, err := s.GetPost(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	e := NewEvictor(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer e.Close()
	if err := e.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate(): %v", err)
	}
	if err := e.Invalidate(ctx, 1); err != nil {
		t.Fatalf("Invalidate(1): %v", err)
	}
	if mr.Exists("studysync:post:1") {
		t.Error("post 1 survived eviction")
	}
	if !mr.Exists("studysync:post:2") {
		t.Error("post 2 evicted without being named")
	}

	down := NewEvictor(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))
	defer down.Close()
	if err := down.Invalidate(ctx, 2); err == nil {
		t.Error("Invalidate succeeded with Redis down")
	}
}
