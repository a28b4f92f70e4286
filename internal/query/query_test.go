package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/ayia-hosni/study-sync-backend/internal/model"
	"github.com/ayia-hosni/study-sync-backend/internal/store"
)

type stubStore struct {
	posts    map[int64]*model.Post
	users    map[int64]*model.User
	err      error
	panicMsg string
	batches  [][]int64
}

func (s *stubStore) GetPost(_ context.Context, id int64) (*model.Post, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.posts[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("post %d: %w", id, store.ErrNotFound)
}

func (s *stubStore) GetPosts(_ context.Context, ids []int64) ([]*model.Post, error) {
	s.batches = append(s.batches, ids)
	if s.err != nil {
		return nil, s.err
	}
	var out []*model.Post
	// Reverse order to check the service restores request order.
	for i := len(ids) - 1; i >= 0; i-- {
		if p, ok := s.posts[ids[i]]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) GetUser(_ context.Context, id int64) (*model.User, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (s *stubStore) Ping(context.Context) error { return nil }
func (s *stubStore) Close() error               { return nil }

func newStub() *stubStore {
	return &stubStore{
		posts: map[int64]*model.Post{
			1: {ID: 1, Title: "One", Tags: []string{"a"}},
			2: {ID: 2, Title: "Two", Tags: []string{}},
		},
		users: map[int64]*model.User{
			4: {ID: 4, Name: "Grace", Interests: []string{"math"}, FollowedCategories: []string{}, FollowedUserIDs: []int64{}},
		},
	}
}

// newTestService returns a service logging JSON lines to buf.
func newTestService(t *testing.T, st store.Store) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewService(st, logger, nil), &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestGetPostInfo(t *testing.T) {
	tests := []struct {
		name      string
		store     *stubStore
		id        int64
		wantTitle string
		wantLevel string
	}{
		{"found", newStub(), 1, "One", "DEBUG"},
		{"missing", newStub(), 999, "", "WARN"},
		{"store error", &stubStore{err: errors.New("connection refused")}, 1, "", "ERROR"},
		{"panic", &stubStore{panicMsg: "nil relation"}, 1, "", "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, buf := newTestService(t, tt.store)
			got := svc.GetPostInfo(context.Background(), tt.id)
			if got.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.Title, tt.wantTitle)
			}
			if tt.wantTitle == "" && !reflect.DeepEqual(got, model.EmptyPostSnapshot()) {
				t.Errorf("snapshot = %+v, want empty", got)
			}
			lines := logLines(t, buf)
			if len(lines) != 1 || lines[0]["level"] != tt.wantLevel {
				t.Errorf("logs = %v, want one %s line", lines, tt.wantLevel)
			}
		})
	}
}

func TestLookupPost_ErrorKinds(t *testing.T) {
	svc, _ := newTestService(t, newStub())
	_, qerr := svc.LookupPost(context.Background(), 999)
	if qerr == nil || qerr.Kind != KindNotFound || qerr.ID != 999 || qerr.Op != "GetPostInfo" {
		t.Fatalf("qerr = %+v", qerr)
	}
	if !errors.Is(qerr, store.ErrNotFound) {
		t.Error("QueryError does not unwrap to store.ErrNotFound")
	}

	svc, _ = newTestService(t, &stubStore{panicMsg: "boom"})
	_, qerr = svc.LookupPost(context.Background(), 1)
	if qerr == nil || qerr.Kind != KindInternal || !strings.Contains(qerr.Error(), "boom") {
		t.Fatalf("qerr = %v", qerr)
	}
}

func TestGetBatchPostInfo(t *testing.T) {
	st := newStub()
	svc, buf := newTestService(t, st)

	got := svc.GetBatchPostInfo(context.Background(), []int64{1, 2, 999})
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("snapshots = %+v, want posts 1 and 2 in request order", got)
	}
	if len(st.batches) != 1 {
		t.Errorf("store calls = %d, want 1", len(st.batches))
	}
	lines := logLines(t, buf)
	if len(lines) != 1 || lines[0]["requested"] != float64(3) || lines[0]["found"] != float64(2) {
		t.Errorf("log = %v, want requested=3 found=2", lines)
	}
}

func TestGetBatchPostInfo_DuplicatesAndOrder(t *testing.T) {
	st := newStub()
	svc, _ := newTestService(t, st)

	got := svc.GetBatchPostInfo(context.Background(), []int64{2, 1, 2})
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("snapshots = %+v, want [2 1]", got)
	}
	if !reflect.DeepEqual(st.batches[0], []int64{2, 1}) {
		t.Errorf("store ids = %v, want [2 1]", st.batches[0])
	}
}

func TestGetBatchPostInfo_EmptyAndError(t *testing.T) {
	st := newStub()
	svc, _ := newTestService(t, st)
	if got := svc.GetBatchPostInfo(context.Background(), nil); got == nil || len(got) != 0 {
		t.Errorf("empty request = %v", got)
	}
	if len(st.batches) != 0 {
		t.Error("store queried for empty request")
	}

	svc, buf := newTestService(t, &stubStore{err: errors.New("timeout")})
	if got := svc.GetBatchPostInfo(context.Background(), []int64{1}); got == nil || len(got) != 0 {
		t.Errorf("failed lookup = %v, want empty list", got)
	}
	if lines := logLines(t, buf); len(lines) != 1 || lines[0]["level"] != "ERROR" {
		t.Errorf("logs = %v", lines)
	}
}

func TestGetUserProfile(t *testing.T) {
	svc, _ := newTestService(t, newStub())

	got := svc.GetUserProfile(context.Background(), 4)
	if got.Name != "Grace" || got.PreferredLanguage != "en" || got.Timezone != "UTC" {
		t.Errorf("profile = %+v", got)
	}

	missing := svc.GetUserProfile(context.Background(), 5)
	if !reflect.DeepEqual(missing, model.EmptyUserProfileSnapshot()) {
		t.Errorf("missing profile = %+v, want empty", missing)
	}

	svc, _ = newTestService(t, &stubStore{panicMsg: "bad row"})
	if got := svc.GetUserProfile(context.Background(), 4); !reflect.DeepEqual(got, model.EmptyUserProfileSnapshot()) {
		t.Errorf("panicking lookup = %+v, want empty", got)
	}
}
