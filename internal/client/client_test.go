package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	recommendationv1 "github.com/ayia-hosni/study-sync-backend/api/recommendation/v1"
	"github.com/ayia-hosni/study-sync-backend/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// fakeDetailServer answers from fixed data and records the last token seen.
type fakeDetailServer struct {
	recommendationv1.UnimplementedPostDetailServiceServer
	mu   sync.Mutex
	auth string
}

func (f *fakeDetailServer) record(ctx context.Context) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("authorization"); len(v) > 0 {
			f.mu.Lock()
			f.auth = v[0]
			f.mu.Unlock()
		}
	}
}

func (f *fakeDetailServer) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeDetailServer) GetPostInfo(ctx context.Context, req *recommendationv1.PostRequest) (*recommendationv1.PostResponse, error) {
	f.record(ctx)
	if req.PostId != 1 {
		return &recommendationv1.PostResponse{}, nil
	}
	return &recommendationv1.PostResponse{Id: 1, Title: "Limits", Tags: []string{"calculus"}, LikeCount: 3}, nil
}

func (f *fakeDetailServer) GetBatchPostInfo(ctx context.Context, req *recommendationv1.BatchPostRequest) (*recommendationv1.BatchPostResponse, error) {
	f.record(ctx)
	resp := &recommendationv1.BatchPostResponse{}
	for _, id := range req.PostIds {
		resp.Posts = append(resp.Posts, &recommendationv1.PostResponse{Id: id})
	}
	return resp, nil
}

func (f *fakeDetailServer) GetUserProfile(ctx context.Context, req *recommendationv1.UserProfileRequest) (*recommendationv1.UserProfileResponse, error) {
	f.record(ctx)
	return &recommendationv1.UserProfileResponse{Id: req.UserId, Name: "Grace", PreferredLanguage: "en", Timezone: "UTC"}, nil
}

func startFakeGRPC(t *testing.T, token string) (*GRPCClient, *fakeDetailServer) {
	t.Helper()
	fake := &fakeDetailServer{}
	srv := grpc.NewServer(grpc.ForceServerCodec(recommendationv1.Codec{}))
	recommendationv1.RegisterPostDetailServiceServer(srv, fake)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGRPCClient(lis.Addr().String(), Options{Token: token})
	if err != nil {
		t.Fatalf("NewGRPCClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}

func TestGRPCClient_GetPost(t *testing.T) {
	c, fake := startFakeGRPC(t, "secret")

	got, err := c.GetPost(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Limits" || got.LikeCount != 3 || !reflect.DeepEqual(got.Tags, []string{"calculus"}) {
		t.Errorf("post = %+v", got)
	}
	if got := fake.lastAuth(); got != "Bearer secret" {
		t.Errorf("authorization = %q, want Bearer secret", got)
	}

	missing, err := c.GetPost(context.Background(), 404)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(missing, model.EmptyPostSnapshot()) {
		t.Errorf("missing post = %+v, want empty snapshot", missing)
	}
}

func TestGRPCClient_GetPostsAndUser(t *testing.T) {
	c, fake := startFakeGRPC(t, "")

	posts, err := c.GetPosts(context.Background(), []int64{5, 6})
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 || posts[0].ID != 5 || posts[1].ID != 6 {
		t.Errorf("posts = %+v", posts)
	}

	u, err := c.GetUser(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	want := model.UserProfileSnapshot{
		ID: 4, Name: "Grace", Interests: []string{}, FollowedCategories: []string{},
		FollowedUserIDs: []int64{}, PreferredLanguage: "en", Timezone: "UTC",
	}
	if !reflect.DeepEqual(u, want) {
		t.Errorf("user:\n got  %+v\n want %+v", u, want)
	}
	if got := fake.lastAuth(); got != "" {
		t.Errorf("unexpected authorization %q", got)
	}
}

// testHandler captures the incoming request and returns a canned response.
type testHandler struct {
	method      string
	path        string
	body        string
	contentType string
	auth        string

	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.contentType = r.Header.Get("Content-Type")
	h.auth = r.Header.Get("Authorization")
	data, _ := io.ReadAll(r.Body)
	h.body = string(data)

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	}
	_, _ = w.Write([]byte(h.responseBody))
}

func newTestClient(t *testing.T, h http.Handler, token string) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", Options{Token: token})
}

func TestHTTPClient_Emit(t *testing.T) {
	h := &testHandler{statusCode: http.StatusAccepted, responseBody: `{"status":"accepted","kind":"post.liked"}`}
	c := newTestClient(t, h, "secret")

	if err := c.Emit(context.Background(), "post.liked", []byte(`{"userId":1,"postId":2}`)); err != nil {
		t.Fatal(err)
	}
	if h.method != http.MethodPost || h.path != "/v1/occurrences/post.liked" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.body != `{"userId":1,"postId":2}` {
		t.Errorf("body = %s", h.body)
	}
	if h.contentType != "application/json" || h.auth != "Bearer secret" {
		t.Errorf("headers: content-type %q, authorization %q", h.contentType, h.auth)
	}
}

func TestHTTPClient_EmitStruct(t *testing.T) {
	h := &testHandler{statusCode: http.StatusAccepted, responseBody: `{}`}
	c := newTestClient(t, h, "")

	body := struct {
		UserID int64 `json:"userId"`
		PostID int64 `json:"postId"`
	}{3, 10}
	if err := c.Emit(context.Background(), "post.unliked", body); err != nil {
		t.Fatal(err)
	}
	if h.body != `{"userId":3,"postId":10}` {
		t.Errorf("body = %s", h.body)
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json error", http.StatusBadRequest, `{"error":"unknown occurrence kind: \"post.reacted\""}`, `unknown occurrence kind: "post.reacted"`},
		{"plain body", http.StatusServiceUnavailable, "queue closed", "queue closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &testHandler{statusCode: tt.status, responseBody: tt.body}, "")
			err := c.Emit(context.Background(), "post.reacted", []byte(`{}`))
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.wantMsg {
				t.Errorf("got %d %q, want %d %q", apiErr.StatusCode, apiErr.Message, tt.status, tt.wantMsg)
			}
		})
	}
}

func TestHTTPClient_EmitInvalidJSON(t *testing.T) {
	c := newTestClient(t, &testHandler{}, "")
	if err := c.Emit(context.Background(), "post.liked", []byte(`{"userId":`)); err == nil {
		t.Fatal("expected marshal error for invalid raw JSON")
	}
}

func TestHTTPClient_Health(t *testing.T) {
	h := &testHandler{responseBody: `{"status":"ok"}`}
	c := newTestClient(t, h, "")

	got, err := c.Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" || h.path != "/v1/health" {
		t.Errorf("status %q from %s", got, h.path)
	}
}
