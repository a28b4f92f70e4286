package model

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestEmptyPostSnapshot(t *testing.T) {
	s := EmptyPostSnapshot()
	if !s.IsEmpty() {
		t.Errorf("EmptyPostSnapshot() = %+v, not empty", s)
	}
	if s.Tags == nil {
		t.Error("Tags must be an empty list, not nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":0,"title":"","content":"","category":"","authorId":0,"authorName":"","createdAt":"","tags":[],"likeCount":0,"commentCount":0,"viewCount":0,"isPublished":false}`
	if string(b) != want {
		t.Errorf("json = %s\nwant  %s", b, want)
	}
}

func TestPostSnapshot(t *testing.T) {
	created := time.Date(2025, 11, 3, 20, 18, 59, 0, time.FixedZone("CET", 3600))
	tests := []struct {
		name string
		post Post
		want PostSnapshot
	}{
		{
			name: "full",
			post: Post{
				ID: 1, Title: "Limits", Content: "...", Category: "math", AuthorID: 9, AuthorName: "Ada",
				CreatedAt: &created, Tags: []string{"calculus"}, LikeCount: 3, CommentCount: 2, ViewCount: 40, IsPublished: true,
			},
			want: PostSnapshot{
				ID: 1, Title: "Limits", Content: "...", Category: "math", AuthorID: 9, AuthorName: "Ada",
				CreatedAt: "2025-11-03T19:18:59Z", Tags: []string{"calculus"}, LikeCount: 3, CommentCount: 2, ViewCount: 40, IsPublished: true,
			},
		},
		{
			name: "missing relations",
			post: Post{ID: 2, Title: "Draft"},
			want: PostSnapshot{ID: 2, Title: "Draft", Tags: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.post.Snapshot(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Snapshot() = %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestEmptyUserProfileSnapshot(t *testing.T) {
	s := EmptyUserProfileSnapshot()
	if s.ID != 0 || s.Name != "" || s.Email != "" {
		t.Errorf("identity fields not empty: %+v", s)
	}
	if s.Interests == nil || s.FollowedCategories == nil || s.FollowedUserIDs == nil {
		t.Errorf("lists must be non-nil: %+v", s)
	}
	if s.PreferredLanguage != "en" || s.Timezone != "UTC" {
		t.Errorf("defaults = %q/%q, want en/UTC", s.PreferredLanguage, s.Timezone)
	}
}

func TestUserSnapshot(t *testing.T) {
	u := User{ID: 4, Name: "Grace", Email: "g@example.com", FollowedUserIDs: []int64{7, 8}}
	got := u.Snapshot()
	want := UserProfileSnapshot{
		ID: 4, Name: "Grace", Email: "g@example.com",
		Interests: []string{}, FollowedCategories: []string{}, FollowedUserIDs: []int64{7, 8},
		PreferredLanguage: "en", Timezone: "UTC",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %+v\nwant %+v", got, want)
	}

	u.PreferredLanguage, u.Timezone = "fr", "Europe/Paris"
	if s := u.Snapshot(); s.PreferredLanguage != "fr" || s.Timezone != "Europe/Paris" {
		t.Errorf("stored preferences not kept: %+v", s)
	}
}
