// Package model holds the stored post and user records and the snapshots
// projected from them for the recommendation service.
package model

import "time"

// Post is a stored post with its author and relations resolved. The store
// always returns Tags non-nil.
type Post struct {
	ID           int64
	Title        string
	Content      string
	Category     string
	AuthorID     int64
	AuthorName   string
	CreatedAt    *time.Time
	Tags         []string
	LikeCount    int64
	CommentCount int64
	ViewCount    int64
	IsPublished  bool
}

// PostSnapshot is the read-only projection of a post served to the
// recommendation service. Every field has a well-defined empty value.
type PostSnapshot struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Category     string   `json:"category"`
	AuthorID     int64    `json:"authorId"`
	AuthorName   string   `json:"authorName"`
	CreatedAt    string   `json:"createdAt"`
	Tags         []string `json:"tags"`
	LikeCount    int64    `json:"likeCount"`
	CommentCount int64    `json:"commentCount"`
	ViewCount    int64    `json:"viewCount"`
	IsPublished  bool     `json:"isPublished"`
}

// EmptyPostSnapshot returns the snapshot served for a missing post.
func EmptyPostSnapshot() PostSnapshot {
	return PostSnapshot{Tags: []string{}}
}

// IsEmpty reports whether s is the empty snapshot.
func (s PostSnapshot) IsEmpty() bool {
	return s.ID == 0 && s.Title == "" && s.Content == "" && s.Category == "" &&
		s.AuthorID == 0 && s.AuthorName == "" && s.CreatedAt == "" && len(s.Tags) == 0 &&
		s.LikeCount == 0 && s.CommentCount == 0 && s.ViewCount == 0 && !s.IsPublished
}

// Snapshot projects p. CreatedAt is RFC 3339 in UTC, or "" when unset.
func (p *Post) Snapshot() PostSnapshot {
	s := PostSnapshot{
		ID:           p.ID,
		Title:        p.Title,
		Content:      p.Content,
		Category:     p.Category,
		AuthorID:     p.AuthorID,
		AuthorName:   p.AuthorName,
		Tags:         p.Tags,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		ViewCount:    p.ViewCount,
		IsPublished:  p.IsPublished,
	}
	if p.CreatedAt != nil {
		s.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return s
}
