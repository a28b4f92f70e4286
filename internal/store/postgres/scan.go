package postgres

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/ayia-hosni/study-sync-backend/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanPost scans a single row into a model.Post.
// The row must contain columns in the order defined by postSelect.
func scanPost(row scannable) (*model.Post, error) {
	var p model.Post
	var (
		createdAt sql.NullTime
		tags      pq.StringArray
	)

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.Category,
		&p.AuthorID,
		&p.AuthorName,
		&createdAt,
		&tags,
		&p.LikeCount,
		&p.CommentCount,
		&p.ViewCount,
		&p.IsPublished,
	)
	if err != nil {
		return nil, err
	}

	if createdAt.Valid {
		t := createdAt.Time
		p.CreatedAt = &t
	}
	p.Tags = []string(tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

// scanUser scans a single row into a model.User.
// The row must contain columns in the order defined by userSelect.
func scanUser(row scannable) (*model.User, error) {
	var u model.User
	var (
		interests  pq.StringArray
		categories pq.StringArray
		followed   pq.Int64Array
	)

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&interests,
		&categories,
		&followed,
		&u.PreferredLanguage,
		&u.Timezone,
	)
	if err != nil {
		return nil, err
	}

	u.Interests = []string(interests)
	if u.Interests == nil {
		u.Interests = []string{}
	}
	u.FollowedCategories = []string(categories)
	if u.FollowedCategories == nil {
		u.FollowedCategories = []string{}
	}
	u.FollowedUserIDs = []int64(followed)
	if u.FollowedUserIDs == nil {
		u.FollowedUserIDs = []int64{}
	}
	return &u, nil
}
