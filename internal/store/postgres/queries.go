package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ayia-hosni/study-sync-backend/internal/model"
)

// postSelect resolves the author name and tags for each post. Tags come from
// the post_tags relation, falling back to the denormalized posts.tags column.
const postSelect = `SELECT p.id, p.title, p.content, COALESCE(p.category, ''),
	COALESCE(p.author_id, 0), COALESCE(u.name, ''), p.created_at,
	COALESCE(
		(SELECT array_agg(t.name ORDER BY t.name) FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = p.id),
		p.tags, '{}'
	) AS tags,
	p.likes_count, p.comments_count, p.views_count, p.is_published
	FROM posts p LEFT JOIN users u ON u.id = p.author_id`

// userSelect resolves interests, followed categories and followed user IDs.
// Interests fall back to the denormalized users.interests column.
const userSelect = `SELECT u.id, u.name, u.email,
	COALESCE(
		(SELECT array_agg(i.name ORDER BY i.name) FROM user_interests ui JOIN interests i ON i.id = ui.interest_id WHERE ui.user_id = u.id),
		u.interests, '{}'
	) AS interests,
	COALESCE(
		(SELECT array_agg(c.name ORDER BY c.name) FROM user_followed_categories fc JOIN categories c ON c.id = fc.category_id WHERE fc.user_id = u.id),
		'{}'
	) AS followed_categories,
	COALESCE(
		(SELECT array_agg(f.followed_id ORDER BY f.followed_id) FROM follows f WHERE f.follower_id = u.id),
		'{}'
	) AS followed_user_ids,
	COALESCE(u.preferred_language, ''), COALESCE(u.timezone, '')
	FROM users u`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryGetPost(ctx context.Context, db executor, id int64) (*model.Post, error) {
	row := db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id)
	return scanPost(row)
}

func queryGetPosts(ctx context.Context, db executor, ids []int64) ([]*model.Post, error) {
	rows, err := db.QueryContext(ctx, postSelect+` WHERE p.id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func queryGetUser(ctx context.Context, db executor, id int64) (*model.User, error) {
	row := db.QueryRowContext(ctx, userSelect+` WHERE u.id = $1`, id)
	return scanUser(row)
}
