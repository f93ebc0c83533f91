package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"studentmedia/internal/models"
)

const postColumns = `p.id, p.seq, p.user_id, p.content, p.image, p.tags, p.likes_count, p.comments_count, p.shares_count, p.created_at, p.updated_at`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}

	query := `
		INSERT INTO posts (id, user_id, content, image, tags, likes_count, comments_count, shares_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq
	`

	err := r.db.GetContext(ctx, &post.Seq, query,
		post.ID, post.UserID, post.Content, post.Image, post.Tags,
		post.LikesCount, post.CommentsCount, post.SharesCount,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

func (r *postRepository) GetPostByID(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post

	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`

	err := r.db.GetContext(ctx, &post, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &post, nil
}

func (r *postRepository) ListFeed(ctx context.Context, skip, limit int) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.seq ASC
		OFFSET $1 LIMIT $2
	`

	posts := []*models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, skip, limit); err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}

	return posts, nil
}

// escapeLike escapes the LIKE metacharacters so the query matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postRepository) SearchPosts(ctx context.Context, filter SearchFilter) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE ($1 = '' OR p.content ILIKE $2 OR EXISTS (SELECT 1 FROM unnest(p.tags) AS t(tag) WHERE t.tag ILIKE $2))
		AND ($3::text IS NULL OR u.department = $3)
		AND ($4::int IS NULL OR u.year = $4)
		ORDER BY p.created_at DESC, p.seq ASC
		LIMIT $5
	`

	pattern := "%" + escapeLike(filter.Query) + "%"

	posts := []*models.Post{}
	err := r.db.SelectContext(ctx, &posts, query,
		filter.Query, pattern, filter.Department, filter.Year, filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	return posts, nil
}

// toggleRelation flips the (post, user) row in table and, when counter is set,
// moves the post counter in the same transaction. The post row is locked so
// concurrent toggles on one post are serialised.
func (r *postRepository) toggleRelation(ctx context.Context, table, counter, postID, userID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedID string
	if err := tx.GetContext(ctx, &lockedID, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to lock post: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE post_id = $1 AND user_id = $2`, table),
		postID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove %s row: %w", table, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check removed rows: %w", err)
	}

	active := removed == 0
	delta := -1
	if active {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (post_id, user_id) VALUES ($1, $2)`, table),
			postID, userID,
		); err != nil {
			return false, fmt.Errorf("failed to insert %s row: %w", table, err)
		}
		delta = 1
	}

	if counter != "" {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE posts SET %[1]s = %[1]s + $1 WHERE id = $2`, counter),
			delta, postID,
		); err != nil {
			return false, fmt.Errorf("failed to update %s: %w", counter, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit toggle: %w", err)
	}

	return active, nil
}

func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	return r.toggleRelation(ctx, "post_likes", "likes_count", postID, userID)
}

func (r *postRepository) ToggleBookmark(ctx context.Context, postID, userID string) (bool, error) {
	return r.toggleRelation(ctx, "post_bookmarks", "", postID, userID)
}

func (r *postRepository) relationPostIDs(ctx context.Context, table, userID string, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var ids []string
	query := fmt.Sprintf(`SELECT post_id FROM %s WHERE user_id = $1 AND post_id = ANY($2)`, table)
	if err := r.db.SelectContext(ctx, &ids, query, userID, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	for _, id := range ids {
		result[id] = true
	}

	return result, nil
}

func (r *postRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	return r.relationPostIDs(ctx, "post_likes", userID, postIDs)
}

func (r *postRepository) BookmarkedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	return r.relationPostIDs(ctx, "post_bookmarks", userID, postIDs)
}

func (r *postRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedID string
	if err := tx.GetContext(ctx, &lockedID, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, comment.PostID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock post: %w", err)
	}

	query := `
		INSERT INTO comments (id, post_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`

	if err := tx.GetContext(ctx, &comment.Seq, query,
		comment.ID, comment.PostID, comment.UserID, comment.Content, comment.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`, comment.PostID,
	); err != nil {
		return fmt.Errorf("failed to update comments_count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit comment: %w", err)
	}

	return nil
}

func (r *postRepository) RecentComments(ctx context.Context, postIDs []string, n int) (map[string][]*models.Comment, error) {
	result := make(map[string][]*models.Comment, len(postIDs))
	if len(postIDs) == 0 || n <= 0 {
		return result, nil
	}

	query := `
		SELECT id, seq, post_id, user_id, content, created_at
		FROM (
			SELECT c.id, c.seq, c.post_id, c.user_id, c.content, c.created_at,
				ROW_NUMBER() OVER (PARTITION BY c.post_id ORDER BY c.created_at DESC, c.seq DESC) AS rn
			FROM comments c
			WHERE c.post_id = ANY($1)
		) ranked
		WHERE rn <= $2
		ORDER BY post_id, created_at DESC, seq DESC
	`

	var comments []*models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, pq.Array(postIDs), n); err != nil {
		return nil, fmt.Errorf("failed to get recent comments: %w", err)
	}

	for _, c := range comments {
		result[c.PostID] = append(result[c.PostID], c)
	}

	return result, nil
}
