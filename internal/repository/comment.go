package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"freets-backend/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment. Runs inside the caller's transaction so the
// freet's comment_count update stays atomic with the insert.
func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, freetID, userID int64, content string) (*model.Comment, error) {
	query := `
		INSERT INTO freet_comments (freet_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, freet_id, user_id, content, created_at
	`
	var comment model.Comment
	err := tx.GetContext(ctx, &comment, query, freetID, userID, content)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// Update updates a comment's content. Only the owner can update.
func (r *commentRepository) Update(ctx context.Context, commentID, userID int64, content string) (*model.Comment, error) {
	query := `
		UPDATE freet_comments
		SET content = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id, freet_id, user_id, content, created_at
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, content, commentID, userID)
	if err == sql.ErrNoRows {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM freet_comments WHERE id = $1)`, commentID)
		if exists {
			return nil, model.ErrNotCommentOwner
		}
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

// Delete removes a comment, verifying ownership first. Returns the freet id
// so the caller can decrement its comment_count in the same transaction.
func (r *commentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) (int64, error) {
	var comment struct {
		FreetID int64 `db:"freet_id"`
		UserID  int64 `db:"user_id"`
	}
	err := tx.GetContext(ctx, &comment, `
		SELECT freet_id, user_id FROM freet_comments WHERE id = $1
	`, commentID)
	if err == sql.ErrNoRows {
		return 0, model.ErrCommentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get comment: %w", err)
	}

	if comment.UserID != userID {
		return 0, model.ErrNotCommentOwner
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM freet_comments WHERE id = $1`, commentID)
	if err != nil {
		return 0, fmt.Errorf("delete comment: %w", err)
	}

	return comment.FreetID, nil
}

// GetByFreetID returns paginated comments for a freet with authors joined in.
func (r *commentRepository) GetByFreetID(ctx context.Context, freetID int64, cursor *string, limit int) ([]model.Comment, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT c.id, c.freet_id, c.user_id, c.content, c.created_at,
			       u.id as "author.id", u.username as "author.username",
			       u.display_name as "author.display_name", u.avatar_url as "author.avatar_url"
			FROM freet_comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.freet_id = $1
			ORDER BY c.created_at DESC, c.id DESC
			LIMIT $2
		`
		args = []interface{}{freetID, limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT c.id, c.freet_id, c.user_id, c.content, c.created_at,
			       u.id as "author.id", u.username as "author.username",
			       u.display_name as "author.display_name", u.avatar_url as "author.avatar_url"
			FROM freet_comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.freet_id = $1 AND (c.created_at, c.id) < ($2, $3)
			ORDER BY c.created_at DESC, c.id DESC
			LIMIT $4
		`
		args = []interface{}{freetID, ts, id, limit + 1}
	}

	type commentRow struct {
		ID             int64     `db:"id"`
		FreetID        int64     `db:"freet_id"`
		UserID         int64     `db:"user_id"`
		Content        string    `db:"content"`
		CreatedAt      time.Time `db:"created_at"`
		AuthorID       int64     `db:"author.id"`
		AuthorUsername string    `db:"author.username"`
		AuthorDisplay  *string   `db:"author.display_name"`
		AuthorAvatar   *string   `db:"author.avatar_url"`
	}

	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = model.Comment{
			ID:        row.ID,
			FreetID:   row.FreetID,
			UserID:    row.UserID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
			Author: &model.UserSummary{
				ID:          row.AuthorID,
				Username:    row.AuthorUsername,
				DisplayName: row.AuthorDisplay,
				AvatarURL:   row.AuthorAvatar,
			},
		}
	}

	var nextCursor *string
	if len(comments) > limit {
		comments = comments[:limit]
		last := comments[len(comments)-1]
		c := formatCursor(last.CreatedAt, last.ID)
		nextCursor = &c
	}

	return comments, nextCursor, nil
}

// GetByID retrieves a single comment.
func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `
		SELECT id, freet_id, user_id, content, created_at
		FROM freet_comments
		WHERE id = $1
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}
