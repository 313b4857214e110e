package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"freets-backend/internal/cache"
	"freets-backend/internal/model"
)

type freetRepository struct {
	db *sqlx.DB
}

func NewFreetRepository(db *sqlx.DB) FreetRepository {
	return &freetRepository{db: db}
}

// Create inserts a new freet and bumps the author's freet count in one transaction.
func (r *freetRepository) Create(ctx context.Context, authorID int64, content string, imageURLs []string) (*model.Freet, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if imageURLs == nil {
		imageURLs = []string{}
	}

	var freet model.Freet
	query := `
		INSERT INTO freets (author_id, content, image_urls)
		VALUES ($1, $2, $3)
		RETURNING id, author_id, content, image_urls, like_count, comment_count, created_at, updated_at
	`
	err = tx.GetContext(ctx, &freet, query, authorID, content, pq.Array(imageURLs))
	if err != nil {
		return nil, fmt.Errorf("insert freet: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET freet_count = freet_count + 1 WHERE id = $1`, authorID)
	if err != nil {
		return nil, fmt.Errorf("increment freet count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &freet, nil
}

func (r *freetRepository) GetByID(ctx context.Context, freetID int64) (*model.Freet, error) {
	query := `
		SELECT id, author_id, content, image_urls, like_count, comment_count, created_at, updated_at
		FROM freets
		WHERE id = $1 AND deleted_at IS NULL
	`
	var freet model.Freet
	err := r.db.GetContext(ctx, &freet, query, freetID)
	if err == sql.ErrNoRows {
		return nil, model.ErrFreetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get freet: %w", err)
	}

	return &freet, nil
}

// GetByIDs retrieves multiple freets, preserving the input order.
// Used for hydrating the feed from cache and album content from link rows.
func (r *freetRepository) GetByIDs(ctx context.Context, freetIDs []int64) ([]model.Freet, error) {
	if len(freetIDs) == 0 {
		return []model.Freet{}, nil
	}

	query := `
		SELECT id, author_id, content, image_urls, like_count, comment_count, created_at, updated_at
		FROM freets
		WHERE id = ANY($1) AND deleted_at IS NULL
	`
	var freets []model.Freet
	err := r.db.SelectContext(ctx, &freets, query, pq.Array(freetIDs))
	if err != nil {
		return nil, fmt.Errorf("get freets by ids: %w", err)
	}

	// Re-order to match input order (feed ordering, album add-order)
	freetsMap := make(map[int64]model.Freet, len(freets))
	for _, f := range freets {
		freetsMap[f.ID] = f
	}
	ordered := make([]model.Freet, 0, len(freetIDs))
	for _, id := range freetIDs {
		if f, ok := freetsMap[id]; ok {
			ordered = append(ordered, f)
		}
	}

	return ordered, nil
}

// Delete performs a soft delete, verifying authorship in the same statement.
func (r *freetRepository) Delete(ctx context.Context, freetID, authorID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE freets SET deleted_at = NOW()
		WHERE id = $1 AND author_id = $2 AND deleted_at IS NULL
	`, freetID, authorID)
	if err != nil {
		return fmt.Errorf("delete freet: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM freets WHERE id = $1 AND deleted_at IS NULL)`, freetID)
		if exists {
			return model.ErrNotFreetAuthor
		}
		return model.ErrFreetNotFound
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET freet_count = freet_count - 1 WHERE id = $1`, authorID)
	if err != nil {
		return fmt.Errorf("decrement freet count: %w", err)
	}

	return tx.Commit()
}

// Exists checks if a freet exists and is not deleted.
func (r *freetRepository) Exists(ctx context.Context, freetID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM freets WHERE id = $1 AND deleted_at IS NULL)`, freetID)
	if err != nil {
		return false, fmt.Errorf("check freet exists: %w", err)
	}
	return exists, nil
}

// GetAuthorID returns the author of a freet (for event publishing).
func (r *freetRepository) GetAuthorID(ctx context.Context, freetID int64) (int64, error) {
	var authorID int64
	err := r.db.GetContext(ctx, &authorID, `SELECT author_id FROM freets WHERE id = $1`, freetID)
	if err == sql.ErrNoRows {
		return 0, model.ErrFreetNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get author id: %w", err)
	}
	return authorID, nil
}

// GetUserFreets retrieves a user's freets for their profile, newest first,
// with a compound keyset cursor over (created_at, id).
func (r *freetRepository) GetUserFreets(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Freet, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT id, author_id, content, image_urls, like_count, comment_count, created_at, updated_at
			FROM freets
			WHERE author_id = $1 AND deleted_at IS NULL
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		args = []interface{}{userID, limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT id, author_id, content, image_urls, like_count, comment_count, created_at, updated_at
			FROM freets
			WHERE author_id = $1 AND deleted_at IS NULL
			  AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`
		args = []interface{}{userID, ts, id, limit + 1}
	}

	var freets []model.Freet
	err := r.db.SelectContext(ctx, &freets, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get user freets: %w", err)
	}

	var nextCursor *string
	if len(freets) > limit {
		freets = freets[:limit]
		last := freets[len(freets)-1]
		c := formatCursor(last.CreatedAt, last.ID)
		nextCursor = &c
	}

	return freets, nextCursor, nil
}

// GetRecentFreetsByUser returns a user's recent freets as scores for cache
// warming (follow backfill).
func (r *freetRepository) GetRecentFreetsByUser(ctx context.Context, userID int64, limit int) ([]cache.FreetScore, error) {
	query := `
		SELECT id, EXTRACT(EPOCH FROM created_at)::bigint as timestamp
		FROM freets
		WHERE author_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`
	type row struct {
		ID        int64 `db:"id"`
		Timestamp int64 `db:"timestamp"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent freets: %w", err)
	}

	freets := make([]cache.FreetScore, len(rows))
	for i, r := range rows {
		freets[i] = cache.FreetScore{FreetID: r.ID, Timestamp: r.Timestamp}
	}
	return freets, nil
}

// GetFeedFreetIDs returns freet ids from all followees for cache warming.
func (r *freetRepository) GetFeedFreetIDs(ctx context.Context, followeeIDs []int64, limit int) ([]cache.FreetScore, error) {
	if len(followeeIDs) == 0 {
		return []cache.FreetScore{}, nil
	}

	query := `
		SELECT id, EXTRACT(EPOCH FROM created_at)::bigint as timestamp
		FROM freets
		WHERE author_id = ANY($1) AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`
	type row struct {
		ID        int64 `db:"id"`
		Timestamp int64 `db:"timestamp"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, pq.Array(followeeIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("get feed freet ids: %w", err)
	}

	freets := make([]cache.FreetScore, len(rows))
	for i, r := range rows {
		freets[i] = cache.FreetScore{FreetID: r.ID, Timestamp: r.Timestamp}
	}
	return freets, nil
}

// Like inserts a like record. Reports false on a repeat like (idempotent).
func (r *freetRepository) Like(ctx context.Context, tx *sqlx.Tx, freetID, userID int64) (bool, error) {
	query := `
		INSERT INTO freet_likes (freet_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (freet_id, user_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, freetID, userID)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Unlike deletes a like record. Reports false when there was nothing to remove.
func (r *freetRepository) Unlike(ctx context.Context, tx *sqlx.Tx, freetID, userID int64) (bool, error) {
	query := `DELETE FROM freet_likes WHERE freet_id = $1 AND user_id = $2`
	result, err := tx.ExecContext(ctx, query, freetID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// CheckLikes batch-checks which freets the user has liked.
func (r *freetRepository) CheckLikes(ctx context.Context, userID int64, freetIDs []int64) (map[int64]bool, error) {
	if len(freetIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT freet_id FROM freet_likes WHERE user_id = $1 AND freet_id = ANY($2)`
	var likedIDs []int64
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, pq.Array(freetIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check likes: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range freetIDs {
		result[id] = false
	}
	for _, id := range likedIDs {
		result[id] = true
	}

	return result, nil
}

// GetFreetLikers returns paginated users who liked a freet.
func (r *freetRepository) GetFreetLikers(ctx context.Context, freetID int64, cursor *string, limit int) ([]model.UserSummary, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT u.id, u.username, u.display_name, u.avatar_url
			FROM freet_likes fl
			JOIN users u ON u.id = fl.user_id
			WHERE fl.freet_id = $1
			ORDER BY fl.created_at DESC, fl.user_id DESC
			LIMIT $2
		`
		args = []interface{}{freetID, limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT u.id, u.username, u.display_name, u.avatar_url
			FROM freet_likes fl
			JOIN users u ON u.id = fl.user_id
			WHERE fl.freet_id = $1 AND (fl.created_at, fl.user_id) < ($2, $3)
			ORDER BY fl.created_at DESC, fl.user_id DESC
			LIMIT $4
		`
		args = []interface{}{freetID, ts, id, limit + 1}
	}

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get freet likers: %w", err)
	}

	var nextCursor *string
	if len(users) > limit {
		users = users[:limit]
		lastUserID := users[len(users)-1].ID
		var likedAt time.Time
		err := r.db.GetContext(ctx, &likedAt, `
			SELECT created_at FROM freet_likes WHERE freet_id = $1 AND user_id = $2
		`, freetID, lastUserID)
		if err == nil {
			c := formatCursor(likedAt, lastUserID)
			nextCursor = &c
		}
	}

	return users, nextCursor, nil
}

// IncrementLikeCount atomically updates the like_count on a freet.
func (r *freetRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, freetID int64, delta int) error {
	query := `UPDATE freets SET like_count = like_count + $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	result, err := tx.ExecContext(ctx, query, delta, freetID)
	if err != nil {
		return fmt.Errorf("update like count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrFreetNotFound
	}
	return nil
}

// IncrementCommentCount atomically updates the comment_count on a freet.
func (r *freetRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, freetID int64, delta int) error {
	query := `UPDATE freets SET comment_count = comment_count + $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	result, err := tx.ExecContext(ctx, query, delta, freetID)
	if err != nil {
		return fmt.Errorf("update comment count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrFreetNotFound
	}
	return nil
}

// Helper: parse compound cursor "id:timestamp"
func parseCursor(cursor string) (time.Time, int64, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid cursor format")
	}
	var id int64
	var ts int64
	_, err := fmt.Sscanf(parts[0], "%d", &id)
	if err != nil {
		return time.Time{}, 0, err
	}
	_, err = fmt.Sscanf(parts[1], "%d", &ts)
	if err != nil {
		return time.Time{}, 0, err
	}
	return time.Unix(ts, 0), id, nil
}

// Helper: format compound cursor "id:timestamp"
func formatCursor(t time.Time, id int64) string {
	return fmt.Sprintf("%d:%d", id, t.Unix())
}
