package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"freets-backend/internal/model"
)

type circleRepository struct {
	db *sqlx.DB
}

func NewCircleRepository(db *sqlx.DB) CircleRepository {
	return &circleRepository{db: db}
}

// Create inserts an empty circle. The unique index on name surfaces as
// ErrDuplicateCircleName so the service layer is race-safe against
// concurrent creations with the same name.
func (r *circleRepository) Create(ctx context.Context, ownerID int64, name string) (*model.Circle, error) {
	query := `
		INSERT INTO circles (owner_id, name)
		VALUES ($1, $2)
		RETURNING id, owner_id, name, created_at
	`

	var c model.Circle
	err := r.db.GetContext(ctx, &c, query, ownerID, name)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, model.ErrDuplicateCircleName
		}
		return nil, fmt.Errorf("failed to insert circle: %w", err)
	}

	return &c, nil
}

func (r *circleRepository) GetByID(ctx context.Context, circleID int64) (*model.Circle, error) {
	query := `SELECT id, owner_id, name, created_at FROM circles WHERE id = $1`

	var c model.Circle
	err := r.db.GetContext(ctx, &c, query, circleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrCircleNotFound
		}
		return nil, fmt.Errorf("failed to get circle by id: %w", err)
	}

	return &c, nil
}

// GetByName resolves a circle by its globally unique name. Albums link
// circles by name, so this is the lookup the album service depends on.
func (r *circleRepository) GetByName(ctx context.Context, name string) (*model.Circle, error) {
	query := `SELECT id, owner_id, name, created_at FROM circles WHERE name = $1`

	var c model.Circle
	err := r.db.GetContext(ctx, &c, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrCircleNotFound
		}
		return nil, fmt.Errorf("failed to get circle by name: %w", err)
	}

	return &c, nil
}

func (r *circleRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM circles WHERE name = $1)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, name)
	if err != nil {
		return false, fmt.Errorf("failed to check circle name existence: %w", err)
	}
	return exists, nil
}

// Delete removes the circle and its membership rows. Rows in album_circles
// that reference the circle are left dangling on purpose; the visibility
// engine treats them as empty contributions.
func (r *circleRepository) Delete(ctx context.Context, circleID int64) (bool, error) {
	query := `DELETE FROM circles WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, circleID)
	if err != nil {
		return false, fmt.Errorf("failed to delete circle: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *circleRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Circle, error) {
	query := `
		SELECT c.id, c.owner_id, c.name, c.created_at,
		       COUNT(m.user_id) AS member_count
		FROM circles c
		LEFT JOIN circle_members m ON m.circle_id = c.id
		WHERE c.owner_id = $1
		GROUP BY c.id
		ORDER BY c.created_at DESC
	`

	var circles []model.Circle
	err := r.db.SelectContext(ctx, &circles, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list circles by owner: %w", err)
	}

	return circles, nil
}

// AddMember inserts the membership row. Idempotent via the composite
// primary key, so concurrent adds of the same pair converge.
func (r *circleRepository) AddMember(ctx context.Context, circleID, userID int64) error {
	query := `
		INSERT INTO circle_members (circle_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (circle_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, circleID, userID)
	if err != nil {
		return fmt.Errorf("failed to add circle member: %w", err)
	}
	return nil
}

func (r *circleRepository) RemoveMember(ctx context.Context, circleID, userID int64) error {
	query := `DELETE FROM circle_members WHERE circle_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, circleID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove circle member: %w", err)
	}
	return nil
}

func (r *circleRepository) GetMemberIDs(ctx context.Context, circleID int64) ([]int64, error) {
	query := `SELECT user_id FROM circle_members WHERE circle_id = $1`
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get circle member ids: %w", err)
	}
	return ids, nil
}

func (r *circleRepository) GetMembers(ctx context.Context, circleID int64) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, u.username, u.display_name, u.avatar_url
		FROM circle_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.circle_id = $1
		ORDER BY m.created_at DESC
	`

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get circle members: %w", err)
	}

	return users, nil
}

// GetMembersOfCircles returns the distinct union of member ids across the
// given circles in one query. A circle id with no backing circle (deleted
// after being linked to an album) simply matches no rows, which is exactly
// the degradation the visibility engine wants.
func (r *circleRepository) GetMembersOfCircles(ctx context.Context, circleIDs []int64) ([]int64, error) {
	if len(circleIDs) == 0 {
		return nil, nil
	}

	query := `SELECT DISTINCT user_id FROM circle_members WHERE circle_id = ANY($1)`
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query, pq.Array(circleIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get members of circles: %w", err)
	}

	return ids, nil
}
