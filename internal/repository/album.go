package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"freets-backend/internal/model"
)

type albumRepository struct {
	db *sqlx.DB
}

func NewAlbumRepository(db *sqlx.DB) AlbumRepository {
	return &albumRepository{db: db}
}

// Create inserts an empty album. initialViewerIDs is the owner's follower set
// at creation time; it is stored for record but never read back by visibility
// resolution, which always consults the live graph.
func (r *albumRepository) Create(ctx context.Context, ownerID int64, name string, initialViewerIDs []int64) (*model.Album, error) {
	query := `
		INSERT INTO albums (owner_id, name, initial_viewer_ids)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, name, initial_viewer_ids, created_at
	`

	if initialViewerIDs == nil {
		initialViewerIDs = []int64{}
	}

	var a model.Album
	err := r.db.GetContext(ctx, &a, query, ownerID, name, pq.Array(initialViewerIDs))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, model.ErrDuplicateAlbumName
		}
		return nil, fmt.Errorf("failed to insert album: %w", err)
	}

	return &a, nil
}

func (r *albumRepository) GetByID(ctx context.Context, albumID int64) (*model.Album, error) {
	query := `SELECT id, owner_id, name, initial_viewer_ids, created_at FROM albums WHERE id = $1`

	var a model.Album
	err := r.db.GetContext(ctx, &a, query, albumID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrAlbumNotFound
		}
		return nil, fmt.Errorf("failed to get album by id: %w", err)
	}

	return &a, nil
}

func (r *albumRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM albums WHERE name = $1)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, name)
	if err != nil {
		return false, fmt.Errorf("failed to check album name existence: %w", err)
	}
	return exists, nil
}

// Delete removes the album and its link rows. Circles referenced by the album
// are never touched; deletion does not cascade into the circle registry.
func (r *albumRepository) Delete(ctx context.Context, albumID int64) (bool, error) {
	query := `DELETE FROM albums WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, albumID)
	if err != nil {
		return false, fmt.Errorf("failed to delete album: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *albumRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Album, error) {
	query := `
		SELECT a.id, a.owner_id, a.name, a.initial_viewer_ids, a.created_at,
		       COUNT(af.freet_id) AS freet_count
		FROM albums a
		LEFT JOIN album_freets af ON af.album_id = a.id
		WHERE a.owner_id = $1
		GROUP BY a.id
		ORDER BY a.created_at DESC
	`

	var albums []model.Album
	err := r.db.SelectContext(ctx, &albums, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums by owner: %w", err)
	}

	return albums, nil
}

func (r *albumRepository) ListAll(ctx context.Context) ([]model.Album, error) {
	query := `SELECT id, owner_id, name, initial_viewer_ids, created_at FROM albums ORDER BY created_at DESC`

	var albums []model.Album
	err := r.db.SelectContext(ctx, &albums, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}

	return albums, nil
}

// AddCircle links a circle into the album's visibility. The composite primary
// key plus ON CONFLICT DO NOTHING makes relinking the same circle a no-op.
func (r *albumRepository) AddCircle(ctx context.Context, albumID, circleID int64) error {
	query := `
		INSERT INTO album_circles (album_id, circle_id)
		VALUES ($1, $2)
		ON CONFLICT (album_id, circle_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, albumID, circleID)
	if err != nil {
		return fmt.Errorf("failed to add circle to album: %w", err)
	}
	return nil
}

func (r *albumRepository) RemoveCircle(ctx context.Context, albumID, circleID int64) error {
	query := `DELETE FROM album_circles WHERE album_id = $1 AND circle_id = $2`
	_, err := r.db.ExecContext(ctx, query, albumID, circleID)
	if err != nil {
		return fmt.Errorf("failed to remove circle from album: %w", err)
	}
	return nil
}

// GetCircleIDs returns the linked circle ids in link order. IDs may be
// dangling if the circle was deleted after linking; callers treat those as
// empty member sets.
func (r *albumRepository) GetCircleIDs(ctx context.Context, albumID int64) ([]int64, error) {
	query := `SELECT circle_id FROM album_circles WHERE album_id = $1 ORDER BY created_at`
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to get album circle ids: %w", err)
	}
	return ids, nil
}

func (r *albumRepository) AddFreet(ctx context.Context, albumID, freetID int64) error {
	query := `
		INSERT INTO album_freets (album_id, freet_id)
		VALUES ($1, $2)
		ON CONFLICT (album_id, freet_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, albumID, freetID)
	if err != nil {
		return fmt.Errorf("failed to add freet to album: %w", err)
	}
	return nil
}

func (r *albumRepository) RemoveFreet(ctx context.Context, albumID, freetID int64) error {
	query := `DELETE FROM album_freets WHERE album_id = $1 AND freet_id = $2`
	_, err := r.db.ExecContext(ctx, query, albumID, freetID)
	if err != nil {
		return fmt.Errorf("failed to remove freet from album: %w", err)
	}
	return nil
}

func (r *albumRepository) GetFreetIDs(ctx context.Context, albumID int64) ([]int64, error) {
	query := `SELECT freet_id FROM album_freets WHERE album_id = $1 ORDER BY created_at`
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to get album freet ids: %w", err)
	}
	return ids, nil
}
