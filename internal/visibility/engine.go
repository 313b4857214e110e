// Package visibility computes who may view an album at the moment of access.
//
// Albums do not store a viewer list. Visibility is resolved live on every
// check: if an album has linked circles, its viewers are the union of the
// current members of those circles; if it has none, its viewers are the
// owner's current followers. Either way the owner can always see their own
// album. Circle membership edits and follow/unfollow take effect
// immediately because nothing here is cached or snapshotted.
package visibility

import (
	"context"
	"errors"
	"fmt"
	"log"

	"freets-backend/internal/model"
)

// AlbumStore is the subset of album persistence the engine needs.
type AlbumStore interface {
	GetByID(ctx context.Context, id int64) (*model.Album, error)
	GetCircleIDs(ctx context.Context, albumID int64) ([]int64, error)
	GetFreetIDs(ctx context.Context, albumID int64) ([]int64, error)
}

// CircleStore is the subset of circle persistence the engine needs.
type CircleStore interface {
	// GetMembersOfCircles returns the distinct union of member IDs across
	// the given circles. IDs of circles that no longer exist contribute
	// nothing.
	GetMembersOfCircles(ctx context.Context, circleIDs []int64) ([]int64, error)
}

// FollowStore is the subset of follow persistence the engine needs.
type FollowStore interface {
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Engine resolves album viewer sets.
type Engine struct {
	albums  AlbumStore
	circles CircleStore
	follows FollowStore
}

// NewEngine creates a visibility engine.
func NewEngine(albums AlbumStore, circles CircleStore, follows FollowStore) *Engine {
	return &Engine{
		albums:  albums,
		circles: circles,
		follows: follows,
	}
}

// ResolveViewers computes the current viewer set for an album. The owner is
// not part of the resolved set; owner access is a separate check in CanView.
// Returns model.ErrAlbumNotFound if the album does not exist.
//
// The rule: linked circles replace the follower default entirely. An album
// with circles is visible to exactly those circles' current members, even if
// that set is smaller than the owner's follower set. With no circles the set
// is the owner's current followers, which may be empty.
func (e *Engine) ResolveViewers(ctx context.Context, albumID int64) ([]int64, error) {
	album, err := e.albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}

	circleIDs, err := e.albums.GetCircleIDs(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("get album circles: %w", err)
	}

	var viewers []int64
	if len(circleIDs) > 0 {
		viewers, err = e.circles.GetMembersOfCircles(ctx, circleIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve circle members: %w", err)
		}
		log.Printf("[Visibility] ResolveViewers: album=%d circles=%d viewers=%d", albumID, len(circleIDs), len(viewers))
	} else {
		viewers, err = e.follows.GetFollowerIDs(ctx, album.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("resolve followers: %w", err)
		}
		log.Printf("[Visibility] ResolveViewers: album=%d (no circles, follower fallback) viewers=%d", albumID, len(viewers))
	}

	return viewers, nil
}

// CanView reports whether userID may view the album right now.
// The owner can always view; other users must be in the resolved viewer set.
// Returns model.ErrAlbumNotFound if the album does not exist.
func (e *Engine) CanView(ctx context.Context, albumID, userID int64) (bool, error) {
	album, err := e.albums.GetByID(ctx, albumID)
	if err != nil {
		return false, err
	}
	if album.OwnerID == userID {
		return true, nil
	}

	circleIDs, err := e.albums.GetCircleIDs(ctx, albumID)
	if err != nil {
		return false, fmt.Errorf("get album circles: %w", err)
	}

	var viewers []int64
	if len(circleIDs) > 0 {
		viewers, err = e.circles.GetMembersOfCircles(ctx, circleIDs)
		if err != nil {
			return false, fmt.Errorf("resolve circle members: %w", err)
		}
	} else {
		viewers, err = e.follows.GetFollowerIDs(ctx, album.OwnerID)
		if err != nil {
			return false, fmt.Errorf("resolve followers: %w", err)
		}
	}

	for _, id := range viewers {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// IsOwner reports whether userID owns the album.
// Returns model.ErrAlbumNotFound if the album does not exist.
func (e *Engine) IsOwner(ctx context.Context, albumID, userID int64) (bool, error) {
	album, err := e.albums.GetByID(ctx, albumID)
	if err != nil {
		return false, err
	}
	return album.OwnerID == userID, nil
}

// CircleIDsForAlbum returns the circle IDs currently linked to the album.
func (e *Engine) CircleIDsForAlbum(ctx context.Context, albumID int64) ([]int64, error) {
	return e.albums.GetCircleIDs(ctx, albumID)
}

// FreetIDsForAlbum returns the freet IDs currently in the album.
func (e *Engine) FreetIDsForAlbum(ctx context.Context, albumID int64) ([]int64, error) {
	return e.albums.GetFreetIDs(ctx, albumID)
}

// IsNotFound reports whether err means the album does not exist, so callers
// can map it to a 404 without importing the model package's full error set.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrAlbumNotFound)
}
