package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Album is an owner's named, visibility-scoped collection of freets.
//
// Visibility comes from the circles linked in album_circles. An album with no
// linked circles falls back to the owner's followers, resolved live at query
// time. InitialViewerIDs is the owner's follower set captured once at album
// creation; it seeds the record the way the upstream app did, but resolution
// never reads it back.
type Album struct {
	ID               int64         `db:"id" json:"id"`
	OwnerID          int64         `db:"owner_id" json:"owner_id"`
	Name             string        `db:"name" json:"name"`
	InitialViewerIDs pq.Int64Array `db:"initial_viewer_ids" json:"-"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`

	// FreetCount is populated on list queries, not stored.
	FreetCount int `db:"freet_count" json:"freet_count"`
}

// CreateAlbumRequest is the payload for creating an empty album.
type CreateAlbumRequest struct {
	Name string `json:"name"`
}

// AddAlbumCircleRequest links a circle to an album's visibility by circle
// name, which is how the client refers to circles.
type AddAlbumCircleRequest struct {
	CircleName string `json:"circle_name"`
}

// AddAlbumFreetRequest adds a freet to an album by id.
type AddAlbumFreetRequest struct {
	FreetID int64 `json:"freet_id"`
}

const MaxAlbumNameLength = 100

var (
	// ErrAlbumNotFound is returned when an album id resolves to nothing
	ErrAlbumNotFound = errors.New("album not found")

	// ErrDuplicateAlbumName is returned when an album with that name already exists
	ErrDuplicateAlbumName = errors.New("album name already exists")

	// ErrNotAlbumOwner is returned when a caller attempts an owner-only album mutation
	ErrNotAlbumOwner = errors.New("caller does not own this album")

	// ErrNotCircleOwner is returned when a caller attempts an owner-only circle mutation
	ErrNotCircleOwner = errors.New("caller does not own this circle")

	// ErrAlbumNameRequired is returned when the album name is empty
	ErrAlbumNameRequired = errors.New("album name is required")

	// ErrAlbumNameTooLong is returned when the album name exceeds the limit
	ErrAlbumNameTooLong = errors.New("album name is too long")
)
