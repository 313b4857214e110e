package model

import (
	"errors"
	"time"
)

// Circle is an owner-scoped, named group of users. Albums reference circles
// by ID to scope their visibility; membership is stored in circle_members.
//
// Circle names are unique across all owners, not per owner. Album linking
// resolves circles by bare name, so global uniqueness is what keeps that
// lookup deterministic.
type Circle struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// MemberCount is populated on list queries, not stored.
	MemberCount int `db:"member_count" json:"member_count"`
}

// CreateCircleRequest is the payload for creating an empty circle.
type CreateCircleRequest struct {
	Name string `json:"name"`
}

// AddCircleMemberRequest adds a user to a circle by username, which is how
// the client refers to people.
type AddCircleMemberRequest struct {
	Username string `json:"username"`
}

const MaxCircleNameLength = 100

var (
	// ErrCircleNotFound is returned when a circle id or name resolves to nothing
	ErrCircleNotFound = errors.New("circle not found")

	// ErrDuplicateCircleName is returned when a circle with that name already exists
	ErrDuplicateCircleName = errors.New("circle name already exists")

	// ErrSelfMembership is returned when an owner tries to add themselves to their own circle
	ErrSelfMembership = errors.New("cannot add yourself to your own circle")

	// ErrCircleNameRequired is returned when the circle name is empty
	ErrCircleNameRequired = errors.New("circle name is required")

	// ErrCircleNameTooLong is returned when the circle name exceeds the limit
	ErrCircleNameTooLong = errors.New("circle name is too long")
)
