package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Freet is a short text post, optionally carrying pre-uploaded image URLs.
// Freets are referenced by albums through album_freets; nothing on the freet
// itself records which albums contain it.
type Freet struct {
	ID           int64          `db:"id" json:"id"`
	AuthorID     int64          `db:"author_id" json:"author_id"`
	Content      string         `db:"content" json:"content"`
	ImageURLs    pq.StringArray `db:"image_urls" json:"image_urls,omitempty"`
	LikeCount    int            `db:"like_count" json:"like_count"`
	CommentCount int            `db:"comment_count" json:"comment_count"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time     `db:"deleted_at" json:"-"`

	// Joined fields (not in freets table)
	Author  *UserSummary `json:"author,omitempty"`
	IsLiked bool         `json:"is_liked"`
}

// CreateFreetRequest is the request body for creating a freet.
type CreateFreetRequest struct {
	Content   string   `json:"content"`
	ImageURLs []string `json:"image_urls,omitempty"` // Pre-uploaded image URLs
}

// FeedFreet is an enriched freet for feed display.
type FeedFreet struct {
	Freet
	Author UserSummary `json:"author"`
}

// FeedResponse is the paginated home-feed response.
type FeedResponse struct {
	Freets     []FeedFreet `json:"freets"`
	NextCursor *string     `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// FreetListResponse is the paginated freet list response (for profiles and albums).
type FreetListResponse struct {
	Freets     []Freet `json:"freets"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// LikersListResponse is the paginated likers list response.
type LikersListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

// Freet constraints
const (
	MaxFreetContentLength = 280
	MaxFreetImageCount    = 4
	FreetImageFolder      = "freets"
	MaxFreetImageSize     = 10 * 1024 * 1024 // 10MB per image
)

// Freet errors
var (
	ErrFreetNotFound   = errors.New("freet not found")
	ErrNotFreetAuthor  = errors.New("not the author of this freet")
	ErrEmptyContent    = errors.New("freet content is required")
	ErrContentTooLong  = errors.New("freet content too long")
	ErrTooManyImages   = errors.New("too many images")
	ErrInvalidImageURL = errors.New("invalid image URL")
	ErrAlreadyLiked    = errors.New("freet already liked")
	ErrNotLiked        = errors.New("freet not liked")
)
