package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a freet. Plain CRUD; no visibility rules of
// its own, a comment is readable wherever its freet is.
type Comment struct {
	ID        int64        `db:"id" json:"id"`
	FreetID   int64        `db:"freet_id" json:"freet_id"`
	UserID    int64        `db:"user_id" json:"-"`
	Content   string       `db:"content" json:"content"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Author    *UserSummary `json:"author,omitempty"` // Joined field
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentListResponse is the paginated comment list response.
type CommentListResponse struct {
	Comments   []Comment `json:"comments"`
	NextCursor *string   `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}

const MaxCommentLength = 280

var (
	ErrCommentNotFound        = errors.New("comment not found")
	ErrNotCommentOwner        = errors.New("not the owner of this comment")
	ErrCommentContentRequired = errors.New("comment content is required")
	ErrCommentContentTooLong  = errors.New("comment content too long")
)
