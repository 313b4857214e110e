package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"freets-backend/internal/model"
	"freets-backend/internal/queue"
	"freets-backend/internal/repository"
)

// CommentService handles comments on freets. Comments are flat: no reply
// threading, a comment belongs directly to its freet.
type CommentService struct {
	commentRepo repository.CommentRepository
	freetRepo   repository.FreetRepository
	userRepo    repository.UserRepository
	db          *sqlx.DB
	publisher   queue.Publisher
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	freetRepo repository.FreetRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		freetRepo:   freetRepo,
		userRepo:    userRepo,
		db:          db,
		publisher:   publisher,
	}
}

// Create adds a comment to a freet. Uses transaction: insert comment + increment counter.
func (s *CommentService) Create(ctx context.Context, freetID, userID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrCommentContentRequired
	}
	if len(content) > model.MaxCommentLength {
		return nil, model.ErrCommentContentTooLong
	}

	exists, err := s.freetRepo.Exists(ctx, freetID)
	if err != nil {
		return nil, fmt.Errorf("check freet exists: %w", err)
	}
	if !exists {
		return nil, model.ErrFreetNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	comment, err := s.commentRepo.Create(ctx, tx, freetID, userID, content)
	if err != nil {
		return nil, err
	}

	if err := s.freetRepo.IncrementCommentCount(ctx, tx, freetID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		comment.Author = &model.UserSummary{
			ID:          author.ID,
			Username:    author.Username,
			DisplayName: author.DisplayName,
			AvatarURL:   author.AvatarURL,
		}
	}

	log.Printf("[CommentService] User %d commented on freet %d", userID, freetID)

	// Publish notification event (after commit, best-effort)
	if s.publisher != nil {
		authorID, err := s.freetRepo.GetAuthorID(ctx, freetID)
		if err == nil && authorID != userID {
			event := queue.NewFreetCommentedEvent(freetID, comment.ID, userID, authorID)
			if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
				log.Printf("[CommentService] Failed to publish FreetCommented event: %v", err)
			}
		}
	}

	return comment, nil
}

// Delete removes a comment. Uses transaction: delete comment + decrement counter.
func (s *CommentService) Delete(ctx context.Context, commentID, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete validates ownership and returns the freet for the counter update
	freetID, err := s.commentRepo.Delete(ctx, tx, commentID, userID)
	if err != nil {
		return err
	}

	if err := s.freetRepo.IncrementCommentCount(ctx, tx, freetID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[CommentService] User %d deleted comment %d from freet %d", userID, commentID, freetID)
	return nil
}

// Update updates a comment's content.
func (s *CommentService) Update(ctx context.Context, commentID, userID int64, req model.UpdateCommentRequest) (*model.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrCommentContentRequired
	}
	if len(content) > model.MaxCommentLength {
		return nil, model.ErrCommentContentTooLong
	}

	// Repository handles the ownership check
	comment, err := s.commentRepo.Update(ctx, commentID, userID, content)
	if err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		comment.Author = &model.UserSummary{
			ID:          author.ID,
			Username:    author.Username,
			DisplayName: author.DisplayName,
			AvatarURL:   author.AvatarURL,
		}
	}

	return comment, nil
}

// GetByFreetID returns paginated comments for a freet.
func (s *CommentService) GetByFreetID(ctx context.Context, freetID int64, cursor *string, limit int) (*model.CommentListResponse, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	exists, err := s.freetRepo.Exists(ctx, freetID)
	if err != nil {
		return nil, fmt.Errorf("check freet exists: %w", err)
	}
	if !exists {
		return nil, model.ErrFreetNotFound
	}

	comments, nextCursor, err := s.commentRepo.GetByFreetID(ctx, freetID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	hasMore := nextCursor != nil

	var finalCursor *string
	if hasMore {
		finalCursor = nextCursor
	}

	return &model.CommentListResponse{
		Comments:   comments,
		NextCursor: finalCursor,
		HasMore:    hasMore,
	}, nil
}
