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

type FreetService struct {
	freetRepo repository.FreetRepository
	userRepo  repository.UserRepository
	publisher queue.Publisher
	db        *sqlx.DB
}

func NewFreetService(
	freetRepo repository.FreetRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
	db *sqlx.DB,
) *FreetService {
	return &FreetService{
		freetRepo: freetRepo,
		userRepo:  userRepo,
		publisher: publisher,
		db:        db,
	}
}

// Create creates a new freet and publishes an event for feed fan-out.
func (s *FreetService) Create(ctx context.Context, userID int64, req model.CreateFreetRequest) (*model.Freet, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrEmptyContent
	}
	if len(content) > model.MaxFreetContentLength {
		return nil, model.ErrContentTooLong
	}
	if len(req.ImageURLs) > model.MaxFreetImageCount {
		return nil, model.ErrTooManyImages
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	freet, err := s.freetRepo.Create(ctx, userID, content, req.ImageURLs)
	if err != nil {
		return nil, fmt.Errorf("create freet: %w", err)
	}

	if err := s.userRepo.IncrementFreetCount(ctx, tx, userID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	// Publish event for async fan-out (after commit!)
	if s.publisher != nil {
		event := queue.NewFreetCreatedEvent(freet.ID, userID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
		if err != nil {
			// Log but don't fail - freet is created, fan-out can be retried
			log.Printf("[FreetService] Failed to publish FreetCreated event: freet=%d err=%v", freet.ID, err)
		} else {
			log.Printf("[FreetService] Published FreetCreated: freet=%d msgID=%s", freet.ID, msgID)
		}
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		freet.Author = &model.UserSummary{
			ID:          author.ID,
			Username:    author.Username,
			DisplayName: author.DisplayName,
			AvatarURL:   author.AvatarURL,
		}
	}

	return freet, nil
}

// GetByID retrieves a single freet with author and like status.
func (s *FreetService) GetByID(ctx context.Context, freetID int64, viewerID *int64) (*model.Freet, error) {
	freet, err := s.freetRepo.GetByID(ctx, freetID)
	if err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, freet.AuthorID)
	if err == nil {
		freet.Author = &model.UserSummary{
			ID:          author.ID,
			Username:    author.Username,
			DisplayName: author.DisplayName,
			AvatarURL:   author.AvatarURL,
		}
	}

	if viewerID != nil {
		likeStatus, err := s.freetRepo.CheckLikes(ctx, *viewerID, []int64{freetID})
		if err != nil {
			log.Printf("[FreetService] Failed to check like status: %v", err)
		} else {
			freet.IsLiked = likeStatus[freetID]
		}
	}

	return freet, nil
}

// Delete soft-deletes a freet and publishes an event to remove it from feeds.
// Album rows pointing at the freet stay; album reads filter deleted freets out.
func (s *FreetService) Delete(ctx context.Context, freetID, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Repository validates authorship
	if err := s.freetRepo.Delete(ctx, freetID, userID); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFreetCount(ctx, tx, userID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if s.publisher != nil {
		event := queue.NewFreetDeletedEvent(freetID, userID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
		if err != nil {
			log.Printf("[FreetService] Failed to publish FreetDeleted event: freet=%d err=%v", freetID, err)
		} else {
			log.Printf("[FreetService] Published FreetDeleted: freet=%d msgID=%s", freetID, msgID)
		}
	}

	return nil
}

// GetUserFreets retrieves a user's freets for their profile.
func (s *FreetService) GetUserFreets(ctx context.Context, userID int64, cursor *string, limit int, viewerID *int64) (*model.FreetListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	freets, nextCursor, err := s.freetRepo.GetUserFreets(ctx, userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("get user freets: %w", err)
	}

	if viewerID != nil && len(freets) > 0 {
		freetIDs := make([]int64, len(freets))
		for i, f := range freets {
			freetIDs[i] = f.ID
		}
		if likeMap, err := s.freetRepo.CheckLikes(ctx, *viewerID, freetIDs); err == nil {
			for i := range freets {
				freets[i].IsLiked = likeMap[freets[i].ID]
			}
		}
	}

	hasMore := nextCursor != nil

	var finalCursor *string
	if hasMore {
		finalCursor = nextCursor
	}

	return &model.FreetListResponse{
		Freets:     freets,
		NextCursor: finalCursor,
		HasMore:    hasMore,
	}, nil
}

// Like adds a like to a freet. Uses transaction: insert like + increment counter.
func (s *FreetService) Like(ctx context.Context, freetID, userID int64) error {
	exists, err := s.freetRepo.Exists(ctx, freetID)
	if err != nil {
		return fmt.Errorf("check freet exists: %w", err)
	}
	if !exists {
		return model.ErrFreetNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.freetRepo.Like(ctx, tx, freetID, userID)
	if err != nil {
		return err
	}
	if !inserted {
		return model.ErrAlreadyLiked
	}

	if err := s.freetRepo.IncrementLikeCount(ctx, tx, freetID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[FreetService] User %d liked freet %d", userID, freetID)

	// Publish notification event (after commit, best-effort)
	if s.publisher != nil {
		authorID, err := s.freetRepo.GetAuthorID(ctx, freetID)
		if err == nil && authorID != userID {
			event := queue.NewFreetLikedEvent(freetID, userID, authorID)
			if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
				log.Printf("[FreetService] Failed to publish FreetLiked event: %v", err)
			}
		}
	}

	return nil
}

// Unlike removes a like from a freet. Uses transaction: delete like + decrement counter.
func (s *FreetService) Unlike(ctx context.Context, freetID, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleted, err := s.freetRepo.Unlike(ctx, tx, freetID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrNotLiked
	}

	if err := s.freetRepo.IncrementLikeCount(ctx, tx, freetID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[FreetService] User %d unliked freet %d", userID, freetID)
	return nil
}

// GetFreetLikers returns paginated list of users who liked a freet.
func (s *FreetService) GetFreetLikers(ctx context.Context, freetID int64, cursor *string, limit int) (*model.LikersListResponse, error) {
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

	users, nextCursor, err := s.freetRepo.GetFreetLikers(ctx, freetID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("get freet likers: %w", err)
	}

	hasMore := nextCursor != nil

	var finalCursor *string
	if hasMore {
		finalCursor = nextCursor
	}

	return &model.LikersListResponse{
		Users:      users,
		NextCursor: finalCursor,
		HasMore:    hasMore,
	}, nil
}
