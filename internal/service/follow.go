package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"freets-backend/internal/model"
	"freets-backend/internal/queue"
	"freets-backend/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	db         *sqlx.DB
	publisher  queue.Publisher
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		db:         db,
		publisher:  publisher,
	}
}

// Follow creates a follower -> followee edge. Following someone you already
// follow is a silent no-op: no counter bumps, no event, nil error.
// Side effect worth noting: following someone immediately grants access to
// their circle-less albums, since those resolve against current followers.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	_, err := s.userRepo.GetByID(ctx, followeeID)
	if err != nil {
		return err
	}

	exists, err := s.followRepo.Exists(ctx, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("check follow exists: %w", err)
	}
	if exists {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.followRepo.Create(ctx, tx, followerID, followeeID)
	if err != nil {
		return err
	}

	// Concurrent follow won the race; nothing left to do.
	if !inserted {
		return nil
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, 1); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Publish event for async backfill (after commit!)
	if s.publisher != nil {
		event := queue.NewUserFollowedEvent(followerID, followeeID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
		if err != nil {
			log.Printf("[FollowService] Failed to publish UserFollowed event: follower=%d followee=%d err=%v",
				followerID, followeeID, err)
		} else {
			log.Printf("[FollowService] Published UserFollowed: follower=%d followee=%d msgID=%s",
				followerID, followeeID, msgID)
		}
	}

	return nil
}

// Unfollow removes the edge. Unfollowing someone you don't follow returns
// ErrNotFollowing. The access-revocation side effect mirrors Follow's grant.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleted, err := s.followRepo.Delete(ctx, tx, followerID, followeeID)
	if err != nil {
		return err
	}

	if !deleted {
		return model.ErrNotFollowing
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, -1); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Publish event for async feed cleanup (after commit!)
	if s.publisher != nil {
		event := queue.NewUserUnfollowedEvent(followerID, followeeID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
		if err != nil {
			log.Printf("[FollowService] Failed to publish UserUnfollowed event: follower=%d followee=%d err=%v",
				followerID, followeeID, err)
		} else {
			log.Printf("[FollowService] Published UserUnfollowed: follower=%d followee=%d msgID=%s",
				followerID, followeeID, msgID)
		}
	}

	return nil
}

// GetFollowers retrieves users who follow the specified user with cursor-based pagination.
//
// When cursor is nil we fetch from the beginning (latest followers first);
// otherwise we fetch followers created before that timestamp. The repository
// fetches limit+1 rows to decide whether a next cursor exists.
func (s *FollowService) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.followRepo.GetFollowers(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}

	if viewerID != nil {
		users = s.enrichWithFollowStatus(ctx, *viewerID, users)
	}

	var nextCursorStr *string
	if nextCursor != nil {
		str := nextCursor.Format(time.RFC3339)
		nextCursorStr = &str
	}

	return &model.FollowListResponse{
		Users:      users,
		NextCursor: nextCursorStr,
		HasMore:    nextCursor != nil,
	}, nil
}

// GetFollowing retrieves users that the specified user follows with cursor-based pagination.
func (s *FollowService) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.followRepo.GetFollowing(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}

	if viewerID != nil {
		users = s.enrichWithFollowStatus(ctx, *viewerID, users)
	}

	var nextCursorStr *string
	if nextCursor != nil {
		str := nextCursor.Format(time.RFC3339)
		nextCursorStr = &str
	}

	return &model.FollowListResponse{
		Users:      users,
		NextCursor: nextCursorStr,
		HasMore:    nextCursor != nil,
	}, nil
}

// enrichWithFollowStatus performs a batch check to determine if the viewer
// follows each user in the list. One CheckFollows query with ANY($1), not
// N+1. If the batch check fails we return users with is_following=false
// rather than failing the entire request.
func (s *FollowService) enrichWithFollowStatus(ctx context.Context, viewerID int64, users []model.UserSummary) []model.UserSummary {
	if len(users) == 0 {
		return users
	}

	userIDs := make([]int64, len(users))
	for i, user := range users {
		userIDs[i] = user.ID
	}

	followMap, err := s.followRepo.CheckFollows(ctx, viewerID, userIDs)
	if err != nil {
		return users
	}

	for i := range users {
		users[i].IsFollowing = followMap[users[i].ID]
	}

	return users
}
