package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"freets-backend/internal/cache"
	"freets-backend/internal/model"
	"freets-backend/internal/repository"
)

const (
	// FeedDefaultLimit is the default number of freets per page
	FeedDefaultLimit = 10

	// FeedMaxLimit is the maximum number of freets per page
	FeedMaxLimit = 50

	// CacheWarmLimit is max freets to fetch when warming cache
	CacheWarmLimit = 500
)

// FeedService serves the home feed: freets from followed users, newest
// first, backed by the Redis feed cache with a DB warm path. The feed is
// follow-based only; album visibility never feeds into it.
type FeedService struct {
	feedCache  cache.FeedCache
	freetRepo  repository.FreetRepository
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFeedService(
	feedCache cache.FeedCache,
	freetRepo repository.FreetRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
) *FeedService {
	return &FeedService{
		feedCache:  feedCache,
		freetRepo:  freetRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// GetFeed retrieves the user's feed with cursor-based pagination.
//
// Flow:
// 1. Check if cache exists for user
// 2. If no cache -> warm it (fetch freets from followees, up to 500)
// 3. Get freet IDs from cache (using cursor if provided)
// 4. Hydrate: fetch full freet details from DB
// 5. Build next cursor from last freet
func (s *FeedService) GetFeed(ctx context.Context, userID int64, cursor *string, limit int) (*model.FeedResponse, error) {
	startTime := time.Now()

	if limit <= 0 {
		limit = FeedDefaultLimit
	}
	if limit > FeedMaxLimit {
		limit = FeedMaxLimit
	}

	exists, err := s.feedCache.Exists(ctx, userID)
	if err != nil {
		log.Printf("[FeedService] Cache check failed for user=%d: %v", userID, err)
	}

	if !exists {
		log.Printf("[FeedService] Cache miss for user=%d, warming...", userID)
		if err := s.warmCache(ctx, userID); err != nil {
			log.Printf("[FeedService] Cache warm failed for user=%d: %v", userID, err)
		}
	}

	var cursorScore *float64
	if cursor != nil {
		score, _, err := parseFeedCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		cursorScore = &score
	}

	freetIDs, scores, err := s.feedCache.GetFeed(ctx, userID, cursorScore, limit)
	if err != nil {
		log.Printf("[FeedService] GetFeed cache error: %v", err)
		return nil, fmt.Errorf("get feed from cache: %w", err)
	}

	if len(freetIDs) == 0 {
		log.Printf("[FeedService] Empty feed for user=%d", userID)
		return &model.FeedResponse{Freets: []model.FeedFreet{}}, nil
	}

	freets, err := s.hydrateFreets(ctx, userID, freetIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate freets: %w", err)
	}

	var nextCursor *string
	hasMore := len(freets) == limit // exactly limit freets means there might be more
	if hasMore && len(scores) > 0 {
		lastFreet := freets[len(freets)-1]
		lastScore := scores[len(scores)-1]
		c := formatFeedCursor(lastScore, lastFreet.ID)
		nextCursor = &c
	}

	log.Printf("[FeedService] GetFeed OK: user=%d freets=%d hasMore=%v duration=%v",
		userID, len(freets), hasMore, time.Since(startTime))

	return &model.FeedResponse{
		Freets:     freets,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// warmCache populates the user's feed cache from DB.
func (s *FeedService) warmCache(ctx context.Context, userID int64) error {
	startTime := time.Now()

	followeeIDs, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("get followee ids: %w", err)
	}

	// Include the user's own freets in their feed
	followeeIDs = append(followeeIDs, userID)

	freets, err := s.freetRepo.GetFeedFreetIDs(ctx, followeeIDs, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("get feed freet ids: %w", err)
	}

	if len(freets) == 0 {
		log.Printf("[FeedService] No freets to warm for user=%d", userID)
		return nil
	}

	if err := s.feedCache.WarmCache(ctx, userID, freets); err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}

	log.Printf("[FeedService] Cache warmed: user=%d freets=%d duration=%v",
		userID, len(freets), time.Since(startTime))

	return nil
}

// hydrateFreets fetches full freet details and enriches with author info.
func (s *FeedService) hydrateFreets(ctx context.Context, viewerID int64, freetIDs []int64) ([]model.FeedFreet, error) {
	freets, err := s.freetRepo.GetByIDs(ctx, freetIDs)
	if err != nil {
		return nil, fmt.Errorf("get freets by ids: %w", err)
	}

	authorIDSet := make(map[int64]struct{})
	for _, f := range freets {
		authorIDSet[f.AuthorID] = struct{}{}
	}
	authorIDs := make([]int64, 0, len(authorIDSet))
	for id := range authorIDSet {
		authorIDs = append(authorIDs, id)
	}

	authors := make(map[int64]model.UserSummary)
	if summaries, err := s.userRepo.GetSummariesByIDs(ctx, authorIDs); err == nil {
		for _, a := range summaries {
			authors[a.ID] = a
		}
	} else {
		log.Printf("[FeedService] Failed to get authors: %v", err)
	}

	// Check if viewer follows these authors (for "following" indicator)
	followStatus, err := s.followRepo.CheckFollows(ctx, viewerID, authorIDs)
	if err != nil {
		log.Printf("[FeedService] Failed to check follows: %v", err)
	}

	// Check which freets the viewer has liked
	likeStatus, err := s.freetRepo.CheckLikes(ctx, viewerID, freetIDs)
	if err != nil {
		log.Printf("[FeedService] Failed to check likes: %v", err)
	}

	feedFreets := make([]model.FeedFreet, len(freets))
	for i, f := range freets {
		author := authors[f.AuthorID]
		if followStatus != nil {
			author.IsFollowing = followStatus[f.AuthorID]
		}
		if likeStatus != nil {
			f.IsLiked = likeStatus[f.ID]
		}
		feedFreets[i] = model.FeedFreet{
			Freet:  f,
			Author: author,
		}
	}

	return feedFreets, nil
}

// parseFeedCursor parses "id:timestamp" format cursor.
// Returns the timestamp (as score) and freet ID.
func parseFeedCursor(cursor string) (float64, int64, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cursor format, expected id:timestamp")
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid freet id in cursor: %w", err)
	}

	score, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}

	return score, id, nil
}

// formatFeedCursor creates "id:timestamp" format cursor.
func formatFeedCursor(score float64, id int64) string {
	return fmt.Sprintf("%d:%.0f", id, score)
}
