package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"freets-backend/internal/cache"
	"freets-backend/internal/queue"
)

// FollowerProvider defines the interface for fetching followers.
// This abstracts the repository layer so workers don't depend on DB directly.
type FollowerProvider interface {
	// GetFollowerIDs returns all follower IDs for a given user.
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RecentFreetsProvider defines the interface for fetching recent freets.
// Used for backfilling feed when a user follows someone.
type RecentFreetsProvider interface {
	// GetRecentFreetsByUser returns recent freets by a user as
	// (freetID, timestamp) pairs.
	GetRecentFreetsByUser(ctx context.Context, userID int64, limit int) ([]cache.FreetScore, error)
}

// NotificationCreator defines the interface for creating notifications.
// This allows the worker to create notifications without depending on the service directly.
type NotificationCreator interface {
	// CreateNotification creates a notification and optionally sends push.
	CreateNotification(ctx context.Context, userID, actorID int64, notifType string, freetID, commentID *int64) error
}

// Handler processes feed events from the queue.
type Handler struct {
	feedCache        cache.FeedCache
	followerProvider FollowerProvider
	freetsProvider   RecentFreetsProvider
	notifCreator     NotificationCreator // Can be nil if notifications not wired
}

// NewHandler creates a new event handler.
func NewHandler(
	feedCache cache.FeedCache,
	followerProvider FollowerProvider,
	freetsProvider RecentFreetsProvider,
) *Handler {
	return &Handler{
		feedCache:        feedCache,
		followerProvider: followerProvider,
		freetsProvider:   freetsProvider,
	}
}

// SetNotificationCreator sets the notification creator (optional, for notification events).
func (h *Handler) SetNotificationCreator(nc NotificationCreator) {
	h.notifCreator = nc
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.FeedEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventFreetCreated:
		err = h.handleFreetCreated(ctx, event)
	case queue.EventFreetDeleted:
		err = h.handleFreetDeleted(ctx, event)
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		err = h.handleUserUnfollowed(ctx, event)
	case queue.EventFreetLiked:
		err = h.handleFreetLiked(ctx, event)
	case queue.EventFreetCommented:
		err = h.handleFreetCommented(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleFreetCreated fans out a new freet to all followers' feed caches.
func (h *Handler) handleFreetCreated(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] FreetCreated: freet=%d author=%d", event.FreetID, event.AuthorID)

	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	log.Printf("[Worker] FreetCreated: fanning out to %d followers", len(followers))

	// Fan-out: add freet to each follower's feed cache
	var failCount int
	for _, followerID := range followers {
		err := h.feedCache.AddFreet(ctx, followerID, event.FreetID, event.Timestamp)
		if err != nil {
			log.Printf("[Worker] FreetCreated: failed to add to user=%d err=%v", followerID, err)
			failCount++
			// Continue with other followers - don't fail entire fan-out
		}
	}

	// Also add to author's own feed (they see their own freets)
	if err := h.feedCache.AddFreet(ctx, event.AuthorID, event.FreetID, event.Timestamp); err != nil {
		log.Printf("[Worker] FreetCreated: failed to add to author's own feed err=%v", err)
	}

	log.Printf("[Worker] FreetCreated DONE: freet=%d fanout=%d failed=%d",
		event.FreetID, len(followers)+1, failCount)

	return nil
}

// handleFreetDeleted removes a freet from all followers' feed caches.
func (h *Handler) handleFreetDeleted(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] FreetDeleted: freet=%d author=%d", event.FreetID, event.AuthorID)

	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	log.Printf("[Worker] FreetDeleted: removing from %d followers' feeds", len(followers))

	var failCount int
	for _, followerID := range followers {
		err := h.feedCache.RemoveFreet(ctx, followerID, event.FreetID)
		if err != nil {
			log.Printf("[Worker] FreetDeleted: failed to remove from user=%d err=%v", followerID, err)
			failCount++
		}
	}

	// Also remove from author's own feed
	if err := h.feedCache.RemoveFreet(ctx, event.AuthorID, event.FreetID); err != nil {
		log.Printf("[Worker] FreetDeleted: failed to remove from author's own feed err=%v", err)
	}

	log.Printf("[Worker] FreetDeleted DONE: freet=%d fanout=%d failed=%d",
		event.FreetID, len(followers)+1, failCount)

	return nil
}

// handleUserFollowed backfills the follower's feed with followee's recent freets.
func (h *Handler) handleUserFollowed(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] UserFollowed: follower=%d followee=%d", event.FollowerID, event.FolloweeID)

	const backfillLimit = 20
	freets, err := h.freetsProvider.GetRecentFreetsByUser(ctx, event.FolloweeID, backfillLimit)
	if err != nil {
		return fmt.Errorf("get recent freets: %w", err)
	}

	if len(freets) > 0 {
		log.Printf("[Worker] UserFollowed: backfilling %d freets to follower=%d", len(freets), event.FollowerID)

		var failCount int
		for _, f := range freets {
			err := h.feedCache.AddFreet(ctx, event.FollowerID, f.FreetID, f.Timestamp)
			if err != nil {
				log.Printf("[Worker] UserFollowed: failed to add freet=%d err=%v", f.FreetID, err)
				failCount++
			}
		}

		log.Printf("[Worker] UserFollowed DONE: follower=%d backfilled=%d failed=%d",
			event.FollowerID, len(freets), failCount)
	} else {
		log.Printf("[Worker] UserFollowed: followee=%d has no freets to backfill", event.FolloweeID)
	}

	// Create follow notification for the followee
	if h.notifCreator != nil {
		err := h.notifCreator.CreateNotification(ctx, event.FolloweeID, event.FollowerID, "follow", nil, nil)
		if err != nil {
			log.Printf("[Worker] UserFollowed: failed to create notification: %v", err)
		}
	}

	return nil
}

// handleUserUnfollowed removes the followee's freets from the follower's feed.
func (h *Handler) handleUserUnfollowed(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] UserUnfollowed: follower=%d followee=%d", event.FollowerID, event.FolloweeID)

	// Higher limit than backfill since we want to remove all their freets
	const removeLimit = 100
	freets, err := h.freetsProvider.GetRecentFreetsByUser(ctx, event.FolloweeID, removeLimit)
	if err != nil {
		return fmt.Errorf("get freets to remove: %w", err)
	}

	if len(freets) == 0 {
		log.Printf("[Worker] UserUnfollowed: followee=%d has no freets to remove", event.FolloweeID)
		return nil
	}

	log.Printf("[Worker] UserUnfollowed: removing %d freets from follower=%d", len(freets), event.FollowerID)

	var failCount int
	for _, f := range freets {
		err := h.feedCache.RemoveFreet(ctx, event.FollowerID, f.FreetID)
		if err != nil {
			log.Printf("[Worker] UserUnfollowed: failed to remove freet=%d err=%v", f.FreetID, err)
			failCount++
		}
	}

	log.Printf("[Worker] UserUnfollowed DONE: follower=%d removed=%d failed=%d",
		event.FollowerID, len(freets), failCount)

	return nil
}

// handleFreetLiked creates a notification for the freet author when someone likes their freet.
func (h *Handler) handleFreetLiked(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] FreetLiked: freet=%d actor=%d recipient=%d", event.FreetID, event.ActorID, event.RecipientID)

	if h.notifCreator == nil {
		log.Printf("[Worker] FreetLiked: notification creator not set, skipping")
		return nil
	}

	// Don't notify if liking own freet
	if event.ActorID == event.RecipientID {
		return nil
	}

	freetID := event.FreetID
	err := h.notifCreator.CreateNotification(ctx, event.RecipientID, event.ActorID, "like", &freetID, nil)
	if err != nil {
		return fmt.Errorf("create like notification: %w", err)
	}

	return nil
}

// handleFreetCommented creates a notification for the freet author when someone comments.
func (h *Handler) handleFreetCommented(ctx context.Context, event queue.FeedEvent) error {
	log.Printf("[Worker] FreetCommented: freet=%d actor=%d recipient=%d", event.FreetID, event.ActorID, event.RecipientID)

	if h.notifCreator == nil {
		log.Printf("[Worker] FreetCommented: notification creator not set, skipping")
		return nil
	}

	if event.ActorID == event.RecipientID {
		return nil
	}

	freetID := event.FreetID
	commentID := event.CommentID
	err := h.notifCreator.CreateNotification(ctx, event.RecipientID, event.ActorID, "comment", &freetID, &commentID)
	if err != nil {
		return fmt.Errorf("create comment notification: %w", err)
	}

	return nil
}
