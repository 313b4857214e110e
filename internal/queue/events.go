package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the feed stream
const (
	EventFreetCreated   = "freet_created"
	EventFreetDeleted   = "freet_deleted"
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
	EventFreetLiked     = "freet_liked"
	EventFreetCommented = "freet_commented"
)

// Stream names
const (
	StreamFeed = "stream:feed"
)

// Consumer group name for feed workers
const (
	ConsumerGroupFeed = "feed_workers"
)

// FeedEvent represents an event published to the feed stream.
// All feed-related events share this structure.
type FeedEvent struct {
	Type      string `json:"type"`      // one of the Event* constants
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Freet events (FreetCreated, FreetDeleted, FreetLiked, FreetCommented)
	FreetID  int64 `json:"freet_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"`

	// Follow events (UserFollowed, UserUnfollowed)
	FollowerID int64 `json:"follower_id,omitempty"`
	FolloweeID int64 `json:"followee_id,omitempty"`

	// Interaction events (FreetLiked, FreetCommented)
	ActorID     int64 `json:"actor_id,omitempty"`     // who liked/commented
	RecipientID int64 `json:"recipient_id,omitempty"` // who gets notified
	CommentID   int64 `json:"comment_id,omitempty"`
}

// NewFreetCreatedEvent creates an event for when a user posts a freet.
// Worker will fan-out this freet to all followers' feed caches.
func NewFreetCreatedEvent(freetID, authorID int64) FeedEvent {
	return FeedEvent{
		Type:      EventFreetCreated,
		Timestamp: time.Now().Unix(),
		FreetID:   freetID,
		AuthorID:  authorID,
	}
}

// NewFreetDeletedEvent creates an event for when a user deletes a freet.
// Worker will remove this freet from all followers' feed caches.
func NewFreetDeletedEvent(freetID, authorID int64) FeedEvent {
	return FeedEvent{
		Type:      EventFreetDeleted,
		Timestamp: time.Now().Unix(),
		FreetID:   freetID,
		AuthorID:  authorID,
	}
}

// NewUserFollowedEvent creates an event for when a user follows another.
// Worker will backfill recent freets from followee into follower's feed
// cache and create a follow notification.
func NewUserFollowedEvent(followerID, followeeID int64) FeedEvent {
	return FeedEvent{
		Type:       EventUserFollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// NewUserUnfollowedEvent creates an event for when a user unfollows another.
// Worker will remove followee's freets from follower's feed cache.
func NewUserUnfollowedEvent(followerID, followeeID int64) FeedEvent {
	return FeedEvent{
		Type:       EventUserUnfollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// NewFreetLikedEvent creates an event for when a user likes a freet.
// Worker will create a like notification for the freet author.
func NewFreetLikedEvent(freetID, actorID, recipientID int64) FeedEvent {
	return FeedEvent{
		Type:        EventFreetLiked,
		Timestamp:   time.Now().Unix(),
		FreetID:     freetID,
		ActorID:     actorID,
		RecipientID: recipientID,
	}
}

// NewFreetCommentedEvent creates an event for when a user comments on a freet.
// Worker will create a comment notification for the freet author.
func NewFreetCommentedEvent(freetID, commentID, actorID, recipientID int64) FeedEvent {
	return FeedEvent{
		Type:        EventFreetCommented,
		Timestamp:   time.Now().Unix(),
		FreetID:     freetID,
		CommentID:   commentID,
		ActorID:     actorID,
		RecipientID: recipientID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e FeedEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseFeedEvent parses a FeedEvent from Redis stream message values.
func ParseFeedEvent(values map[string]interface{}) (FeedEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return FeedEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event FeedEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return FeedEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
