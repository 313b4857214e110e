package worker

import (
	"context"
	"errors"
	"testing"

	"freets-backend/internal/cache"
	"freets-backend/internal/queue"
)

// =============================================================================
// MOCKS
// =============================================================================

type mockFeedCache struct {
	addFreetFn    func(ctx context.Context, userID, freetID int64, timestamp int64) error
	removeFreetFn func(ctx context.Context, userID, freetID int64) error

	addCalls    []feedCall
	removeCalls []feedCall
}

type feedCall struct {
	UserID  int64
	FreetID int64
}

func (m *mockFeedCache) AddFreet(ctx context.Context, userID, freetID int64, timestamp int64) error {
	m.addCalls = append(m.addCalls, feedCall{UserID: userID, FreetID: freetID})
	if m.addFreetFn != nil {
		return m.addFreetFn(ctx, userID, freetID, timestamp)
	}
	return nil
}

func (m *mockFeedCache) RemoveFreet(ctx context.Context, userID, freetID int64) error {
	m.removeCalls = append(m.removeCalls, feedCall{UserID: userID, FreetID: freetID})
	if m.removeFreetFn != nil {
		return m.removeFreetFn(ctx, userID, freetID)
	}
	return nil
}

func (m *mockFeedCache) GetFeed(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	return nil, nil, nil
}

func (m *mockFeedCache) GetScore(ctx context.Context, userID, freetID int64) (int64, bool, error) {
	return 0, false, nil
}

func (m *mockFeedCache) WarmCache(ctx context.Context, userID int64, freets []cache.FreetScore) error {
	return nil
}

func (m *mockFeedCache) Size(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (m *mockFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	return true, nil
}

type mockFollowerProvider struct {
	followerIDs []int64
	err         error
}

func (m *mockFollowerProvider) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	return m.followerIDs, m.err
}

type mockFreetsProvider struct {
	freets []cache.FreetScore
	err    error
}

func (m *mockFreetsProvider) GetRecentFreetsByUser(ctx context.Context, userID int64, limit int) ([]cache.FreetScore, error) {
	return m.freets, m.err
}

type mockNotifCreator struct {
	calls []notifCall
	err   error
}

type notifCall struct {
	UserID    int64
	ActorID   int64
	Type      string
	FreetID   *int64
	CommentID *int64
}

func (m *mockNotifCreator) CreateNotification(ctx context.Context, userID, actorID int64, notifType string, freetID, commentID *int64) error {
	m.calls = append(m.calls, notifCall{UserID: userID, ActorID: actorID, Type: notifType, FreetID: freetID, CommentID: commentID})
	return m.err
}

// =============================================================================
// FAN-OUT TESTS
// =============================================================================

func TestHandler_FreetCreated_FanOut(t *testing.T) {
	feedCache := &mockFeedCache{}
	followers := &mockFollowerProvider{followerIDs: []int64{2, 3, 4}}

	h := NewHandler(feedCache, followers, &mockFreetsProvider{})

	event := queue.NewFreetCreatedEvent(100, 1)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3 followers + author's own feed
	if len(feedCache.addCalls) != 4 {
		t.Fatalf("AddFreet called %d times, want 4", len(feedCache.addCalls))
	}

	seen := make(map[int64]bool)
	for _, c := range feedCache.addCalls {
		if c.FreetID != 100 {
			t.Errorf("added freet=%d, want 100", c.FreetID)
		}
		seen[c.UserID] = true
	}
	for _, want := range []int64{1, 2, 3, 4} {
		if !seen[want] {
			t.Errorf("freet not added to user=%d's feed", want)
		}
	}
}

func TestHandler_FreetCreated_PartialFailure(t *testing.T) {
	// One follower's cache write fails; the rest must still be served.
	feedCache := &mockFeedCache{
		addFreetFn: func(ctx context.Context, userID, freetID int64, timestamp int64) error {
			if userID == 3 {
				return errors.New("redis timeout")
			}
			return nil
		},
	}
	followers := &mockFollowerProvider{followerIDs: []int64{2, 3, 4}}

	h := NewHandler(feedCache, followers, &mockFreetsProvider{})

	event := queue.NewFreetCreatedEvent(100, 1)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("fan-out should not fail on single follower error: %v", err)
	}

	if len(feedCache.addCalls) != 4 {
		t.Errorf("AddFreet called %d times, want 4 (all attempted)", len(feedCache.addCalls))
	}
}

func TestHandler_FreetDeleted_RemovesFromAllFeeds(t *testing.T) {
	feedCache := &mockFeedCache{}
	followers := &mockFollowerProvider{followerIDs: []int64{2, 3}}

	h := NewHandler(feedCache, followers, &mockFreetsProvider{})

	event := queue.NewFreetDeletedEvent(100, 1)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2 followers + author
	if len(feedCache.removeCalls) != 3 {
		t.Errorf("RemoveFreet called %d times, want 3", len(feedCache.removeCalls))
	}
}

// =============================================================================
// FOLLOW / UNFOLLOW TESTS
// =============================================================================

func TestHandler_UserFollowed_BackfillsAndNotifies(t *testing.T) {
	feedCache := &mockFeedCache{}
	freets := &mockFreetsProvider{freets: []cache.FreetScore{
		{FreetID: 10, Timestamp: 1000},
		{FreetID: 11, Timestamp: 2000},
	}}
	notif := &mockNotifCreator{}

	h := NewHandler(feedCache, &mockFollowerProvider{}, freets)
	h.SetNotificationCreator(notif)

	event := queue.NewUserFollowedEvent(5, 1)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(feedCache.addCalls) != 2 {
		t.Errorf("AddFreet called %d times, want 2 (backfill)", len(feedCache.addCalls))
	}
	for _, c := range feedCache.addCalls {
		if c.UserID != 5 {
			t.Errorf("backfilled into user=%d's feed, want follower 5", c.UserID)
		}
	}

	if len(notif.calls) != 1 {
		t.Fatalf("CreateNotification called %d times, want 1", len(notif.calls))
	}
	if notif.calls[0].UserID != 1 || notif.calls[0].ActorID != 5 || notif.calls[0].Type != "follow" {
		t.Errorf("notification = %+v, want follow from 5 to 1", notif.calls[0])
	}
}

func TestHandler_UserUnfollowed_RemovesFolloweeFreets(t *testing.T) {
	feedCache := &mockFeedCache{}
	freets := &mockFreetsProvider{freets: []cache.FreetScore{
		{FreetID: 10, Timestamp: 1000},
		{FreetID: 11, Timestamp: 2000},
	}}

	h := NewHandler(feedCache, &mockFollowerProvider{}, freets)

	event := queue.NewUserUnfollowedEvent(5, 1)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(feedCache.removeCalls) != 2 {
		t.Errorf("RemoveFreet called %d times, want 2", len(feedCache.removeCalls))
	}
}

// =============================================================================
// NOTIFICATION EVENT TESTS
// =============================================================================

func TestHandler_FreetLiked_Notifies(t *testing.T) {
	notif := &mockNotifCreator{}

	h := NewHandler(&mockFeedCache{}, &mockFollowerProvider{}, &mockFreetsProvider{})
	h.SetNotificationCreator(notif)

	event := queue.NewFreetLikedEvent(100, 5, 1)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notif.calls) != 1 {
		t.Fatalf("CreateNotification called %d times, want 1", len(notif.calls))
	}
	call := notif.calls[0]
	if call.Type != "like" || call.UserID != 1 || call.ActorID != 5 {
		t.Errorf("notification = %+v, want like from 5 to 1", call)
	}
	if call.FreetID == nil || *call.FreetID != 100 {
		t.Errorf("notification freet = %v, want 100", call.FreetID)
	}
}

func TestHandler_FreetLiked_SelfLikeSkipsNotification(t *testing.T) {
	notif := &mockNotifCreator{}

	h := NewHandler(&mockFeedCache{}, &mockFollowerProvider{}, &mockFreetsProvider{})
	h.SetNotificationCreator(notif)

	event := queue.NewFreetLikedEvent(100, 1, 1) // actor == recipient
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notif.calls) != 0 {
		t.Errorf("CreateNotification called %d times for self-like, want 0", len(notif.calls))
	}
}

func TestHandler_FreetCommented_Notifies(t *testing.T) {
	notif := &mockNotifCreator{}

	h := NewHandler(&mockFeedCache{}, &mockFollowerProvider{}, &mockFreetsProvider{})
	h.SetNotificationCreator(notif)

	event := queue.NewFreetCommentedEvent(100, 55, 5, 1)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notif.calls) != 1 {
		t.Fatalf("CreateNotification called %d times, want 1", len(notif.calls))
	}
	call := notif.calls[0]
	if call.Type != "comment" {
		t.Errorf("notification type = %q, want comment", call.Type)
	}
	if call.CommentID == nil || *call.CommentID != 55 {
		t.Errorf("notification comment = %v, want 55", call.CommentID)
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	h := NewHandler(&mockFeedCache{}, &mockFollowerProvider{}, &mockFreetsProvider{})

	err := h.HandleEvent(context.Background(), queue.FeedEvent{Type: "mystery"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
