package service

import (
	"context"
	"testing"

	"freets-backend/internal/cache"
	"freets-backend/internal/model"
)

type mockFeedCache struct {
	addFreetFn    func(ctx context.Context, userID, freetID int64, timestamp int64) error
	removeFreetFn func(ctx context.Context, userID, freetID int64) error
	getFeedFn     func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error)
	warmCacheFn   func(ctx context.Context, userID int64, freets []cache.FreetScore) error
	existsFn      func(ctx context.Context, userID int64) (bool, error)
}

func (m *mockFeedCache) AddFreet(ctx context.Context, userID, freetID int64, timestamp int64) error {
	if m.addFreetFn != nil {
		return m.addFreetFn(ctx, userID, freetID, timestamp)
	}
	return nil
}

func (m *mockFeedCache) RemoveFreet(ctx context.Context, userID, freetID int64) error {
	if m.removeFreetFn != nil {
		return m.removeFreetFn(ctx, userID, freetID)
	}
	return nil
}

func (m *mockFeedCache) GetFeed(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	if m.getFeedFn != nil {
		return m.getFeedFn(ctx, userID, cursorScore, limit)
	}
	return nil, nil, nil
}

func (m *mockFeedCache) GetScore(ctx context.Context, userID, freetID int64) (int64, bool, error) {
	return 0, false, nil
}

func (m *mockFeedCache) WarmCache(ctx context.Context, userID int64, freets []cache.FreetScore) error {
	if m.warmCacheFn != nil {
		return m.warmCacheFn(ctx, userID, freets)
	}
	return nil
}

func (m *mockFeedCache) Size(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (m *mockFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, userID)
	}
	return true, nil
}

func TestFeedService_GetFeed(t *testing.T) {
	feedCache := &mockFeedCache{
		getFeedFn: func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
			return []int64{7, 3}, []float64{2000, 1000}, nil
		},
	}
	freetRepo := &mockFreetRepository{
		getByIDsFn: func(ctx context.Context, freetIDs []int64) ([]model.Freet, error) {
			return []model.Freet{
				{ID: 7, AuthorID: 2, Content: "newer"},
				{ID: 3, AuthorID: 2, Content: "older"},
			}, nil
		},
		checkLikesFn: func(ctx context.Context, userID int64, freetIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{7: true}, nil
		},
	}
	userRepo := &mockUserRepository{
		getSummariesByIDsFn: func(ctx context.Context, userIDs []int64) ([]model.UserSummary, error) {
			return []model.UserSummary{{ID: 2, Username: "alice"}}, nil
		},
	}
	followRepo := &mockFollowRepository{
		checkFollowsFn: func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{2: true}, nil
		},
	}

	svc := NewFeedService(feedCache, freetRepo, followRepo, userRepo)

	resp, err := svc.GetFeed(context.Background(), 1, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Freets) != 2 {
		t.Fatalf("expected 2 freets, got %d", len(resp.Freets))
	}
	if resp.Freets[0].ID != 7 || resp.Freets[1].ID != 3 {
		t.Errorf("expected cache order [7 3], got [%d %d]", resp.Freets[0].ID, resp.Freets[1].ID)
	}
	if resp.Freets[0].Author.Username != "alice" || !resp.Freets[0].Author.IsFollowing {
		t.Errorf("expected enriched author alice (following), got %+v", resp.Freets[0].Author)
	}
	if !resp.Freets[0].IsLiked || resp.Freets[1].IsLiked {
		t.Errorf("expected only freet 7 liked, got %v/%v", resp.Freets[0].IsLiked, resp.Freets[1].IsLiked)
	}
	if !resp.HasMore {
		t.Error("expected HasMore when a full page is returned")
	}
	if resp.NextCursor == nil || *resp.NextCursor != "3:1000" {
		t.Errorf("expected next cursor 3:1000, got %v", resp.NextCursor)
	}
}

func TestFeedService_GetFeed_WarmsOnCacheMiss(t *testing.T) {
	var warmed []cache.FreetScore
	feedCache := &mockFeedCache{
		existsFn: func(ctx context.Context, userID int64) (bool, error) {
			return false, nil
		},
		warmCacheFn: func(ctx context.Context, userID int64, freets []cache.FreetScore) error {
			warmed = freets
			return nil
		},
	}

	var gotFolloweeIDs []int64
	freetRepo := &mockFreetRepository{
		getFeedFreetIDsFn: func(ctx context.Context, followeeIDs []int64, limit int) ([]cache.FreetScore, error) {
			gotFolloweeIDs = followeeIDs
			return []cache.FreetScore{{FreetID: 4, Timestamp: 1500}}, nil
		},
	}
	followRepo := &mockFollowRepository{
		getFolloweeIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2, 3}, nil
		},
	}

	svc := NewFeedService(feedCache, freetRepo, followRepo, &mockUserRepository{})

	if _, err := svc.GetFeed(context.Background(), 1, nil, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Warm path pulls freets from followees plus the user's own
	if len(gotFolloweeIDs) != 3 || gotFolloweeIDs[2] != 1 {
		t.Errorf("expected followee IDs [2 3 1], got %v", gotFolloweeIDs)
	}
	if len(warmed) != 1 || warmed[0].FreetID != 4 {
		t.Errorf("expected warm with freet 4, got %v", warmed)
	}
}

func TestFeedService_GetFeed_InvalidCursor(t *testing.T) {
	svc := NewFeedService(&mockFeedCache{}, &mockFreetRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	cursor := "not-a-cursor"
	if _, err := svc.GetFeed(context.Background(), 1, &cursor, 10); err == nil {
		t.Fatal("expected error for malformed cursor")
	}
}

func TestFeedService_GetFeed_Empty(t *testing.T) {
	svc := NewFeedService(&mockFeedCache{}, &mockFreetRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	resp, err := svc.GetFeed(context.Background(), 1, nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Freets) != 0 || resp.HasMore {
		t.Errorf("expected empty feed, got %d freets hasMore=%v", len(resp.Freets), resp.HasMore)
	}
}

func TestFeedCursorRoundTrip(t *testing.T) {
	c := formatFeedCursor(1723456789, 42)
	score, id, err := parseFeedCursor(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 || score != 1723456789 {
		t.Errorf("expected id=42 score=1723456789, got id=%d score=%.0f", id, score)
	}
}
