package service

import (
	"context"
	"errors"
	"testing"

	"freets-backend/internal/model"
)

type mockNotificationRepository struct {
	createFn            func(ctx context.Context, userID, actorID int64, notifType string, freetID, commentID *int64) error
	getFollowsFn        func(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	getAggregatedFn     func(ctx context.Context, userID int64, limit int) ([]model.AggregatedNotification, error)
	markAsReadFn        func(ctx context.Context, userID int64, notificationIDs []int64) error
	markAllAsReadFn     func(ctx context.Context, userID int64) error
	getUnreadCountFn    func(ctx context.Context, userID int64) (int, error)
	createCallCount     int
	lastCreateUserID    int64
	lastCreateActorID   int64
	lastCreateNotifType string
}

func (m *mockNotificationRepository) Create(ctx context.Context, userID, actorID int64, notifType string, freetID, commentID *int64) error {
	m.createCallCount++
	m.lastCreateUserID = userID
	m.lastCreateActorID = actorID
	m.lastCreateNotifType = notifType
	if m.createFn != nil {
		return m.createFn(ctx, userID, actorID, notifType, freetID, commentID)
	}
	return nil
}

func (m *mockNotificationRepository) GetFollowNotifications(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	if m.getFollowsFn != nil {
		return m.getFollowsFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockNotificationRepository) GetAggregatedNotifications(ctx context.Context, userID int64, limit int) ([]model.AggregatedNotification, error) {
	if m.getAggregatedFn != nil {
		return m.getAggregatedFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockNotificationRepository) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	if m.markAsReadFn != nil {
		return m.markAsReadFn(ctx, userID, notificationIDs)
	}
	return nil
}

func (m *mockNotificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	if m.markAllAsReadFn != nil {
		return m.markAllAsReadFn(ctx, userID)
	}
	return nil
}

func (m *mockNotificationRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	if m.getUnreadCountFn != nil {
		return m.getUnreadCountFn(ctx, userID)
	}
	return 0, nil
}

type mockDeviceTokenRepository struct {
	upsertFn      func(ctx context.Context, userID int64, token, platform string) error
	getByUserIDFn func(ctx context.Context, userID int64) ([]model.DeviceToken, error)
	deleteFn      func(ctx context.Context, token string) error
}

func (m *mockDeviceTokenRepository) Upsert(ctx context.Context, userID int64, token, platform string) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, userID, token, platform)
	}
	return nil
}

func (m *mockDeviceTokenRepository) GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error) {
	if m.getByUserIDFn != nil {
		return m.getByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDeviceTokenRepository) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func TestNotificationService_GetNotifications(t *testing.T) {
	var gotLimit int
	notifRepo := &mockNotificationRepository{
		getFollowsFn: func(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
			gotLimit = limit
			return []model.Notification{{ID: 1, Type: model.NotificationTypeFollow, ActorID: 2}}, nil
		},
		getAggregatedFn: func(ctx context.Context, userID int64, limit int) ([]model.AggregatedNotification, error) {
			return []model.AggregatedNotification{{Type: model.NotificationTypeLike, TotalCount: 3}}, nil
		},
		getUnreadCountFn: func(ctx context.Context, userID int64) (int, error) {
			return 4, nil
		},
	}

	svc := NewNotificationService(notifRepo, &mockDeviceTokenRepository{}, &mockUserRepository{}, nil)

	resp, err := svc.GetNotifications(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 20 {
		t.Errorf("expected default limit 20, got %d", gotLimit)
	}
	if len(resp.Follows) != 1 || len(resp.Aggregated) != 1 {
		t.Errorf("expected 1 follow and 1 aggregated, got %d/%d", len(resp.Follows), len(resp.Aggregated))
	}
	if resp.UnreadCount != 4 {
		t.Errorf("expected unread count 4, got %d", resp.UnreadCount)
	}

	// Limit is clamped to 50
	if _, err := svc.GetNotifications(context.Background(), 1, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 50 {
		t.Errorf("expected limit clamped to 50, got %d", gotLimit)
	}
}

func TestNotificationService_GetNotifications_UnreadCountDegrades(t *testing.T) {
	notifRepo := &mockNotificationRepository{
		getUnreadCountFn: func(ctx context.Context, userID int64) (int, error) {
			return 0, errors.New("db down")
		},
	}

	svc := NewNotificationService(notifRepo, &mockDeviceTokenRepository{}, &mockUserRepository{}, nil)

	resp, err := svc.GetNotifications(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unread count failure should not fail the request: %v", err)
	}
	if resp.UnreadCount != 0 {
		t.Errorf("expected unread count 0 on error, got %d", resp.UnreadCount)
	}
}

func TestNotificationService_CreateNotification_SkipsSelf(t *testing.T) {
	notifRepo := &mockNotificationRepository{}
	svc := NewNotificationService(notifRepo, &mockDeviceTokenRepository{}, &mockUserRepository{}, nil)

	if err := svc.CreateNotification(context.Background(), 5, 5, model.NotificationTypeLike, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifRepo.createCallCount != 0 {
		t.Errorf("expected no notification for self-interaction, got %d creates", notifRepo.createCallCount)
	}
}

func TestNotificationService_CreateNotification(t *testing.T) {
	notifRepo := &mockNotificationRepository{}
	svc := NewNotificationService(notifRepo, &mockDeviceTokenRepository{}, &mockUserRepository{}, nil)

	freetID := int64(9)
	if err := svc.CreateNotification(context.Background(), 5, 6, model.NotificationTypeComment, &freetID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifRepo.createCallCount != 1 {
		t.Fatalf("expected 1 create, got %d", notifRepo.createCallCount)
	}
	if notifRepo.lastCreateUserID != 5 || notifRepo.lastCreateActorID != 6 {
		t.Errorf("expected create for user 5 by actor 6, got user %d actor %d",
			notifRepo.lastCreateUserID, notifRepo.lastCreateActorID)
	}
	if notifRepo.lastCreateNotifType != model.NotificationTypeComment {
		t.Errorf("expected type comment, got %q", notifRepo.lastCreateNotifType)
	}
}

func TestNotificationService_RegisterDeviceToken_DefaultPlatform(t *testing.T) {
	var gotPlatform string
	tokenRepo := &mockDeviceTokenRepository{
		upsertFn: func(ctx context.Context, userID int64, token, platform string) error {
			gotPlatform = platform
			return nil
		},
	}
	svc := NewNotificationService(&mockNotificationRepository{}, tokenRepo, &mockUserRepository{}, nil)

	if err := svc.RegisterDeviceToken(context.Background(), 1, "ExponentPushToken[abc]", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPlatform != "expo" {
		t.Errorf("expected default platform %q, got %q", "expo", gotPlatform)
	}
}

func TestNotificationService_BuildPushMessage(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepository{}, &mockDeviceTokenRepository{}, &mockUserRepository{}, nil)

	tests := []struct {
		notifType string
		wantTitle string
		wantBody  string
	}{
		{model.NotificationTypeFollow, "New Follower", "alice started following you"},
		{model.NotificationTypeLike, "New Like", "alice liked your freet"},
		{model.NotificationTypeComment, "New Comment", "alice commented on your freet"},
		{"unknown", "Freets", "You have a new notification"},
	}

	for _, tt := range tests {
		t.Run(tt.notifType, func(t *testing.T) {
			title, body := svc.buildPushMessage("alice", tt.notifType)
			if title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, title)
			}
			if body != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, body)
			}
		})
	}
}
