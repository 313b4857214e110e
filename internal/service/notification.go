package service

import (
	"context"
	"log"

	"freets-backend/internal/model"
	"freets-backend/internal/repository"
)

// NotificationService handles notification-related business logic.
// It manages both polling (in-app) and push (Expo Push) notifications.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	tokenRepo repository.DeviceTokenRepository
	userRepo  repository.UserRepository
	expoPush  *ExpoPushClient // Can be nil if push not configured
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	tokenRepo repository.DeviceTokenRepository,
	userRepo repository.UserRepository,
	expoPush *ExpoPushClient,
) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		expoPush:  expoPush,
	}
}

// GetNotifications returns all notifications for a user.
// Follow notifications are returned individually; like/comment notifications
// are aggregated by freet ("user1 and 5 others liked your freet").
func (s *NotificationService) GetNotifications(ctx context.Context, userID int64, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	follows, err := s.notifRepo.GetFollowNotifications(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	aggregated, err := s.notifRepo.GetAggregatedNotifications(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.notifRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		log.Printf("[NotificationService] Failed to get unread count for user %d: %v", userID, err)
		unreadCount = 0
	}

	return &model.NotificationListResponse{
		Follows:     follows,
		Aggregated:  aggregated,
		UnreadCount: unreadCount,
	}, nil
}

// MarkAsRead marks specific notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	return s.notifRepo.MarkAsRead(ctx, userID, notificationIDs)
}

// MarkAllAsRead marks all notifications for a user as read.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.notifRepo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the number of unread notifications (for badge display).
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifRepo.GetUnreadCount(ctx, userID)
}

// RegisterDeviceToken stores or updates a device's Expo push token.
// The token is unique; if the same token exists for a different user it is
// reassigned to the current user (device changed hands).
func (s *NotificationService) RegisterDeviceToken(ctx context.Context, userID int64, token, platform string) error {
	if platform == "" {
		platform = "expo"
	}

	return s.tokenRepo.Upsert(ctx, userID, token, platform)
}

// RemoveDeviceToken removes a device token (e.g., on logout).
func (s *NotificationService) RemoveDeviceToken(ctx context.Context, token string) error {
	return s.tokenRepo.Delete(ctx, token)
}

// CreateNotification creates a notification and optionally sends a push.
// Called by the feed workers when they process interaction events.
func (s *NotificationService) CreateNotification(
	ctx context.Context,
	userID, actorID int64,
	notifType string,
	freetID, commentID *int64,
) error {
	// Don't notify yourself
	if userID == actorID {
		return nil
	}

	if err := s.notifRepo.Create(ctx, userID, actorID, notifType, freetID, commentID); err != nil {
		return err
	}

	// Send push notification (async, don't block)
	if s.expoPush != nil {
		go s.sendPushNotification(context.Background(), userID, actorID, notifType, freetID)
	}

	return nil
}

// sendPushNotification sends a push notification to all of the user's devices.
// Called asynchronously; errors are logged but never fail the request.
func (s *NotificationService) sendPushNotification(ctx context.Context, userID, actorID int64, notifType string, freetID *int64) {
	tokens, err := s.tokenRepo.GetByUserID(ctx, userID)
	if err != nil {
		log.Printf("[NotificationService] Failed to get device tokens for user %d: %v", userID, err)
		return
	}

	if len(tokens) == 0 {
		return // User has no registered devices
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		log.Printf("[NotificationService] Failed to get actor %d: %v", actorID, err)
		return
	}

	title, body := s.buildPushMessage(actor.Username, notifType)

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	// Data payload for client-side navigation
	data := map[string]interface{}{
		"type":     notifType,
		"actor_id": actorID,
	}
	if freetID != nil {
		data["freet_id"] = *freetID
	}

	if err := s.expoPush.SendToTokens(tokenStrings, title, body, data); err != nil {
		log.Printf("[NotificationService] Failed to send push to user %d: %v", userID, err)
	}
}

// buildPushMessage creates the title and body for a push notification.
func (s *NotificationService) buildPushMessage(actorUsername, notifType string) (title, body string) {
	switch notifType {
	case model.NotificationTypeFollow:
		title = "New Follower"
		body = actorUsername + " started following you"
	case model.NotificationTypeLike:
		title = "New Like"
		body = actorUsername + " liked your freet"
	case model.NotificationTypeComment:
		title = "New Comment"
		body = actorUsername + " commented on your freet"
	default:
		title = "Freets"
		body = "You have a new notification"
	}
	return
}
