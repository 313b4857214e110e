package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"freets-backend/internal/cache"
	"freets-backend/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	GetSummariesByIDs(ctx context.Context, userIDs []int64) ([]model.UserSummary, error)
	UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) error
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFreetCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type FollowRepository interface {
	// Create inserts the edge if absent; reports whether a new edge was written.
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	// Delete removes the edge if present; reports whether an edge was removed.
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	// ID-only traversals used by the visibility engine and the feed worker.
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error)
}

type CircleRepository interface {
	Create(ctx context.Context, ownerID int64, name string) (*model.Circle, error)
	GetByID(ctx context.Context, circleID int64) (*model.Circle, error)
	// GetByName resolves a circle by its globally unique name.
	GetByName(ctx context.Context, name string) (*model.Circle, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, circleID int64) (bool, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Circle, error)
	AddMember(ctx context.Context, circleID, userID int64) error
	RemoveMember(ctx context.Context, circleID, userID int64) error
	GetMemberIDs(ctx context.Context, circleID int64) ([]int64, error)
	GetMembers(ctx context.Context, circleID int64) ([]model.UserSummary, error)
	// GetMembersOfCircles returns the distinct union of member ids across the
	// given circles. IDs of circles that no longer exist contribute nothing.
	GetMembersOfCircles(ctx context.Context, circleIDs []int64) ([]int64, error)
}

type AlbumRepository interface {
	Create(ctx context.Context, ownerID int64, name string, initialViewerIDs []int64) (*model.Album, error)
	GetByID(ctx context.Context, albumID int64) (*model.Album, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, albumID int64) (bool, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Album, error)
	ListAll(ctx context.Context) ([]model.Album, error)
	AddCircle(ctx context.Context, albumID, circleID int64) error
	RemoveCircle(ctx context.Context, albumID, circleID int64) error
	GetCircleIDs(ctx context.Context, albumID int64) ([]int64, error)
	AddFreet(ctx context.Context, albumID, freetID int64) error
	RemoveFreet(ctx context.Context, albumID, freetID int64) error
	// GetFreetIDs returns the album's freet ids ordered by when they were added.
	GetFreetIDs(ctx context.Context, albumID int64) ([]int64, error)
}

type FreetRepository interface {
	Create(ctx context.Context, authorID int64, content string, imageURLs []string) (*model.Freet, error)
	GetByID(ctx context.Context, freetID int64) (*model.Freet, error)
	GetByIDs(ctx context.Context, freetIDs []int64) ([]model.Freet, error)
	Delete(ctx context.Context, freetID, authorID int64) error
	Exists(ctx context.Context, freetID int64) (bool, error)
	GetAuthorID(ctx context.Context, freetID int64) (int64, error)
	GetUserFreets(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Freet, *string, error)
	GetRecentFreetsByUser(ctx context.Context, userID int64, limit int) ([]cache.FreetScore, error)
	GetFeedFreetIDs(ctx context.Context, followeeIDs []int64, limit int) ([]cache.FreetScore, error)
	// Like methods
	Like(ctx context.Context, tx *sqlx.Tx, freetID, userID int64) (bool, error)
	Unlike(ctx context.Context, tx *sqlx.Tx, freetID, userID int64) (bool, error)
	CheckLikes(ctx context.Context, userID int64, freetIDs []int64) (map[int64]bool, error)
	GetFreetLikers(ctx context.Context, freetID int64, cursor *string, limit int) ([]model.UserSummary, *string, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, freetID int64, delta int) error
	IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, freetID int64, delta int) error
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, freetID, userID int64, content string) (*model.Comment, error)
	Update(ctx context.Context, commentID, userID int64, content string) (*model.Comment, error)
	Delete(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) (freetID int64, err error)
	GetByFreetID(ctx context.Context, freetID int64, cursor *string, limit int) ([]model.Comment, *string, error)
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, userID, actorID int64, notifType string, freetID, commentID *int64) error
	GetFollowNotifications(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	GetAggregatedNotifications(ctx context.Context, userID int64, limit int) ([]model.AggregatedNotification, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
}

type DeviceTokenRepository interface {
	Upsert(ctx context.Context, userID int64, token, platform string) error
	GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error)
	Delete(ctx context.Context, token string) error
}
