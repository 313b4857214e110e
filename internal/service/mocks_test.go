package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"freets-backend/internal/cache"
	"freets-backend/internal/model"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// In unit tests, we don't want to hit a real database. Instead, each mock
// implements the same repository interface but returns controlled responses.
//
// This is the KEY insight: because the services depend on the repository
// INTERFACES (not the concrete implementations), we can swap in mocks.
// Each test sets exactly the function fields it needs; unset fields fall
// back to a sensible zero behavior (usually "not found" or no-op).
//
// The mocks are shared by all service tests in this package.

// ---------------------------------------------------------------------------
// users
// ---------------------------------------------------------------------------

type mockUserRepository struct {
	createFn            func(ctx context.Context, user *model.User) error
	getByIDFn           func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn     func(ctx context.Context, username string) (*model.User, error)
	existsByUsernameFn  func(ctx context.Context, username string) (bool, error)
	searchFn            func(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	getSummariesByIDsFn func(ctx context.Context, userIDs []int64) ([]model.UserSummary, error)

	createCalls []createCall
}

type createCall struct {
	User *model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, createCall{User: user})
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return []model.UserSummary{}, nil
}

func (m *mockUserRepository) GetSummariesByIDs(ctx context.Context, userIDs []int64) ([]model.UserSummary, error) {
	if m.getSummariesByIDsFn != nil {
		return m.getSummariesByIDsFn(ctx, userIDs)
	}
	return []model.UserSummary{}, nil
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) error {
	return nil
}

func (m *mockUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (m *mockUserRepository) IncrementFreetCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

// ---------------------------------------------------------------------------
// follows
// ---------------------------------------------------------------------------

type mockFollowRepository struct {
	createFn         func(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	deleteFn         func(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	existsFn         func(ctx context.Context, followerID, followeeID int64) (bool, error)
	getFollowersFn   func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	getFollowingFn   func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	checkFollowsFn   func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	getFollowerIDsFn func(ctx context.Context, userID int64) ([]int64, error)
	getFolloweeIDsFn func(ctx context.Context, userID int64) ([]int64, error)
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, tx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, userID, cursor, limit)
	}
	return []model.UserSummary{}, nil, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, userID, cursor, limit)
	}
	return []model.UserSummary{}, nil, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followeeIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockFollowRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFollowerIDsFn != nil {
		return m.getFollowerIDsFn(ctx, userID)
	}
	return []int64{}, nil
}

func (m *mockFollowRepository) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFolloweeIDsFn != nil {
		return m.getFolloweeIDsFn(ctx, userID)
	}
	return []int64{}, nil
}

// ---------------------------------------------------------------------------
// circles
// ---------------------------------------------------------------------------

type mockCircleRepository struct {
	createFn              func(ctx context.Context, ownerID int64, name string) (*model.Circle, error)
	getByIDFn             func(ctx context.Context, circleID int64) (*model.Circle, error)
	getByNameFn           func(ctx context.Context, name string) (*model.Circle, error)
	existsByNameFn        func(ctx context.Context, name string) (bool, error)
	deleteFn              func(ctx context.Context, circleID int64) (bool, error)
	listByOwnerFn         func(ctx context.Context, ownerID int64) ([]model.Circle, error)
	addMemberFn           func(ctx context.Context, circleID, userID int64) error
	removeMemberFn        func(ctx context.Context, circleID, userID int64) error
	getMemberIDsFn        func(ctx context.Context, circleID int64) ([]int64, error)
	getMembersFn          func(ctx context.Context, circleID int64) ([]model.UserSummary, error)
	getMembersOfCirclesFn func(ctx context.Context, circleIDs []int64) ([]int64, error)

	addMemberCalls    []memberCall
	removeMemberCalls []memberCall
}

type memberCall struct {
	CircleID int64
	UserID   int64
}

func (m *mockCircleRepository) Create(ctx context.Context, ownerID int64, name string) (*model.Circle, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, name)
	}
	return &model.Circle{ID: 1, OwnerID: ownerID, Name: name}, nil
}

func (m *mockCircleRepository) GetByID(ctx context.Context, circleID int64) (*model.Circle, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, circleID)
	}
	return nil, model.ErrCircleNotFound
}

func (m *mockCircleRepository) GetByName(ctx context.Context, name string) (*model.Circle, error) {
	if m.getByNameFn != nil {
		return m.getByNameFn(ctx, name)
	}
	return nil, model.ErrCircleNotFound
}

func (m *mockCircleRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	if m.existsByNameFn != nil {
		return m.existsByNameFn(ctx, name)
	}
	return false, nil
}

func (m *mockCircleRepository) Delete(ctx context.Context, circleID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, circleID)
	}
	return true, nil
}

func (m *mockCircleRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Circle, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return []model.Circle{}, nil
}

func (m *mockCircleRepository) AddMember(ctx context.Context, circleID, userID int64) error {
	m.addMemberCalls = append(m.addMemberCalls, memberCall{CircleID: circleID, UserID: userID})
	if m.addMemberFn != nil {
		return m.addMemberFn(ctx, circleID, userID)
	}
	return nil
}

func (m *mockCircleRepository) RemoveMember(ctx context.Context, circleID, userID int64) error {
	m.removeMemberCalls = append(m.removeMemberCalls, memberCall{CircleID: circleID, UserID: userID})
	if m.removeMemberFn != nil {
		return m.removeMemberFn(ctx, circleID, userID)
	}
	return nil
}

func (m *mockCircleRepository) GetMemberIDs(ctx context.Context, circleID int64) ([]int64, error) {
	if m.getMemberIDsFn != nil {
		return m.getMemberIDsFn(ctx, circleID)
	}
	return []int64{}, nil
}

func (m *mockCircleRepository) GetMembers(ctx context.Context, circleID int64) ([]model.UserSummary, error) {
	if m.getMembersFn != nil {
		return m.getMembersFn(ctx, circleID)
	}
	return []model.UserSummary{}, nil
}

func (m *mockCircleRepository) GetMembersOfCircles(ctx context.Context, circleIDs []int64) ([]int64, error) {
	if m.getMembersOfCirclesFn != nil {
		return m.getMembersOfCirclesFn(ctx, circleIDs)
	}
	return []int64{}, nil
}

// ---------------------------------------------------------------------------
// albums
// ---------------------------------------------------------------------------

type mockAlbumRepository struct {
	createFn       func(ctx context.Context, ownerID int64, name string, initialViewerIDs []int64) (*model.Album, error)
	getByIDFn      func(ctx context.Context, albumID int64) (*model.Album, error)
	existsByNameFn func(ctx context.Context, name string) (bool, error)
	deleteFn       func(ctx context.Context, albumID int64) (bool, error)
	listByOwnerFn  func(ctx context.Context, ownerID int64) ([]model.Album, error)
	listAllFn      func(ctx context.Context) ([]model.Album, error)
	addCircleFn    func(ctx context.Context, albumID, circleID int64) error
	removeCircleFn func(ctx context.Context, albumID, circleID int64) error
	getCircleIDsFn func(ctx context.Context, albumID int64) ([]int64, error)
	addFreetFn     func(ctx context.Context, albumID, freetID int64) error
	removeFreetFn  func(ctx context.Context, albumID, freetID int64) error
	getFreetIDsFn  func(ctx context.Context, albumID int64) ([]int64, error)

	addCircleCalls []albumLinkCall
	addFreetCalls  []albumLinkCall
}

type albumLinkCall struct {
	AlbumID int64
	LinkID  int64
}

func (m *mockAlbumRepository) Create(ctx context.Context, ownerID int64, name string, initialViewerIDs []int64) (*model.Album, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, name, initialViewerIDs)
	}
	return &model.Album{ID: 1, OwnerID: ownerID, Name: name}, nil
}

func (m *mockAlbumRepository) GetByID(ctx context.Context, albumID int64) (*model.Album, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, albumID)
	}
	return nil, model.ErrAlbumNotFound
}

func (m *mockAlbumRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	if m.existsByNameFn != nil {
		return m.existsByNameFn(ctx, name)
	}
	return false, nil
}

func (m *mockAlbumRepository) Delete(ctx context.Context, albumID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, albumID)
	}
	return true, nil
}

func (m *mockAlbumRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Album, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return []model.Album{}, nil
}

func (m *mockAlbumRepository) ListAll(ctx context.Context) ([]model.Album, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return []model.Album{}, nil
}

func (m *mockAlbumRepository) AddCircle(ctx context.Context, albumID, circleID int64) error {
	m.addCircleCalls = append(m.addCircleCalls, albumLinkCall{AlbumID: albumID, LinkID: circleID})
	if m.addCircleFn != nil {
		return m.addCircleFn(ctx, albumID, circleID)
	}
	return nil
}

func (m *mockAlbumRepository) RemoveCircle(ctx context.Context, albumID, circleID int64) error {
	if m.removeCircleFn != nil {
		return m.removeCircleFn(ctx, albumID, circleID)
	}
	return nil
}

func (m *mockAlbumRepository) GetCircleIDs(ctx context.Context, albumID int64) ([]int64, error) {
	if m.getCircleIDsFn != nil {
		return m.getCircleIDsFn(ctx, albumID)
	}
	return []int64{}, nil
}

func (m *mockAlbumRepository) AddFreet(ctx context.Context, albumID, freetID int64) error {
	m.addFreetCalls = append(m.addFreetCalls, albumLinkCall{AlbumID: albumID, LinkID: freetID})
	if m.addFreetFn != nil {
		return m.addFreetFn(ctx, albumID, freetID)
	}
	return nil
}

func (m *mockAlbumRepository) RemoveFreet(ctx context.Context, albumID, freetID int64) error {
	if m.removeFreetFn != nil {
		return m.removeFreetFn(ctx, albumID, freetID)
	}
	return nil
}

func (m *mockAlbumRepository) GetFreetIDs(ctx context.Context, albumID int64) ([]int64, error) {
	if m.getFreetIDsFn != nil {
		return m.getFreetIDsFn(ctx, albumID)
	}
	return []int64{}, nil
}

// ---------------------------------------------------------------------------
// freets
// ---------------------------------------------------------------------------

type mockFreetRepository struct {
	createFn      func(ctx context.Context, authorID int64, content string, imageURLs []string) (*model.Freet, error)
	getByIDFn     func(ctx context.Context, freetID int64) (*model.Freet, error)
	getByIDsFn    func(ctx context.Context, freetIDs []int64) ([]model.Freet, error)
	existsFn      func(ctx context.Context, freetID int64) (bool, error)
	getAuthorIDFn func(ctx context.Context, freetID int64) (int64, error)
	checkLikesFn  func(ctx context.Context, userID int64, freetIDs []int64) (map[int64]bool, error)

	getFeedFreetIDsFn func(ctx context.Context, followeeIDs []int64, limit int) ([]cache.FreetScore, error)
}

func (m *mockFreetRepository) Create(ctx context.Context, authorID int64, content string, imageURLs []string) (*model.Freet, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, content, imageURLs)
	}
	return &model.Freet{ID: 1, AuthorID: authorID, Content: content}, nil
}

func (m *mockFreetRepository) GetByID(ctx context.Context, freetID int64) (*model.Freet, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, freetID)
	}
	return nil, model.ErrFreetNotFound
}

func (m *mockFreetRepository) GetByIDs(ctx context.Context, freetIDs []int64) ([]model.Freet, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, freetIDs)
	}
	return []model.Freet{}, nil
}

func (m *mockFreetRepository) Delete(ctx context.Context, freetID, authorID int64) error {
	return nil
}

func (m *mockFreetRepository) Exists(ctx context.Context, freetID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, freetID)
	}
	return false, nil
}

func (m *mockFreetRepository) GetAuthorID(ctx context.Context, freetID int64) (int64, error) {
	if m.getAuthorIDFn != nil {
		return m.getAuthorIDFn(ctx, freetID)
	}
	return 0, model.ErrFreetNotFound
}

func (m *mockFreetRepository) GetUserFreets(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Freet, *string, error) {
	return []model.Freet{}, nil, nil
}

func (m *mockFreetRepository) GetRecentFreetsByUser(ctx context.Context, userID int64, limit int) ([]cache.FreetScore, error) {
	return []cache.FreetScore{}, nil
}

func (m *mockFreetRepository) GetFeedFreetIDs(ctx context.Context, followeeIDs []int64, limit int) ([]cache.FreetScore, error) {
	if m.getFeedFreetIDsFn != nil {
		return m.getFeedFreetIDsFn(ctx, followeeIDs, limit)
	}
	return []cache.FreetScore{}, nil
}

func (m *mockFreetRepository) Like(ctx context.Context, tx *sqlx.Tx, freetID, userID int64) (bool, error) {
	return true, nil
}

func (m *mockFreetRepository) Unlike(ctx context.Context, tx *sqlx.Tx, freetID, userID int64) (bool, error) {
	return true, nil
}

func (m *mockFreetRepository) CheckLikes(ctx context.Context, userID int64, freetIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, freetIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockFreetRepository) GetFreetLikers(ctx context.Context, freetID int64, cursor *string, limit int) ([]model.UserSummary, *string, error) {
	return []model.UserSummary{}, nil, nil
}

func (m *mockFreetRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, freetID int64, delta int) error {
	return nil
}

func (m *mockFreetRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, freetID int64, delta int) error {
	return nil
}
