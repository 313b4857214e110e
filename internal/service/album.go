package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"freets-backend/internal/model"
	"freets-backend/internal/repository"
	"freets-backend/internal/visibility"
)

// AlbumService handles business logic for albums. Reads that expose album
// content go through the visibility engine; writes are owner-only.
//
// Non-owners who fail the visibility check get ErrAlbumNotFound rather than
// a forbidden error, so an album's existence leaks nothing.
type AlbumService struct {
	albumRepo  repository.AlbumRepository
	circleRepo repository.CircleRepository
	followRepo repository.FollowRepository
	freetRepo  repository.FreetRepository
	userRepo   repository.UserRepository
	engine     *visibility.Engine
}

func NewAlbumService(
	albumRepo repository.AlbumRepository,
	circleRepo repository.CircleRepository,
	followRepo repository.FollowRepository,
	freetRepo repository.FreetRepository,
	userRepo repository.UserRepository,
	engine *visibility.Engine,
) *AlbumService {
	return &AlbumService{
		albumRepo:  albumRepo,
		circleRepo: circleRepo,
		followRepo: followRepo,
		freetRepo:  freetRepo,
		userRepo:   userRepo,
		engine:     engine,
	}
}

// Create creates a new empty album owned by ownerID.
//
// The owner's follower set at creation time is stored on the record, but it
// is a historical artifact only: visibility always resolves against the
// current follower or circle-member sets, never this snapshot.
func (s *AlbumService) Create(ctx context.Context, ownerID int64, req *model.CreateAlbumRequest) (*model.Album, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrAlbumNameRequired
	}
	if len(name) > model.MaxAlbumNameLength {
		return nil, model.ErrAlbumNameTooLong
	}

	exists, err := s.albumRepo.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check album name: %w", err)
	}
	if exists {
		return nil, model.ErrDuplicateAlbumName
	}

	snapshot, err := s.followRepo.GetFollowerIDs(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("snapshot followers: %w", err)
	}

	album, err := s.albumRepo.Create(ctx, ownerID, name, snapshot)
	if err != nil {
		return nil, err
	}

	log.Printf("[AlbumService] Created album: id=%d owner=%d name=%q snapshot=%d", album.ID, ownerID, name, len(snapshot))
	return album, nil
}

// requireOwner loads the album and confirms callerID owns it. Callers who
// cannot view the album at all get ErrAlbumNotFound, so owner-only routes
// never reveal that a hidden album exists; legitimate viewers who are not the
// owner get ErrNotAlbumOwner.
func (s *AlbumService) requireOwner(ctx context.Context, albumID, callerID int64) (*model.Album, error) {
	album, err := s.albumRepo.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album.OwnerID == callerID {
		return album, nil
	}

	canView, err := s.engine.CanView(ctx, albumID, callerID)
	if err != nil {
		return nil, err
	}
	if !canView {
		return nil, model.ErrAlbumNotFound
	}
	return nil, model.ErrNotAlbumOwner
}

// Delete removes an album. Freets remain; only the album grouping and its
// circle links go away.
func (s *AlbumService) Delete(ctx context.Context, albumID, callerID int64) error {
	if _, err := s.requireOwner(ctx, albumID, callerID); err != nil {
		return err
	}

	deleted, err := s.albumRepo.Delete(ctx, albumID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrAlbumNotFound
	}

	log.Printf("[AlbumService] Deleted album: id=%d owner=%d", albumID, callerID)
	return nil
}

// ListMine returns the caller's own albums.
func (s *AlbumService) ListMine(ctx context.Context, ownerID int64) ([]model.Album, error) {
	return s.albumRepo.ListByOwner(ctx, ownerID)
}

// ListVisible returns every album the viewer may currently see, their own
// included. Each album's viewer rule is resolved live, so results shift as
// circle memberships and follows change.
func (s *AlbumService) ListVisible(ctx context.Context, viewerID int64) ([]model.Album, error) {
	albums, err := s.albumRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]model.Album, 0, len(albums))
	for _, album := range albums {
		ok, err := s.engine.CanView(ctx, album.ID, viewerID)
		if err != nil {
			// Album deleted between list and check; skip it.
			if visibility.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if ok {
			visible = append(visible, album)
		}
	}

	return visible, nil
}

// Get returns album metadata, gated by the visibility engine.
func (s *AlbumService) Get(ctx context.Context, albumID, viewerID int64) (*model.Album, error) {
	ok, err := s.engine.CanView(ctx, albumID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrAlbumNotFound
	}

	return s.albumRepo.GetByID(ctx, albumID)
}

// AddCircle links a circle to the album by circle name. The circle must
// belong to the album owner. Linking the first circle switches the album
// from follower visibility to circle visibility; linking an already-linked
// circle is a no-op.
func (s *AlbumService) AddCircle(ctx context.Context, albumID, callerID int64, circleName string) error {
	if _, err := s.requireOwner(ctx, albumID, callerID); err != nil {
		return err
	}

	circle, err := s.circleRepo.GetByName(ctx, strings.TrimSpace(circleName))
	if err != nil {
		return err
	}
	if circle.OwnerID != callerID {
		return model.ErrNotCircleOwner
	}

	if err := s.albumRepo.AddCircle(ctx, albumID, circle.ID); err != nil {
		return err
	}

	log.Printf("[AlbumService] Linked circle: album=%d circle=%d", albumID, circle.ID)
	return nil
}

// RemoveCircle unlinks a circle from the album by circle name. Removing the
// last circle reverts the album to follower visibility.
func (s *AlbumService) RemoveCircle(ctx context.Context, albumID, callerID int64, circleName string) error {
	if _, err := s.requireOwner(ctx, albumID, callerID); err != nil {
		return err
	}

	circle, err := s.circleRepo.GetByName(ctx, strings.TrimSpace(circleName))
	if err != nil {
		return err
	}

	if err := s.albumRepo.RemoveCircle(ctx, albumID, circle.ID); err != nil {
		return err
	}

	log.Printf("[AlbumService] Unlinked circle: album=%d circle=%d", albumID, circle.ID)
	return nil
}

// ListCircles returns the circles currently linked to the album. Owner-only;
// circle links are part of the album's access policy.
func (s *AlbumService) ListCircles(ctx context.Context, albumID, callerID int64) ([]model.Circle, error) {
	if _, err := s.requireOwner(ctx, albumID, callerID); err != nil {
		return nil, err
	}

	circleIDs, err := s.engine.CircleIDsForAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}

	circles := make([]model.Circle, 0, len(circleIDs))
	for _, id := range circleIDs {
		circle, err := s.circleRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrCircleNotFound) {
				// Dangling link; the circle was deleted out from under the album
				continue
			}
			return nil, err
		}
		circles = append(circles, *circle)
	}

	return circles, nil
}

// AddFreet adds a freet to the album. Re-adding a freet already in the album
// is a no-op.
func (s *AlbumService) AddFreet(ctx context.Context, albumID, callerID, freetID int64) error {
	if _, err := s.requireOwner(ctx, albumID, callerID); err != nil {
		return err
	}

	exists, err := s.freetRepo.Exists(ctx, freetID)
	if err != nil {
		return fmt.Errorf("check freet exists: %w", err)
	}
	if !exists {
		return model.ErrFreetNotFound
	}

	if err := s.albumRepo.AddFreet(ctx, albumID, freetID); err != nil {
		return err
	}

	log.Printf("[AlbumService] Added freet: album=%d freet=%d", albumID, freetID)
	return nil
}

// RemoveFreet removes a freet from the album. The freet itself is untouched.
func (s *AlbumService) RemoveFreet(ctx context.Context, albumID, callerID, freetID int64) error {
	if _, err := s.requireOwner(ctx, albumID, callerID); err != nil {
		return err
	}

	if err := s.albumRepo.RemoveFreet(ctx, albumID, freetID); err != nil {
		return err
	}

	log.Printf("[AlbumService] Removed freet: album=%d freet=%d", albumID, freetID)
	return nil
}

// ListViewers resolves and returns the album's current viewer set as user
// summaries. The owner is not in the list; the set covers everyone else who
// can currently see the album. Owner-only; it reveals resolved circle
// memberships.
func (s *AlbumService) ListViewers(ctx context.Context, albumID, callerID int64) ([]model.UserSummary, error) {
	if _, err := s.requireOwner(ctx, albumID, callerID); err != nil {
		return nil, err
	}

	viewerIDs, err := s.engine.ResolveViewers(ctx, albumID)
	if err != nil {
		return nil, err
	}

	return s.userRepo.GetSummariesByIDs(ctx, viewerIDs)
}

// GetFreets returns the album's freets in the order they were added,
// enriched with authors and the viewer's like status. Gated by the
// visibility engine.
func (s *AlbumService) GetFreets(ctx context.Context, albumID, viewerID int64) ([]model.Freet, error) {
	ok, err := s.engine.CanView(ctx, albumID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrAlbumNotFound
	}

	freetIDs, err := s.engine.FreetIDsForAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if len(freetIDs) == 0 {
		return []model.Freet{}, nil
	}

	freets, err := s.freetRepo.GetByIDs(ctx, freetIDs)
	if err != nil {
		return nil, fmt.Errorf("get album freets: %w", err)
	}

	s.enrichFreets(ctx, freets, viewerID)
	return freets, nil
}

// enrichFreets attaches author summaries and the viewer's like status.
// Both are batch lookups; either failing degrades the enrichment, not the
// request.
func (s *AlbumService) enrichFreets(ctx context.Context, freets []model.Freet, viewerID int64) {
	if len(freets) == 0 {
		return
	}

	authorIDs := make([]int64, 0, len(freets))
	freetIDs := make([]int64, 0, len(freets))
	seen := make(map[int64]bool)
	for _, f := range freets {
		freetIDs = append(freetIDs, f.ID)
		if !seen[f.AuthorID] {
			seen[f.AuthorID] = true
			authorIDs = append(authorIDs, f.AuthorID)
		}
	}

	if authors, err := s.userRepo.GetSummariesByIDs(ctx, authorIDs); err == nil {
		authorMap := make(map[int64]model.UserSummary, len(authors))
		for _, a := range authors {
			authorMap[a.ID] = a
		}
		for i := range freets {
			if a, ok := authorMap[freets[i].AuthorID]; ok {
				author := a
				freets[i].Author = &author
			}
		}
	} else {
		log.Printf("[AlbumService] Failed to enrich authors: %v", err)
	}

	if likeMap, err := s.freetRepo.CheckLikes(ctx, viewerID, freetIDs); err == nil {
		for i := range freets {
			freets[i].IsLiked = likeMap[freets[i].ID]
		}
	} else {
		log.Printf("[AlbumService] Failed to check likes: %v", err)
	}
}
