package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"freets-backend/internal/model"
	"freets-backend/internal/repository"
)

// CircleService handles business logic for circles. Circles are pure
// membership lists; they carry no visibility logic of their own. The
// visibility engine reads their current members whenever an album that links
// them is accessed, so every mutation here takes effect on the next access.
type CircleService struct {
	circleRepo repository.CircleRepository
	userRepo   repository.UserRepository
}

func NewCircleService(circleRepo repository.CircleRepository, userRepo repository.UserRepository) *CircleService {
	return &CircleService{
		circleRepo: circleRepo,
		userRepo:   userRepo,
	}
}

// Create creates a new empty circle owned by ownerID.
func (s *CircleService) Create(ctx context.Context, ownerID int64, req *model.CreateCircleRequest) (*model.Circle, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrCircleNameRequired
	}
	if len(name) > model.MaxCircleNameLength {
		return nil, model.ErrCircleNameTooLong
	}

	// Pre-check for a friendlier error; the unique index is the real guard
	// and Create maps its violation to the same sentinel.
	exists, err := s.circleRepo.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check circle name: %w", err)
	}
	if exists {
		return nil, model.ErrDuplicateCircleName
	}

	circle, err := s.circleRepo.Create(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}

	log.Printf("[CircleService] Created circle: id=%d owner=%d name=%q", circle.ID, ownerID, name)
	return circle, nil
}

// Delete removes a circle and its memberships. Album links to the circle stay
// behind as dangling rows; resolution treats a deleted circle as an empty
// contribution, so affected albums simply lose its members.
func (s *CircleService) Delete(ctx context.Context, circleID, callerID int64) error {
	circle, err := s.circleRepo.GetByID(ctx, circleID)
	if err != nil {
		return err
	}
	if circle.OwnerID != callerID {
		return model.ErrNotCircleOwner
	}

	deleted, err := s.circleRepo.Delete(ctx, circleID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrCircleNotFound
	}

	log.Printf("[CircleService] Deleted circle: id=%d owner=%d", circleID, callerID)
	return nil
}

// List returns the caller's circles with member counts.
func (s *CircleService) List(ctx context.Context, ownerID int64) ([]model.Circle, error) {
	return s.circleRepo.ListByOwner(ctx, ownerID)
}

// GetMembers returns the members of a circle. Owner-only: membership lists
// reveal who the owner has grouped together.
func (s *CircleService) GetMembers(ctx context.Context, circleID, callerID int64) ([]model.UserSummary, error) {
	circle, err := s.circleRepo.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if circle.OwnerID != callerID {
		return nil, model.ErrNotCircleOwner
	}

	return s.circleRepo.GetMembers(ctx, circleID)
}

// AddMember adds a user to the circle by username. Adding someone already in
// the circle is a no-op. The owner cannot add themselves; they can always see
// their own albums regardless.
func (s *CircleService) AddMember(ctx context.Context, circleID, callerID int64, req *model.AddCircleMemberRequest) error {
	circle, err := s.circleRepo.GetByID(ctx, circleID)
	if err != nil {
		return err
	}
	if circle.OwnerID != callerID {
		return model.ErrNotCircleOwner
	}

	member, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return err
	}

	if member.ID == circle.OwnerID {
		return model.ErrSelfMembership
	}

	if err := s.circleRepo.AddMember(ctx, circleID, member.ID); err != nil {
		return err
	}

	log.Printf("[CircleService] Added member: circle=%d user=%d", circleID, member.ID)
	return nil
}

// RemoveMember removes a user from the circle by username. Removing someone
// who isn't a member is a no-op. The removed user loses access to albums
// scoped by this circle on their next visibility check.
func (s *CircleService) RemoveMember(ctx context.Context, circleID, callerID int64, username string) error {
	circle, err := s.circleRepo.GetByID(ctx, circleID)
	if err != nil {
		return err
	}
	if circle.OwnerID != callerID {
		return model.ErrNotCircleOwner
	}

	member, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}

	if err := s.circleRepo.RemoveMember(ctx, circleID, member.ID); err != nil {
		return err
	}

	log.Printf("[CircleService] Removed member: circle=%d user=%d", circleID, member.ID)
	return nil
}
