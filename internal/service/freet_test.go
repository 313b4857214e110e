package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"freets-backend/internal/model"
)

func TestFreetService_Create_Validation(t *testing.T) {
	// Validation happens before any transaction is opened, so the nil db is
	// never touched.
	svc := NewFreetService(&mockFreetRepository{}, &mockUserRepository{}, nil, nil)

	tests := []struct {
		name    string
		req     model.CreateFreetRequest
		wantErr error
	}{
		{
			name:    "empty content",
			req:     model.CreateFreetRequest{Content: "   "},
			wantErr: model.ErrEmptyContent,
		},
		{
			name:    "content too long",
			req:     model.CreateFreetRequest{Content: strings.Repeat("a", model.MaxFreetContentLength+1)},
			wantErr: model.ErrContentTooLong,
		},
		{
			name: "too many images",
			req: model.CreateFreetRequest{
				Content:   "hello",
				ImageURLs: []string{"a", "b", "c", "d", "e"},
			},
			wantErr: model.ErrTooManyImages,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFreetService_GetByID(t *testing.T) {
	freetRepo := &mockFreetRepository{
		getByIDFn: func(ctx context.Context, freetID int64) (*model.Freet, error) {
			return &model.Freet{ID: freetID, AuthorID: 2, Content: "hi"}, nil
		},
		checkLikesFn: func(ctx context.Context, userID int64, freetIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{freetIDs[0]: true}, nil
		},
	}
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, userID int64) (*model.User, error) {
			return &model.User{ID: userID, Username: "alice"}, nil
		},
	}

	svc := NewFreetService(freetRepo, userRepo, nil, nil)

	viewerID := int64(5)
	freet, err := svc.GetByID(context.Background(), 7, &viewerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if freet.Author == nil || freet.Author.Username != "alice" {
		t.Errorf("expected author alice, got %+v", freet.Author)
	}
	if !freet.IsLiked {
		t.Error("expected IsLiked true for viewer")
	}
}

func TestFreetService_GetByID_NotFound(t *testing.T) {
	svc := NewFreetService(&mockFreetRepository{}, &mockUserRepository{}, nil, nil)

	_, err := svc.GetByID(context.Background(), 999, nil)
	if !errors.Is(err, model.ErrFreetNotFound) {
		t.Errorf("expected ErrFreetNotFound, got %v", err)
	}
}

func TestFreetService_GetUserFreets_OutOfRangeLimits(t *testing.T) {
	svc := NewFreetService(&mockFreetRepository{}, &mockUserRepository{}, nil, nil)

	for _, limit := range []int{-3, 0, 500} {
		resp, err := svc.GetUserFreets(context.Background(), 1, nil, limit, nil)
		if err != nil {
			t.Fatalf("limit %d: unexpected error: %v", limit, err)
		}
		if resp.HasMore {
			t.Errorf("limit %d: expected no more pages for empty result", limit)
		}
	}
}
