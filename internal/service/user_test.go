package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"freets-backend/internal/model"
)

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) {
			return false, nil // Username doesn't exist
		},
		createFn: func(ctx context.Context, user *model.User) error {
			// Simulate database setting ID and timestamps
			user.ID = 1
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.RegisterRequest{
		Username:    "testuser",
		Password:    "securepassword123",
		DisplayName: "Test User",
	}

	user, err := svc.Register(context.Background(), req)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if user == nil {
		t.Fatal("expected user, got nil")
	}

	if user.Username != req.Username {
		t.Errorf("username = %q, want %q", user.Username, req.Username)
	}

	if user.DisplayName == nil || *user.DisplayName != req.DisplayName {
		t.Errorf("display_name = %v, want %q", user.DisplayName, req.DisplayName)
	}

	// Verify password was hashed (not stored in plain text!)
	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}

	// Verify the hash is valid bcrypt
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password))
	if err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}

	// Verify Create was called exactly once
	if len(mockRepo.createCalls) != 1 {
		t.Errorf("Create called %d times, want 1", len(mockRepo.createCalls))
	}
}

func TestUserService_Register_UsernameExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) {
			return true, nil // Username already exists
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.RegisterRequest{
		Username: "existinguser",
		Password: "password123",
	}

	user, err := svc.Register(context.Background(), req)

	if !errors.Is(err, model.ErrUsernameExists) {
		t.Errorf("error = %v, want %v", err, model.ErrUsernameExists)
	}

	if user != nil {
		t.Error("user should be nil when registration fails")
	}

	// Verify Create was NOT called
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called when username exists")
	}
}

func TestUserService_Register_CheckUsernameError(t *testing.T) {
	dbError := errors.New("database connection failed")
	mockRepo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) {
			return false, dbError
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.RegisterRequest{
		Username: "testuser",
		Password: "password123",
	}

	_, err := svc.Register(context.Background(), req)

	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// The original error should be wrapped
	if !errors.Is(err, dbError) {
		t.Errorf("error should wrap original database error")
	}
}

func TestUserService_Register_WithoutDisplayName(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) {
			return false, nil
		},
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 1
			return nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.RegisterRequest{
		Username: "testuser",
		Password: "password123",
		// DisplayName intentionally omitted
	}

	user, err := svc.Register(context.Background(), req)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.DisplayName != nil {
		t.Errorf("display_name should be nil when not provided, got %v", user.DisplayName)
	}
}

// =============================================================================
// LOGIN TESTS - Table-Driven (THE Go idiom)
// =============================================================================

func TestUserService_Login(t *testing.T) {
	validPassword := "correctpassword"
	validHash, _ := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.MinCost)

	testUser := &model.User{
		ID:             1,
		Username:       "testuser",
		PasswordHashed: string(validHash),
	}

	tests := []struct {
		name          string
		username      string
		password      string
		mockGetByUser func(ctx context.Context, username string) (*model.User, error)
		wantErr       error
		wantUser      bool
	}{
		{
			name:     "successful login",
			username: "testuser",
			password: validPassword,
			mockGetByUser: func(ctx context.Context, username string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  nil,
			wantUser: true,
		},
		{
			name:     "user not found",
			username: "nonexistent",
			password: "anypassword",
			mockGetByUser: func(ctx context.Context, username string) (*model.User, error) {
				return nil, model.ErrUserNotFound
			},
			wantErr:  model.ErrInvalidCredentials, // Don't reveal user doesn't exist
			wantUser: false,
		},
		{
			name:     "wrong password",
			username: "testuser",
			password: "wrongpassword",
			mockGetByUser: func(ctx context.Context, username string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  model.ErrInvalidCredentials,
			wantUser: false,
		},
		{
			name:     "database error",
			username: "testuser",
			password: validPassword,
			mockGetByUser: func(ctx context.Context, username string) (*model.User, error) {
				return nil, errors.New("database error")
			},
			wantErr:  model.ErrInvalidCredentials, // Don't reveal internal errors
			wantUser: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{
				getByUsernameFn: tt.mockGetByUser,
			}
			svc := NewUserService(mockRepo, &mockFollowRepository{})

			req := &model.LoginRequest{
				Username: tt.username,
				Password: tt.password,
			}

			user, err := svc.Login(context.Background(), req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantUser && user == nil {
				t.Error("expected user, got nil")
			}
			if !tt.wantUser && user != nil {
				t.Error("expected nil user")
			}
		})
	}
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

func TestUserService_GetProfile(t *testing.T) {
	testUser := &model.User{ID: 1, Username: "alice"}

	tests := []struct {
		name            string
		viewerID        *int64
		followExists    bool
		wantIsFollowing bool
	}{
		{
			name:            "anonymous viewer",
			viewerID:        nil,
			wantIsFollowing: false,
		},
		{
			name:            "viewer follows the user",
			viewerID:        ptrInt64(2),
			followExists:    true,
			wantIsFollowing: true,
		},
		{
			name:            "viewer does not follow",
			viewerID:        ptrInt64(2),
			followExists:    false,
			wantIsFollowing: false,
		},
		{
			name:            "viewing own profile skips the check",
			viewerID:        ptrInt64(1),
			followExists:    true, // Would be true, but must not be consulted
			wantIsFollowing: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{
				getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
					return testUser, nil
				},
			}
			mockFollows := &mockFollowRepository{
				existsFn: func(ctx context.Context, followerID, followeeID int64) (bool, error) {
					return tt.followExists, nil
				},
			}
			svc := NewUserService(mockRepo, mockFollows)

			profile, err := svc.GetProfile(context.Background(), 1, tt.viewerID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if profile.IsFollowing != tt.wantIsFollowing {
				t.Errorf("is_following = %v, want %v", profile.IsFollowing, tt.wantIsFollowing)
			}
		})
	}
}

func TestUserService_Search_EnrichesFollowStatus(t *testing.T) {
	mockRepo := &mockUserRepository{
		searchFn: func(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
			return []model.UserSummary{
				{ID: 2, Username: "bob"},
				{ID: 3, Username: "bobby"},
			}, nil
		},
	}
	mockFollows := &mockFollowRepository{
		checkFollowsFn: func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{3: true}, nil
		},
	}
	svc := NewUserService(mockRepo, mockFollows)

	viewerID := int64(1)
	users, err := svc.Search(context.Background(), "bob", 20, &viewerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if users[0].IsFollowing {
		t.Error("viewer does not follow bob")
	}
	if !users[1].IsFollowing {
		t.Error("viewer follows bobby")
	}
}

func ptrInt64(v int64) *int64 { return &v }
