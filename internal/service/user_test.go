package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"travelthreads/internal/model"
)

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 1
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.RegisterRequest{
		Username:    "wanderer",
		Email:       "wanderer@example.com",
		Password:    "securepassword123",
		DisplayName: "The Wanderer",
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
	if user.Email != req.Email {
		t.Errorf("email = %q, want %q", user.Email, req.Email)
	}
	if user.DisplayName == nil || *user.DisplayName != req.DisplayName {
		t.Errorf("display_name = %v, want %q", user.DisplayName, req.DisplayName)
	}

	// Password must be stored as a valid bcrypt hash
	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}

	if len(mockRepo.createCalls) != 1 {
		t.Errorf("Create called %d times, want 1", len(mockRepo.createCalls))
	}
}

func TestUserService_Register_UsernameExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) {
			return true, nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "taken",
		Email:    "new@example.com",
		Password: "password123",
	})

	if !errors.Is(err, model.ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got: %v", err)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called when username exists")
	}
}

func TestUserService_Register_EmailExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "newuser",
		Email:    "taken@example.com",
		Password: "password123",
	})

	if !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got: %v", err)
	}
}

func TestUserService_Register_MissingFields(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, &mockFollowRepository{})

	cases := []struct {
		name string
		req  model.RegisterRequest
	}{
		{"no username", model.RegisterRequest{Email: "a@b.com", Password: "pass"}},
		{"no email", model.RegisterRequest{Username: "user", Password: "pass"}},
		{"no password", model.RegisterRequest{Username: "user", Email: "a@b.com"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), &tc.req); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func newLoginMock(t *testing.T, password string, blocked bool) *mockUserRepository {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:             1,
				Username:       "wanderer",
				Email:          email,
				PasswordHashed: string(hash),
				IsBlocked:      blocked,
			}, nil
		},
	}
}

func TestUserService_Login_Success(t *testing.T) {
	svc := NewUserService(newLoginMock(t, "correct-password", false), &mockFollowRepository{})

	user, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "wanderer@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("user ID = %d, want 1", user.ID)
	}
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	svc := NewUserService(newLoginMock(t, "correct-password", false), &mockFollowRepository{})

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "wanderer@example.com",
		Password: "wrong-password",
	})
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	// Unknown email must produce the same error as a wrong password so the
	// response doesn't reveal which emails are registered.
	svc := NewUserService(&mockUserRepository{}, &mockFollowRepository{})

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestUserService_Login_Blocked(t *testing.T) {
	svc := NewUserService(newLoginMock(t, "correct-password", true), &mockFollowRepository{})

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "wanderer@example.com",
		Password: "correct-password",
	})
	if !errors.Is(err, model.ErrUserBlocked) {
		t.Errorf("expected ErrUserBlocked, got: %v", err)
	}
}

func TestUserService_GetProfile_FollowStatus(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Username: "target"}, nil
		},
	}
	mockFollows := &mockFollowRepository{
		existsFn: func(ctx context.Context, followerID, followeeID int64) (bool, error) {
			return followerID == 7 && followeeID == 2, nil
		},
	}
	svc := NewUserService(mockRepo, mockFollows)

	viewerID := int64(7)
	_, isFollowing, err := svc.GetProfile(context.Background(), 2, &viewerID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !isFollowing {
		t.Error("expected is_following to be true")
	}

	// Anonymous viewer never shows as following
	_, isFollowing, err = svc.GetProfile(context.Background(), 2, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if isFollowing {
		t.Error("expected is_following to be false for anonymous viewer")
	}
}
