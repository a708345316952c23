package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"fleetwatch/internal/models"
	"fleetwatch/internal/password"
	"fleetwatch/internal/repository"
)

type fakeUserRepo struct {
	users  map[string]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.nextID++
	stored := *user
	f.users[user.Email] = &stored
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func newTestAuthService() (*AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	hasher := password.NewBcryptHasher(4) // minimum cost keeps the tests fast
	tokens := NewTokenService("test-secret", time.Hour)
	return NewAuthService(repo, hasher, tokens, zap.NewNop()), repo
}

func TestAuthService_Register(t *testing.T) {
	svc, repo := newTestAuthService()

	user, token, err := svc.Register(context.Background(), "Ada", "Ada@Example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Error("user id not assigned")
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased ada@example.com", user.Email)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if stored := repo.users["ada@example.com"]; stored.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in plaintext")
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, _, err := svc.Register(context.Background(), "Eve", "ada@example.com", "hunter2hunter2")
	if !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("err = %v, want ErrEmailInUse", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "ada@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if user.Name != "Ada" {
		t.Errorf("name = %q, want Ada", user.Name)
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, _ := newTestAuthService()
	if _, _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ada@example.com", "wrong-password"},
		{"unknown email", "eve@example.com", "hunter2hunter2"},
		{"empty credentials", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}
