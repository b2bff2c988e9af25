package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wisdomcircle/circled/internal/db"
	"github.com/wisdomcircle/circled/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	database, err := db.OpenInMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if _, err := database.MigrateUp(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return NewService(db.NewUserRepository(database), "test-secret", time.Hour, bcrypt.MinCost, zerolog.Nop())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "amine", "sekret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Username != "amine" {
		t.Errorf("username = %q, want %q", user.Username, "amine")
	}
	if user.PasswordHash == "sekret1" {
		t.Error("password stored in clear")
	}

	token, got, err := s.Login(ctx, "amine", "sekret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("login user id = %d, want %d", got.ID, user.ID)
	}

	viewer, err := s.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if viewer.UserID != user.ID || viewer.Username != "amine" {
		t.Errorf("viewer = %+v, want user %d amine", viewer, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"username too short", "ab", "sekret1"},
		{"username too long", "abcdefghijklmnopqrstuvwxy", "sekret1"},
		{"password too short", "amine", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.username, tt.password)
			if !models.IsValidation(err) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "amine", "sekret1"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := s.Register(ctx, "amine", "other-password")
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "amine", "sekret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, badPass := s.Login(ctx, "amine", "wrong")
	_, _, noUser := s.Login(ctx, "nobody", "sekret1")

	if !models.IsAuth(badPass) {
		t.Errorf("wrong password error = %v, want auth error", badPass)
	}
	if !models.IsAuth(noUser) {
		t.Errorf("unknown user error = %v, want auth error", noUser)
	}
	if badPass.Error() != noUser.Error() {
		t.Errorf("credential errors differ: %q vs %q", badPass, noUser)
	}
}

func TestResolveUsernameWithColons(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// Length is the only username rule, so separators are legal inside it.
	user, err := s.Register(ctx, "a:b:c", "sekret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, _, err := s.Login(ctx, "a:b:c", "sekret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	viewer, err := s.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if viewer.UserID != user.ID || viewer.Username != "a:b:c" {
		t.Errorf("viewer = %+v, want user %d a:b:c", viewer, user.ID)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()

	tests := []struct {
		name     string
		userID   int64
		username string
	}{
		{"plain", 7, "amine"},
		{"colons in username", 7, "a:b:c"},
		{"trailing colon", 42, "name:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := mintToken(secret, tt.userID, tt.username, now.Add(time.Hour))
			viewer, err := parseToken(secret, token, now)
			if err != nil {
				t.Fatalf("parseToken: %v", err)
			}
			if viewer.UserID != tt.userID || viewer.Username != tt.username {
				t.Errorf("viewer = %+v, want user %d %q", viewer, tt.userID, tt.username)
			}
		})
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "amine", "sekret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, _, err := s.Login(ctx, "amine", "sekret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", "garbage"},
		{"bad signature", token + "x"},
		{"tampered payload", "x" + token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Resolve(tt.token); !models.IsAuth(err) {
				t.Errorf("Resolve(%q) error = %v, want auth error", tt.token, err)
			}
		})
	}
}

func TestResolveExpiredToken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "amine", "sekret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, _, err := s.Login(ctx, "amine", "sekret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	s.clock = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := s.Resolve(token); !models.IsAuth(err) {
		t.Errorf("expired token error = %v, want auth error", err)
	}
}
