// Package identity handles account registration, login and token
// verification for the community.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wisdomcircle/circled/internal/db"
	"github.com/wisdomcircle/circled/internal/models"
)

// Resolver turns a bearer token into the viewer it names.
type Resolver interface {
	Resolve(token string) (models.Viewer, error)
}

// Service implements registration, login and token resolution over the
// user repository. Tokens are HMAC-signed and expire after ttl.
type Service struct {
	users  *db.UserRepository
	secret []byte
	ttl    time.Duration
	cost   int
	logger zerolog.Logger
	clock  func() time.Time
}

// NewService builds the identity service. cost is the bcrypt work
// factor; zero selects the library default. An empty secret gets a
// random per-process one, which invalidates all tokens on restart.
func NewService(users *db.UserRepository, secret string, ttl time.Duration, cost int, logger zerolog.Logger) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err == nil {
			secret = hex.EncodeToString(buf)
		}
		logger.Warn().Msg("no token secret configured, sessions will not survive restarts")
	}
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   cost,
		logger: logger,
		clock:  time.Now,
	}
}

// Register creates an account and its empty profile row. Usernames must
// be 3 to 24 characters, passwords at least 6. A taken username yields
// ErrConflict.
func (s *Service) Register(ctx context.Context, username, password string) (models.User, error) {
	if err := models.ValidateUsername(username); err != nil {
		return models.User{}, err
	}
	if err := models.ValidatePassword(password); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, db.ErrUserExists) {
			return models.User{}, fmt.Errorf("username %q: %w", username, models.ErrConflict)
		}
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info().Str("username", username).Msg("account registered")
	return user, nil
}

// Login checks the credentials and mints a bearer token for the account.
// Wrong username and wrong password return the same auth error.
func (s *Service) Login(ctx context.Context, username, password string) (string, models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return "", models.User{}, models.AuthError("invalid username or password")
		}
		return "", models.User{}, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, models.AuthError("invalid username or password")
	}

	token := mintToken(s.secret, user.ID, user.Username, s.clock().Add(s.ttl))
	s.logger.Info().Str("username", username).Msg("login succeeded")
	return token, user, nil
}

// Resolve verifies a bearer token and returns the viewer it identifies.
func (s *Service) Resolve(token string) (models.Viewer, error) {
	if token == "" {
		return models.Viewer{}, models.AuthError("missing token")
	}
	return parseToken(s.secret, token, s.clock())
}
