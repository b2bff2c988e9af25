package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wisdomcircle/circled/internal/models"
)

// User repository errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username already exists")
)

// UserRepository handles account persistence for the identity service.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and its empty profile row in one transaction,
// matching registration semantics: every account owns a directory entry
// from the moment it exists.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (models.User, error) {
	if username == "" || passwordHash == "" {
		return models.User{}, fmt.Errorf("username and password hash are required")
	}

	now := time.Now().UTC()
	var user models.User

	err := r.db.TransactionWithRetry(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)
		`, username, passwordHash, now.Format(time.RFC3339))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrUserExists
			}
			return fmt.Errorf("insert user: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("user id: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (user_id, username) VALUES (?, ?)
		`, id, username); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}

		user = models.User{
			ID:           id,
			Username:     username,
			PasswordHash: passwordHash,
			CreatedAt:    now,
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getBy(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	return r.getBy(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *UserRepository) getBy(ctx context.Context, query string, arg any) (models.User, error) {
	var (
		user models.User
		ts   string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username, &user.PasswordHash, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}

	created, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return models.User{}, fmt.Errorf("parse user created_at %q: %w", ts, err)
	}
	user.CreatedAt = created
	return user, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") ||
		strings.Contains(message, "constraint failed")
}
