package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wisdomcircle/circled/internal/models"
)

// ErrInvalidMessage is returned for rows missing a username or body.
var ErrInvalidMessage = errors.New("invalid message")

// MessageRepository handles chat message persistence. The messages table
// is append-only; rows are never updated or deleted.
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert appends a message row and returns the persisted message with its
// store-assigned id. The timestamp is truncated to UTC before storage.
func (r *MessageRepository) Insert(ctx context.Context, username, body string, at time.Time) (models.Message, error) {
	if username == "" || body == "" {
		return models.Message{}, ErrInvalidMessage
	}
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (username, message, timestamp) VALUES (?, ?, ?)
	`, username, body, at.Format(time.RFC3339Nano))
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Message{}, fmt.Errorf("message id: %w", err)
	}

	return models.Message{
		ID:        id,
		Username:  username,
		Body:      body,
		CreatedAt: at,
	}, nil
}

// ListAll returns every message ordered by id ascending. History is
// unpaginated; every call returns the full list.
func (r *MessageRepository) ListAll(ctx context.Context) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, message, timestamp FROM messages ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// Count returns the number of stored messages.
func (r *MessageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func scanMessage(rows *sql.Rows) (models.Message, error) {
	var (
		msg models.Message
		ts  string
	)
	if err := rows.Scan(&msg.ID, &msg.Username, &msg.Body, &ts); err != nil {
		return models.Message{}, fmt.Errorf("scan message: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return models.Message{}, fmt.Errorf("parse message timestamp %q: %w", ts, err)
	}
	msg.CreatedAt = parsed
	return msg, nil
}
