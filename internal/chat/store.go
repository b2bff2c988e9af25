// Package chat is the authoritative message store for the community
// chat. It owns validation, persistence and the change feed emission for
// every posted message.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/db"
	"github.com/wisdomcircle/circled/internal/feed"
	"github.com/wisdomcircle/circled/internal/models"
)

// Store coordinates the message table and the change feed. Appends are
// serialized so feed events are published in message id order.
type Store struct {
	repo   *db.MessageRepository
	feed   *feed.Feed
	logger zerolog.Logger
	clock  func() time.Time

	appendMu sync.Mutex
}

// NewStore builds a store over the message repository and the feed.
func NewStore(repo *db.MessageRepository, f *feed.Feed, logger zerolog.Logger) *Store {
	return &Store{
		repo:   repo,
		feed:   f,
		logger: logger,
		clock:  time.Now,
	}
}

// Append validates and persists a message from viewer, then publishes
// exactly one feed event for it. The body is whitespace-trimmed before
// storage; an empty result is rejected. Unresolved viewers cannot post.
func (s *Store) Append(ctx context.Context, viewer models.Viewer, body string) (models.Message, error) {
	if !viewer.IsResolved() {
		return models.Message{}, models.AuthError("login required to post")
	}
	trimmed, err := models.ValidateMessageBody(body)
	if err != nil {
		return models.Message{}, err
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	msg, err := s.repo.Insert(ctx, viewer.Username, trimmed, s.clock())
	if err != nil {
		return models.Message{}, fmt.Errorf("appending message: %w", err)
	}

	s.feed.Publish(msg)
	messagesAppended.Inc()

	s.logger.Debug().
		Int64("message_id", msg.ID).
		Str("username", msg.Username).
		Msg("message appended")
	return msg, nil
}

// ListAll returns every stored message, oldest first.
func (s *Store) ListAll(ctx context.Context) ([]models.Message, error) {
	msgs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

// Count returns the number of stored messages. It doubles as a cheap
// database liveness check for the health endpoint.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}

// Subscribe registers a handler for future appends. Callers wanting
// history plus live updates should ListAll first, then Subscribe, and
// drop duplicates by message id.
func (s *Store) Subscribe(handler feed.Handler) *feed.Subscription {
	return s.feed.Subscribe(handler)
}

// Unsubscribe releases a subscription obtained from Subscribe.
func (s *Store) Unsubscribe(sub *feed.Subscription) {
	s.feed.Unsubscribe(sub)
}
