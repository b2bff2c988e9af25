// Package profiles serves the community directory: per-user profile
// pages plus the filterable member listing annotated with mention
// counts.
package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/db"
	"github.com/wisdomcircle/circled/internal/mentions"
	"github.com/wisdomcircle/circled/internal/models"
)

// Entry is one directory row: a profile plus how many chat messages
// mention its owner.
type Entry struct {
	models.Profile
	MentionCount int `json:"mention_count"`
}

// Service exposes profile reads and writes plus the directory listing.
type Service struct {
	profiles *db.ProfileRepository
	messages *db.MessageRepository
	logger   zerolog.Logger
}

// NewService builds the profile service.
func NewService(profiles *db.ProfileRepository, messages *db.MessageRepository, logger zerolog.Logger) *Service {
	return &Service{profiles: profiles, messages: messages, logger: logger}
}

// Get returns one user's profile.
func (s *Service) Get(ctx context.Context, userID int64) (models.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrProfileNotFound) {
			return models.Profile{}, fmt.Errorf("profile for user %d: %w", userID, models.ErrNotFound)
		}
		return models.Profile{}, fmt.Errorf("loading profile: %w", err)
	}
	return p, nil
}

// Update writes the viewer's own profile fields and returns the result.
func (s *Service) Update(ctx context.Context, viewer models.Viewer, upd models.ProfileUpdate) (models.Profile, error) {
	if !viewer.IsResolved() {
		return models.Profile{}, models.AuthError("login required to edit profile")
	}
	p, err := s.profiles.Update(ctx, viewer.UserID, upd)
	if err != nil {
		if errors.Is(err, db.ErrProfileNotFound) {
			return models.Profile{}, fmt.Errorf("profile for user %d: %w", viewer.UserID, models.ErrNotFound)
		}
		return models.Profile{}, fmt.Errorf("updating profile: %w", err)
	}
	s.logger.Debug().Str("username", viewer.Username).Msg("profile updated")
	return p, nil
}

// Directory lists profiles matching the query, ordered by username, each
// annotated with its mention count. Counts are recomputed from the full
// message list on every call, so they reflect the chat as of now.
func (s *Service) Directory(ctx context.Context, q models.ProfileQuery) ([]Entry, error) {
	profs, err := s.profiles.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}

	msgs, err := s.messages.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	usernames := make([]string, len(profs))
	for i, p := range profs {
		usernames[i] = p.Username
	}
	counts := mentions.Count(usernames, msgs)

	entries := make([]Entry, len(profs))
	for i, p := range profs {
		entries[i] = Entry{Profile: p, MentionCount: counts[p.Username]}
	}
	return entries, nil
}
