// Package session models one open view of the community: the page
// shell, the chat view, or the member directory. A session resolves its
// viewer, takes a message snapshot, then follows the live feed, keeping
// an unread counter and raising notifications per the notification
// policy.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/mentions"
	"github.com/wisdomcircle/circled/internal/models"
	"github.com/wisdomcircle/circled/internal/notify"
	"github.com/wisdomcircle/circled/internal/profiles"
)

// Kind names which view the session renders.
type Kind string

const (
	// KindShell is the page frame: no message list on screen, but the
	// unread badge and desktop notifications stay live.
	KindShell Kind = "shell"
	// KindChat is the open chat view.
	KindChat Kind = "chat"
	// KindDirectory is the community member listing.
	KindDirectory Kind = "directory"
)

// State is the session lifecycle phase.
type State string

const (
	// StateUnresolved is the initial phase, before Start.
	StateUnresolved State = "unresolved"
	// StateActive means the snapshot is loaded and the live
	// subscription is attached.
	StateActive State = "active"
	// StateRedirecting means the view requires a login the viewer does
	// not have; the caller should send them to the login flow.
	StateRedirecting State = "redirecting"
	// StateTornDown is terminal; no further events are delivered.
	StateTornDown State = "torn_down"
)

// Stream supplies the message history and live updates, either directly
// from the store or over the wire.
type Stream interface {
	ListAll(ctx context.Context) ([]models.Message, error)
	Subscribe(fn func(models.Message)) (Subscription, error)
}

// Subscription is a live stream registration. Close is idempotent.
type Subscription interface {
	Close()
}

// Poster appends a message on behalf of the session's viewer.
type Poster interface {
	Post(ctx context.Context, body string) (models.Message, error)
}

// DirectorySource lists directory entries for directory sessions.
type DirectorySource interface {
	Directory(ctx context.Context, q models.ProfileQuery) ([]profiles.Entry, error)
}

// Options configures a session. Stream is required; the rest depend on
// the kind.
type Options struct {
	Kind       Kind
	Viewer     models.Viewer
	Permission models.Permission
	Stream     Stream
	Poster     Poster
	Notifier   notify.Notifier
	Directory  DirectorySource
	// OnMessage, when set, is invoked for each message the session
	// accepts, snapshot excluded. It runs on the stream's delivery
	// goroutine.
	OnMessage func(models.Message)
	Logger    zerolog.Logger
}

// Session is one live view. All methods are safe for concurrent use.
type Session struct {
	opts Options

	mu       sync.Mutex
	state    State
	messages []models.Message
	seen     map[int64]bool
	unread   int
	sub      Subscription
}

// New builds an unstarted session.
func New(opts Options) *Session {
	return &Session{
		opts:  opts,
		state: StateUnresolved,
		seen:  make(map[int64]bool),
	}
}

// Start resolves the session. Chat views require a logged-in viewer and
// move to StateRedirecting without one. Otherwise the session loads the
// message snapshot, then attaches the live subscription; a failed
// snapshot load degrades to an empty list rather than failing the
// session. Events already present in the snapshot are dropped by id, so
// the overlap window between snapshot and subscribe cannot duplicate
// messages.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUnresolved {
		s.mu.Unlock()
		return models.ValidationError("session already started")
	}
	if s.opts.Kind == KindChat && !s.opts.Viewer.IsResolved() {
		s.state = StateRedirecting
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	snapshot, err := s.opts.Stream.ListAll(ctx)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Msg("message snapshot failed, starting empty")
		snapshot = nil
	}

	s.mu.Lock()
	s.messages = snapshot
	for _, m := range snapshot {
		s.seen[m.ID] = true
	}
	s.mu.Unlock()

	sub, err := s.opts.Stream.Subscribe(s.handleEvent)
	if err != nil {
		return models.TransportError("subscribe", err)
	}

	s.mu.Lock()
	if s.state == StateTornDown {
		s.mu.Unlock()
		sub.Close()
		return nil
	}
	s.sub = sub
	s.state = StateActive
	s.mu.Unlock()
	return nil
}

func (s *Session) handleEvent(m models.Message) {
	s.mu.Lock()
	if s.state != StateActive || s.seen[m.ID] {
		s.mu.Unlock()
		return
	}
	s.seen[m.ID] = true
	s.messages = append(s.messages, m)
	s.unread++
	s.mu.Unlock()

	s.maybeNotify(m)
	if s.opts.OnMessage != nil {
		s.opts.OnMessage(m)
	}
}

func (s *Session) maybeNotify(m models.Message) {
	if s.opts.Notifier == nil {
		return
	}
	d := notify.Decision{
		PermissionGranted: s.opts.Permission == models.PermissionGranted,
		Mine:              s.opts.Viewer.IsResolved() && m.Username == s.opts.Viewer.Username,
		MentionsViewer:    mentions.Mentions(m, s.opts.Viewer.Username),
		OnChatView:        s.opts.Kind == KindChat,
	}
	if !notify.ShouldNotify(d) {
		return
	}
	if err := s.opts.Notifier.Notify(m); err != nil {
		s.opts.Logger.Warn().Err(err).Msg("notification failed")
	}
}

// Send posts a message as the viewer and clears the unread counter. The
// echoed feed event is deduplicated against the returned message.
func (s *Session) Send(ctx context.Context, body string) (models.Message, error) {
	if s.opts.Poster == nil {
		return models.Message{}, models.ValidationError("session cannot post")
	}
	msg, err := s.opts.Poster.Post(ctx, body)
	if err != nil {
		return models.Message{}, err
	}

	s.mu.Lock()
	if !s.seen[msg.ID] {
		s.seen[msg.ID] = true
		s.messages = append(s.messages, msg)
	}
	s.unread = 0
	s.mu.Unlock()
	return msg, nil
}

// Messages returns a copy of the messages seen so far, oldest first.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Unread returns the unread counter.
func (s *Session) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// ClearUnread resets the unread counter.
func (s *Session) ClearUnread() {
	s.mu.Lock()
	s.unread = 0
	s.mu.Unlock()
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Viewer returns the session's viewer identity.
func (s *Session) Viewer() models.Viewer {
	return s.opts.Viewer
}

// Directory lists matching profiles with mention counts recomputed from
// the session's live message list, so counts move as messages arrive.
func (s *Session) Directory(ctx context.Context, q models.ProfileQuery) ([]profiles.Entry, error) {
	if s.opts.Directory == nil {
		return nil, models.ValidationError("session has no directory source")
	}
	entries, err := s.opts.Directory.Directory(ctx, q)
	if err != nil {
		return nil, err
	}

	usernames := make([]string, len(entries))
	for i, e := range entries {
		usernames[i] = e.Username
	}
	counts := mentions.Count(usernames, s.Messages())
	for i := range entries {
		entries[i].MentionCount = counts[entries[i].Username]
	}
	return entries, nil
}

// Close tears the session down and detaches the live subscription. Safe
// to call repeatedly and from inside OnMessage.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateTornDown {
		s.mu.Unlock()
		return
	}
	s.state = StateTornDown
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}
