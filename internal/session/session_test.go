package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/models"
	"github.com/wisdomcircle/circled/internal/profiles"
)

type fakeStream struct {
	mu       sync.Mutex
	history  []models.Message
	listErr  error
	handlers []func(models.Message)
	closed   int
}

func (f *fakeStream) ListAll(context.Context) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Message, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeStream) Subscribe(fn func(models.Message)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fn)
	return &fakeSub{stream: f}, nil
}

func (f *fakeStream) emit(m models.Message) {
	f.mu.Lock()
	handlers := append([]func(models.Message){}, f.handlers...)
	f.mu.Unlock()
	for _, fn := range handlers {
		fn(m)
	}
}

type fakeSub struct{ stream *fakeStream }

func (s *fakeSub) Close() {
	s.stream.mu.Lock()
	s.stream.closed++
	s.stream.mu.Unlock()
}

type fakePoster struct {
	stream *fakeStream
	nextID int64
	echo   bool
}

func (p *fakePoster) Post(_ context.Context, body string) (models.Message, error) {
	p.nextID++
	m := models.Message{ID: p.nextID, Username: "amine", Body: body}
	if p.echo {
		p.stream.emit(m)
	}
	return m, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []models.Message
}

func (n *fakeNotifier) Notify(m models.Message) error {
	n.mu.Lock()
	n.calls = append(n.calls, m)
	n.mu.Unlock()
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func start(t *testing.T, opts Options) *Session {
	t.Helper()
	opts.Logger = zerolog.Nop()
	s := New(opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStartLoadsSnapshotThenFollowsFeed(t *testing.T) {
	stream := &fakeStream{history: []models.Message{{ID: 1, Username: "sara", Body: "hi"}}}
	s := start(t, Options{Kind: KindShell, Stream: stream})

	if got := s.State(); got != StateActive {
		t.Fatalf("state = %v, want active", got)
	}
	if got := len(s.Messages()); got != 1 {
		t.Fatalf("snapshot size = %d, want 1", got)
	}

	stream.emit(models.Message{ID: 2, Username: "sara", Body: "again"})
	msgs := s.Messages()
	if len(msgs) != 2 || msgs[1].ID != 2 {
		t.Errorf("messages = %+v, want ids [1 2]", msgs)
	}
}

func TestStartWithFailedSnapshotStartsEmpty(t *testing.T) {
	stream := &fakeStream{listErr: errors.New("boom")}
	s := start(t, Options{Kind: KindShell, Stream: stream})

	if got := s.State(); got != StateActive {
		t.Fatalf("state = %v, want active", got)
	}
	if got := len(s.Messages()); got != 0 {
		t.Errorf("messages = %d, want 0", got)
	}

	stream.emit(models.Message{ID: 1, Username: "sara", Body: "hi"})
	if got := len(s.Messages()); got != 1 {
		t.Errorf("messages after emit = %d, want 1", got)
	}
}

func TestChatRequiresLogin(t *testing.T) {
	stream := &fakeStream{}
	s := New(Options{Kind: KindChat, Stream: stream, Logger: zerolog.Nop()})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := s.State(); got != StateRedirecting {
		t.Errorf("state = %v, want redirecting", got)
	}
	stream.mu.Lock()
	subs := len(stream.handlers)
	stream.mu.Unlock()
	if subs != 0 {
		t.Errorf("redirecting session subscribed %d times", subs)
	}
}

func TestSnapshotOverlapDeduplicatedByID(t *testing.T) {
	m := models.Message{ID: 5, Username: "sara", Body: "hi"}
	stream := &fakeStream{history: []models.Message{m}}
	s := start(t, Options{Kind: KindShell, Stream: stream})

	stream.emit(m)
	if got := len(s.Messages()); got != 1 {
		t.Errorf("messages = %d, want 1 after duplicate event", got)
	}
	if got := s.Unread(); got != 0 {
		t.Errorf("unread = %d, want 0 for duplicate", got)
	}
}

func TestUnreadCountsEveryNewMessageAndClears(t *testing.T) {
	stream := &fakeStream{}
	s := start(t, Options{Kind: KindShell, Stream: stream})

	stream.emit(models.Message{ID: 1, Username: "sara", Body: "a"})
	stream.emit(models.Message{ID: 2, Username: "omar", Body: "b"})
	if got := s.Unread(); got != 2 {
		t.Fatalf("unread = %d, want 2", got)
	}

	s.ClearUnread()
	if got := s.Unread(); got != 0 {
		t.Errorf("unread after clear = %d, want 0", got)
	}
}

func TestSendClearsUnreadAndDeduplicatesEcho(t *testing.T) {
	stream := &fakeStream{}
	poster := &fakePoster{stream: stream, echo: true}
	s := start(t, Options{
		Kind:   KindChat,
		Viewer: models.Viewer{UserID: 1, Username: "amine"},
		Stream: stream,
		Poster: poster,
	})

	stream.emit(models.Message{ID: 100, Username: "sara", Body: "hi"})
	if got := s.Unread(); got != 1 {
		t.Fatalf("unread = %d, want 1", got)
	}

	msg, err := s.Send(context.Background(), "hello back")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := s.Unread(); got != 0 {
		t.Errorf("unread after send = %d, want 0", got)
	}

	var mine int
	for _, m := range s.Messages() {
		if m.ID == msg.ID {
			mine++
		}
	}
	if mine != 1 {
		t.Errorf("own message appears %d times, want 1", mine)
	}
}

func TestNotificationsFollowPolicy(t *testing.T) {
	tests := []struct {
		name       string
		kind       Kind
		permission models.Permission
		from       string
		body       string
		want       int
	}{
		{"other sender, shell view", KindShell, models.PermissionGranted, "sara", "hi", 1},
		{"other sender, chat view", KindChat, models.PermissionGranted, "sara", "hi @amine", 0},
		{"own message, no self mention", KindShell, models.PermissionGranted, "amine", "hi", 0},
		{"own self mention", KindChat, models.PermissionGranted, "amine", "note to @amine", 1},
		{"permission denied", KindShell, models.PermissionDenied, "sara", "hi", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := &fakeStream{}
			notifier := &fakeNotifier{}
			start(t, Options{
				Kind:       tt.kind,
				Viewer:     models.Viewer{UserID: 1, Username: "amine"},
				Permission: tt.permission,
				Stream:     stream,
				Notifier:   notifier,
			})

			stream.emit(models.Message{ID: 1, Username: tt.from, Body: tt.body})
			if got := notifier.count(); got != tt.want {
				t.Errorf("notifications = %d, want %d", got, tt.want)
			}
		})
	}
}

type fakeDirectory struct{ entries []profiles.Entry }

func (d *fakeDirectory) Directory(context.Context, models.ProfileQuery) ([]profiles.Entry, error) {
	out := make([]profiles.Entry, len(d.entries))
	copy(out, d.entries)
	return out, nil
}

func TestDirectoryCountsFollowLiveMessages(t *testing.T) {
	stream := &fakeStream{history: []models.Message{{ID: 1, Username: "sara", Body: "@amine hi"}}}
	dir := &fakeDirectory{entries: []profiles.Entry{
		{Profile: models.Profile{Username: "amine"}},
		{Profile: models.Profile{Username: "sara"}},
	}}
	s := start(t, Options{Kind: KindDirectory, Stream: stream, Directory: dir})

	entries, err := s.Directory(context.Background(), models.ProfileQuery{})
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if entries[0].MentionCount != 1 || entries[1].MentionCount != 0 {
		t.Fatalf("counts = [%d %d], want [1 0]", entries[0].MentionCount, entries[1].MentionCount)
	}

	stream.emit(models.Message{ID: 2, Username: "omar", Body: "@amine @sara"})
	entries, err = s.Directory(context.Background(), models.ProfileQuery{})
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if entries[0].MentionCount != 2 || entries[1].MentionCount != 1 {
		t.Errorf("counts = [%d %d], want [2 1]", entries[0].MentionCount, entries[1].MentionCount)
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	stream := &fakeStream{}
	s := start(t, Options{Kind: KindShell, Stream: stream})

	s.Close()
	s.Close()
	if got := s.State(); got != StateTornDown {
		t.Fatalf("state = %v, want torn down", got)
	}

	stream.emit(models.Message{ID: 1, Username: "sara", Body: "hi"})
	if got := len(s.Messages()); got != 0 {
		t.Errorf("messages after close = %d, want 0", got)
	}

	stream.mu.Lock()
	closed := stream.closed
	stream.mu.Unlock()
	if closed != 1 {
		t.Errorf("subscription closed %d times, want 1", closed)
	}
}
