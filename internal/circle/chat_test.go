package circle

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/models"
	"github.com/wisdomcircle/circled/internal/session"
)

type fixedStream struct {
	deliver func(models.Message)
}

func (s *fixedStream) ListAll(ctx context.Context) ([]models.Message, error) { return nil, nil }

func (s *fixedStream) Subscribe(fn func(models.Message)) (session.Subscription, error) {
	s.deliver = fn
	return nopSubscription{}, nil
}

type nopSubscription struct{}

func (nopSubscription) Close() {}

func newModelForTest(t *testing.T) *chatModel {
	t.Helper()
	sess := session.New(session.Options{
		Kind:   session.KindShell,
		Viewer: models.Viewer{Username: "amine"},
		Logger: zerolog.Nop(),
	})
	incoming := make(chan models.Message)
	return newChatModel(sess, "amine", incoming)
}

func TestChatInputEditing(t *testing.T) {
	m := newModelForTest(t)

	for _, r := range "hello" {
		m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m.handleKey(tea.KeyMsg{Type: tea.KeySpace})
	m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("@sara")})
	if m.input != "hello @sara" {
		t.Fatalf("input = %q, want %q", m.input, "hello @sara")
	}

	m.handleKey(tea.KeyMsg{Type: tea.KeyBackspace})
	if m.input != "hello @sar" {
		t.Errorf("input after backspace = %q", m.input)
	}
}

func TestChatEnterIgnoresBlankInput(t *testing.T) {
	m := newModelForTest(t)
	m.input = "   "
	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("blank input produced a send command")
	}
	if m.sending {
		t.Error("blank input marked model as sending")
	}
}

func TestChatViewShowsUnreadBadge(t *testing.T) {
	stream := &fixedStream{}
	sess := session.New(session.Options{
		Kind:   session.KindShell,
		Viewer: models.Viewer{Username: "amine"},
		Stream: stream,
		Logger: zerolog.Nop(),
	})
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sess.Close()

	m := newChatModel(sess, "amine", make(chan models.Message))
	m.width, m.height = 80, 24

	if strings.Contains(m.View(), "new") {
		t.Error("badge shown with nothing unread")
	}

	stream.deliver(models.Message{ID: 1, Username: "sara", Body: "hi", CreatedAt: time.Now()})
	stream.deliver(models.Message{ID: 2, Username: "sara", Body: "hey", CreatedAt: time.Now()})
	if got := m.View(); !strings.Contains(got, "2 new") {
		t.Errorf("view missing unread badge, got header %q", strings.SplitN(got, "\n", 2)[0])
	}

	sess.ClearUnread()
	if strings.Contains(m.View(), "new") {
		t.Error("badge still shown after clearing unread")
	}
}

func TestChatQuitKeys(t *testing.T) {
	m := newModelForTest(t)
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := m.handleKey(tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Errorf("key %v did not quit", key)
		}
	}
}
