package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/db"
	"github.com/wisdomcircle/circled/internal/feed"
	"github.com/wisdomcircle/circled/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenInMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if _, err := database.MigrateUp(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	f := feed.New(zerolog.Nop())
	t.Cleanup(f.Close)

	return NewStore(db.NewMessageRepository(database), f, zerolog.Nop())
}

func viewer(name string) models.Viewer {
	return models.Viewer{UserID: 1, Username: name}
}

func TestAppendPersistsAndReturnsMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg, err := s.Append(ctx, viewer("amine"), "  hello world  ")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if msg.ID == 0 {
		t.Error("message id not assigned")
	}
	if msg.Body != "hello world" {
		t.Errorf("body = %q, want trimmed %q", msg.Body, "hello world")
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != msg.ID {
		t.Errorf("ListAll = %+v, want the appended message", all)
	}
}

func TestAppendRejectsEmptyBody(t *testing.T) {
	s := newTestStore(t)

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := s.Append(context.Background(), viewer("amine"), body)
		if !models.IsValidation(err) {
			t.Errorf("Append(%q) error = %v, want validation error", body, err)
		}
	}
}

func TestAppendRejectsUnresolvedViewer(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Append(context.Background(), models.Viewer{}, "hello")
	if !models.IsAuth(err) {
		t.Errorf("error = %v, want auth error", err)
	}
	if errors.Is(err, models.ErrValidation) {
		t.Error("auth failure should not wrap the validation sentinel")
	}
}

func TestAppendEmitsExactlyOneEvent(t *testing.T) {
	s := newTestStore(t)

	events := make(chan models.Message, 8)
	sub := s.Subscribe(func(m models.Message) { events <- m })
	defer s.Unsubscribe(sub)

	msg, err := s.Append(context.Background(), viewer("amine"), "hello")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	select {
	case got := <-events:
		if got.ID != msg.ID || got.Body != msg.Body {
			t.Errorf("event = %+v, want %+v", got, msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no feed event after append")
	}

	select {
	case got := <-events:
		t.Fatalf("unexpected second event %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRejectedAppendEmitsNothing(t *testing.T) {
	s := newTestStore(t)

	events := make(chan models.Message, 1)
	sub := s.Subscribe(func(m models.Message) { events <- m })
	defer s.Unsubscribe(sub)

	if _, err := s.Append(context.Background(), viewer("amine"), "   "); err == nil {
		t.Fatal("expected validation error")
	}

	select {
	case got := <-events:
		t.Fatalf("unexpected event %+v for rejected append", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConcurrentAppendsPublishInIDOrder(t *testing.T) {
	s := newTestStore(t)

	var mu sync.Mutex
	var gotIDs []int64
	sub := s.Subscribe(func(m models.Message) {
		mu.Lock()
		gotIDs = append(gotIDs, m.ID)
		mu.Unlock()
	})
	defer s.Unsubscribe(sub)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Append(context.Background(), viewer("amine"), "hello"); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		done := len(gotIDs) == n
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for events")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(gotIDs); i++ {
		if gotIDs[i] <= gotIDs[i-1] {
			t.Fatalf("events out of id order: %v", gotIDs)
		}
	}
}
