package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if _, err := database.MigrateUp(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func TestMessageRepositoryInsertAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(openTestDB(t))

	var lastID int64
	for i := 0; i < 20; i++ {
		msg, err := repo.Insert(ctx, "sara", fmt.Sprintf("message %d", i), time.Now())
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if msg.ID <= lastID {
			t.Fatalf("id %d not greater than previous %d", msg.ID, lastID)
		}
		lastID = msg.ID
	}
}

func TestMessageRepositoryListAllReadOrderMatchesWriteOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(openTestDB(t))

	bodies := []string{"first", "second", "third", "fourth"}
	for _, body := range bodies {
		if _, err := repo.Insert(ctx, "omar", body, time.Now()); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	messages, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(messages) != len(bodies) {
		t.Fatalf("got %d messages, want %d", len(messages), len(bodies))
	}
	for i, msg := range messages {
		if msg.Body != bodies[i] {
			t.Errorf("messages[%d].Body = %q, want %q", i, msg.Body, bodies[i])
		}
		if i > 0 && messages[i].ID <= messages[i-1].ID {
			t.Errorf("messages[%d].ID = %d not ascending after %d", i, messages[i].ID, messages[i-1].ID)
		}
	}
}

func TestMessageRepositoryCount(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(openTestDB(t))

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("empty table count = %d", n)
	}

	for i := 0; i < 3; i++ {
		if _, err := repo.Insert(ctx, "sara", fmt.Sprintf("message %d", i), time.Now()); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	n, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestMessageRepositoryRejectsEmptyFields(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(openTestDB(t))

	if _, err := repo.Insert(ctx, "", "hi", time.Now()); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("empty username: %v, want ErrInvalidMessage", err)
	}
	if _, err := repo.Insert(ctx, "sara", "", time.Now()); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("empty body: %v, want ErrInvalidMessage", err)
	}
}

func TestMessageRepositoryTimestampRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(openTestDB(t))

	at := time.Date(2025, 6, 1, 12, 30, 45, 123000000, time.UTC)
	inserted, err := repo.Insert(ctx, "sara", "hi", at)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	messages, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != inserted.ID {
		t.Fatalf("ListAll = %+v", messages)
	}
	if !messages[0].CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", messages[0].CreatedAt, at)
	}
}
