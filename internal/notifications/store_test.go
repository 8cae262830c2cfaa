package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/moodtracker/backend/internal/apperror"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, func() time.Time { return fixedNow })
}

func TestQueueAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Queue(ctx, 7, TypeInactivity, "first")
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	second, err := store.Queue(ctx, 7, TypeSystem, "second")
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if first.ID == second.ID {
		t.Error("expected unique notification ids")
	}

	list, err := store.List(ctx, 7)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].Message != "first" || list[1].Message != "second" {
		t.Errorf("expected oldest-first order, got %q then %q",
			list[0].Message, list[1].Message)
	}
	if !list[0].CreatedAt.Equal(fixedNow) {
		t.Errorf("expected created_at %v, got %v", fixedNow, list[0].CreatedAt)
	}
}

func TestListIsScopedPerUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Queue(ctx, 7, TypeSystem, "for seven"); err != nil {
		t.Fatalf("Queue: %v", err)
	}

	list, err := store.List(ctx, 8)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no notifications for other user, got %d", len(list))
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keep, _ := store.Queue(ctx, 7, TypeSystem, "keep")
	drop, _ := store.Queue(ctx, 7, TypeSystem, "drop")

	if err := store.Remove(ctx, 7, drop.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	list, err := store.List(ctx, 7)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != keep.ID {
		t.Errorf("expected only %q to remain, got %+v", keep.ID, list)
	}
}

func TestRemove_Unknown(t *testing.T) {
	store := newTestStore(t)

	err := store.Remove(context.Background(), 7, "no-such-id")
	if !apperror.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Queue(ctx, 7, TypeSystem, "one")
	store.Queue(ctx, 7, TypeSystem, "two")

	if err := store.Clear(ctx, 7); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	list, err := store.List(ctx, 7)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty queue after clear, got %d entries", len(list))
	}
}

func TestQueueTrimsOldest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < maxQueued+5; i++ {
		if _, err := store.Queue(ctx, 7, TypeSystem, "msg"); err != nil {
			t.Fatalf("Queue: %v", err)
		}
	}

	list, err := store.List(ctx, 7)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != maxQueued {
		t.Errorf("expected queue capped at %d, got %d", maxQueued, len(list))
	}
}

func TestPresence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	online, err := store.IsOnline(ctx, 7)
	if err != nil {
		t.Fatalf("IsOnline: %v", err)
	}
	if online {
		t.Error("expected user with no connections to be offline")
	}

	if err := store.AddConnection(ctx, 7, "conn-a"); err != nil {
		t.Fatalf("AddConnection: %v", err)
	}
	if err := store.AddConnection(ctx, 7, "conn-b"); err != nil {
		t.Fatalf("AddConnection: %v", err)
	}

	online, _ = store.IsOnline(ctx, 7)
	if !online {
		t.Error("expected user with connections to be online")
	}

	store.RemoveConnection(ctx, 7, "conn-a")
	online, _ = store.IsOnline(ctx, 7)
	if !online {
		t.Error("expected user to stay online while one connection remains")
	}

	store.RemoveConnection(ctx, 7, "conn-b")
	online, _ = store.IsOnline(ctx, 7)
	if online {
		t.Error("expected user to be offline after last connection drops")
	}
}
