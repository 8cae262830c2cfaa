package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/moodtracker/backend/internal/config"
	"github.com/moodtracker/backend/internal/users"
)

// mockUserRepo stubs just the methods the checker touches; anything else
// panics via the embedded nil interface.
type mockUserRepo struct {
	users.UserRepository

	inactive    []users.User
	inactiveErr error
	gotCutoff   time.Time
	notifiedIDs []int64
}

func (m *mockUserRepo) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]users.User, error) {
	m.gotCutoff = cutoff
	return m.inactive, m.inactiveErr
}

func (m *mockUserRepo) UpdateLastNotified(ctx context.Context, userID int64) error {
	m.notifiedIDs = append(m.notifiedIDs, userID)
	return nil
}

// mockMailer records inactivity emails.
type mockMailer struct {
	sentTo  []string
	sendErr error
}

func (m *mockMailer) SendPasswordResetEmail(ctx context.Context, to, resetLink string) error {
	return nil
}

func (m *mockMailer) SendInactivityEmail(ctx context.Context, to, name string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sentTo = append(m.sentTo, to)
	return nil
}

func inactiveUser(id int64, email, name string) users.User {
	return users.User{ID: id, Email: email, Name: &name, IsActive: true}
}

func newTestChecker(t *testing.T, repo *mockUserRepo, mail *mockMailer) (*InactivityChecker, Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, func() time.Time { return fixedNow })
	cfg := config.InactivityConfig{Threshold: 72 * time.Hour, Interval: 12 * time.Hour}
	checker := NewInactivityChecker(repo, store, mail, cfg, func() time.Time { return fixedNow })
	return checker, store
}

func TestSweep_NotifiesOfflineUser(t *testing.T) {
	repo := &mockUserRepo{inactive: []users.User{inactiveUser(7, "alice@example.com", "Alice")}}
	mail := &mockMailer{}
	checker, store := newTestChecker(t, repo, mail)

	if err := checker.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	wantCutoff := fixedNow.UTC().Add(-72 * time.Hour)
	if !repo.gotCutoff.Equal(wantCutoff) {
		t.Errorf("expected cutoff %v, got %v", wantCutoff, repo.gotCutoff)
	}

	list, err := store.List(context.Background(), 7)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Type != TypeInactivity {
		t.Fatalf("expected one inactivity notification, got %+v", list)
	}

	if len(mail.sentTo) != 1 || mail.sentTo[0] != "alice@example.com" {
		t.Errorf("expected reminder email to alice, got %v", mail.sentTo)
	}
	if len(repo.notifiedIDs) != 1 || repo.notifiedIDs[0] != 7 {
		t.Errorf("expected user 7 stamped as notified, got %v", repo.notifiedIDs)
	}
}

func TestSweep_OnlineUserGetsNoEmail(t *testing.T) {
	repo := &mockUserRepo{inactive: []users.User{inactiveUser(7, "alice@example.com", "Alice")}}
	mail := &mockMailer{}
	checker, store := newTestChecker(t, repo, mail)

	if err := store.AddConnection(context.Background(), 7, "conn-a"); err != nil {
		t.Fatalf("AddConnection: %v", err)
	}

	if err := checker.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	list, _ := store.List(context.Background(), 7)
	if len(list) != 1 {
		t.Errorf("expected queued notification for online user, got %d", len(list))
	}
	if len(mail.sentTo) != 0 {
		t.Errorf("expected no email for online user, got %v", mail.sentTo)
	}
	if len(repo.notifiedIDs) != 1 {
		t.Errorf("expected notification stamp even when online, got %v", repo.notifiedIDs)
	}
}

func TestSweep_ListFailure(t *testing.T) {
	repo := &mockUserRepo{inactiveErr: errors.New("db down")}
	checker, _ := newTestChecker(t, repo, &mockMailer{})

	if err := checker.Sweep(context.Background()); err == nil {
		t.Fatal("expected error when the inactive-user query fails")
	}
}

func TestSweep_MailFailureSkipsStamp(t *testing.T) {
	repo := &mockUserRepo{inactive: []users.User{
		inactiveUser(7, "alice@example.com", "Alice"),
		inactiveUser(8, "bob@example.com", "Bob"),
	}}
	mail := &mockMailer{sendErr: errors.New("smtp refused")}
	checker, store := newTestChecker(t, repo, mail)

	if err := checker.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep should absorb per-user failures: %v", err)
	}

	// Both reminders still queued; neither user stamped.
	for _, id := range []int64{7, 8} {
		list, _ := store.List(context.Background(), id)
		if len(list) != 1 {
			t.Errorf("expected queued reminder for user %d, got %d", id, len(list))
		}
	}
	if len(repo.notifiedIDs) != 0 {
		t.Errorf("expected no notification stamps on mail failure, got %v", repo.notifiedIDs)
	}
}
