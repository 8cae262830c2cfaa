// Package notifications keeps per-user notification queues and presence
// state in Redis. Notifications pile up in a list until the client fetches
// or dismisses them; live connection ids sit in a set so background jobs
// can tell online users from offline ones.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/moodtracker/backend/internal/apperror"
)

// Notification types.
const (
	TypeInactivity = "inactivity_reminder"
	TypeSystem     = "system"
)

// maxQueued caps each user's pending notification list.
const maxQueued = 100

// Notification is a queued message for a user.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the notification queue and presence contract.
type Store interface {
	Queue(ctx context.Context, userID int64, typ, message string) (*Notification, error)
	List(ctx context.Context, userID int64) ([]Notification, error)
	Remove(ctx context.Context, userID int64, notificationID string) error
	Clear(ctx context.Context, userID int64) error

	// Presence. A user with at least one registered connection id counts
	// as online.
	AddConnection(ctx context.Context, userID int64, connectionID string) error
	RemoveConnection(ctx context.Context, userID int64, connectionID string) error
	IsOnline(ctx context.Context, userID int64) (bool, error)
}

// redisStore implements Store on a Redis client.
type redisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed notification store.
func NewRedisStore(client *redis.Client, now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	return &redisStore{client: client, now: now}
}

func notificationsKey(userID int64) string {
	return fmt.Sprintf("user:%d:notifications", userID)
}

func connectionsKey(userID int64) string {
	return fmt.Sprintf("user:%d:connections", userID)
}

// Queue appends a notification to the user's pending list, trimming the
// oldest entries past the cap.
func (s *redisStore) Queue(ctx context.Context, userID int64, typ, message string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encoding notification: %w", err)
	}

	key := notificationsKey(userID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -maxQueued, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("queueing notification: %w", err)
	}
	return n, nil
}

// List returns the user's pending notifications, oldest first. Entries
// that no longer decode are skipped.
func (s *redisStore) List(ctx context.Context, userID int64) ([]Notification, error) {
	raw, err := s.client.LRange(ctx, notificationsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	var list []Notification
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		list = append(list, n)
	}
	return list, nil
}

// Remove dismisses a single notification by id.
func (s *redisStore) Remove(ctx context.Context, userID int64, notificationID string) error {
	key := notificationsKey(userID)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("listing notifications: %w", err)
	}

	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		if n.ID != notificationID {
			continue
		}
		if err := s.client.LRem(ctx, key, 1, item).Err(); err != nil {
			return fmt.Errorf("removing notification: %w", err)
		}
		return nil
	}
	return apperror.NewNotFound("notification not found")
}

// Clear drops all pending notifications for the user.
func (s *redisStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, notificationsKey(userID)).Err(); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}
	return nil
}

// AddConnection registers a live connection id for the user.
func (s *redisStore) AddConnection(ctx context.Context, userID int64, connectionID string) error {
	if err := s.client.SAdd(ctx, connectionsKey(userID), connectionID).Err(); err != nil {
		return fmt.Errorf("registering connection: %w", err)
	}
	return nil
}

// RemoveConnection drops a connection id for the user.
func (s *redisStore) RemoveConnection(ctx context.Context, userID int64, connectionID string) error {
	if err := s.client.SRem(ctx, connectionsKey(userID), connectionID).Err(); err != nil {
		return fmt.Errorf("removing connection: %w", err)
	}
	return nil
}

// IsOnline reports whether the user has any live connections.
func (s *redisStore) IsOnline(ctx context.Context, userID int64) (bool, error) {
	count, err := s.client.SCard(ctx, connectionsKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("counting connections: %w", err)
	}
	return count > 0, nil
}
