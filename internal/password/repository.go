package password

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
)

// ResetTokenRepository defines the data access contract for reset token rows.
type ResetTokenRepository interface {
	Insert(ctx context.Context, t *ResetToken) error

	// FindValid returns the unused, unexpired row for (userID, token).
	FindValid(ctx context.Context, userID int64, token string) (*ResetToken, error)

	// MarkUsed flips used=false to true atomically. Returns a conflict
	// when the row was already used or is gone, so a race between two
	// redemption attempts has exactly one winner.
	MarkUsed(ctx context.Context, id int64) error

	// DeleteExpired removes all unused rows past their expiry, system-wide.
	DeleteExpired(ctx context.Context) (int64, error)
}

// resetTokenRepository implements ResetTokenRepository with MySQL queries.
type resetTokenRepository struct {
	db *sql.DB
}

// NewResetTokenRepository creates a new reset token repository.
func NewResetTokenRepository(db *sql.DB) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

// Insert persists a new reset token row.
func (r *resetTokenRepository) Insert(ctx context.Context, t *ResetToken) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (user_id, token, expires_at, used, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.UserID, t.Token, t.ExpiresAt, t.Used, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting reset token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading reset token insert id: %w", err)
	}
	t.ID = id
	return nil
}

// FindValid retrieves the unused, unexpired row matching (userID, token).
func (r *resetTokenRepository) FindValid(ctx context.Context, userID int64, token string) (*ResetToken, error) {
	t := &ResetToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, used, created_at
		 FROM password_reset_tokens
		 WHERE user_id = ? AND token = ? AND used = FALSE AND expires_at > ?`,
		userID, token, time.Now().UTC(),
	).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("reset token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying reset token: %w", err)
	}
	return t, nil
}

// MarkUsed performs the atomic used=false→true transition. The WHERE clause
// is the concurrency gate: a second redeemer matches zero rows.
func (r *resetTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = TRUE WHERE id = ? AND used = FALSE`,
		id,
	)
	if err != nil {
		return fmt.Errorf("marking reset token used: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewConflict("reset token already used")
	}
	return nil
}

// DeleteExpired sweeps all expired unused rows.
func (r *resetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE used = FALSE AND expires_at < ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired reset tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
