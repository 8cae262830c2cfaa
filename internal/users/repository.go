package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
)

// UserRepository defines the data access contract for users and their
// refresh tokens.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID int64) error
	UpdateLastNotified(ctx context.Context, userID int64) error
	UpdatePreferences(ctx context.Context, userID int64, prefs json.RawMessage) error
	Delete(ctx context.Context, id int64) error

	// ListInactiveSince returns active users with no mood entry after the
	// cutoff who haven't been notified since the cutoff either.
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]User, error)

	// Refresh token rows.
	AddRefreshToken(ctx context.Context, t *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	FindByRefreshToken(ctx context.Context, token string) (*User, error)
	DeleteRefreshToken(ctx context.Context, userID int64, token string) error
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// userRepository implements UserRepository with MySQL queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user and sets the generated ID.
func (r *userRepository) Create(ctx context.Context, u *User) error {
	query := `INSERT INTO users
		(email, password_hash, name, preferences, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		u.Email, u.PasswordHash, u.Name, nullableJSON(u.Preferences),
		u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user insert id: %w", err)
	}
	u.ID = id
	return nil
}

const userColumns = `id, email, password_hash, name, preferences, is_active,
	last_login, last_notified, created_at, updated_at`

// FindByID retrieves a user by primary key.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByEmail retrieves a user by email address.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// EmailExists reports whether an account with this email already exists.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return count > 0, nil
}

// UpdatePassword replaces the stored credential for a user.
func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// UpdateLastLogin stamps the user's last login time.
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// UpdateLastNotified stamps the user's last inactivity notification time.
func (r *userRepository) UpdateLastNotified(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_notified = ? WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("updating last notified: %w", err)
	}
	return nil
}

// UpdatePreferences replaces the user's preferences JSON.
func (r *userRepository) UpdatePreferences(ctx context.Context, userID int64, prefs json.RawMessage) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET preferences = ?, updated_at = ? WHERE id = ?`,
		nullableJSON(prefs), time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("updating preferences: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// Delete removes a user. Refresh tokens, moods, habits, tags, and notes
// cascade via foreign keys.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// ListInactiveSince returns active users whose latest mood entry (if any)
// predates the cutoff and who haven't already been nudged since the cutoff.
func (r *userRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]User, error) {
	query := `SELECT ` + userColumns + `
	          FROM users u
	          WHERE u.is_active = TRUE
	            AND NOT EXISTS (
	                SELECT 1 FROM moods m
	                WHERE m.user_id = u.id AND m.timestamp > ?
	            )
	            AND (u.last_notified IS NULL OR u.last_notified < ?)`

	rows, err := r.db.QueryContext(ctx, query, cutoff, cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing inactive users: %w", err)
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

// --- Refresh token rows ---

// AddRefreshToken appends a refresh token to the user's collection.
func (r *userRepository) AddRefreshToken(ctx context.Context, t *RefreshToken) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token, expires_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		t.UserID, t.Token, t.ExpiresAt, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting refresh token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading refresh token insert id: %w", err)
	}
	t.ID = id
	return nil
}

// FindRefreshToken retrieves a refresh token row by its opaque value.
func (r *userRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	t := &RefreshToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at
		 FROM refresh_tokens WHERE token = ?`, token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("refresh token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying refresh token: %w", err)
	}
	return t, nil
}

// FindByRefreshToken retrieves the user owning a refresh token.
func (r *userRepository) FindByRefreshToken(ctx context.Context, token string) (*User, error) {
	query := `SELECT u.id, u.email, u.password_hash, u.name, u.preferences,
	                 u.is_active, u.last_login, u.last_notified,
	                 u.created_at, u.updated_at
	          FROM users u
	          INNER JOIN refresh_tokens rt ON rt.user_id = u.id
	          WHERE rt.token = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, token))
}

// DeleteRefreshToken removes a token row. A zero-rows-affected delete means
// another request already rotated or revoked the token; surfaced as a
// conflict so a concurrent refresh race has exactly one winner.
func (r *userRepository) DeleteRefreshToken(ctx context.Context, userID int64, token string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = ? AND token = ?`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("deleting refresh token: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewConflict("refresh token already rotated or revoked")
	}
	return nil
}

// DeleteExpiredRefreshTokens removes all expired token rows system-wide.
func (r *userRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired refresh tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// --- Scan helpers ---

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepository) scanUser(row *sql.Row) (*User, error) {
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("user not found")
	}
	return u, err
}

func scanUserRow(row rowScanner) (*User, error) {
	u := &User{}
	var prefs sql.NullString
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &prefs, &u.IsActive,
		&u.LastLogin, &u.LastNotified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user row: %w", err)
	}
	if prefs.Valid {
		u.Preferences = json.RawMessage(prefs.String)
	}
	return u, nil
}

// nullableJSON converts an empty RawMessage to NULL for storage.
func nullableJSON(m json.RawMessage) any {
	if len(m) == 0 {
		return nil
	}
	return string(m)
}
