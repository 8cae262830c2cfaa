package moods

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/tags"
)

// MoodRepository defines the data access contract for mood entries.
type MoodRepository interface {
	Create(ctx context.Context, m *Mood) error
	FindByID(ctx context.Context, id int64) (*Mood, error)
	ListByUser(ctx context.Context, userID int64, filter HistoryFilter) ([]Mood, error)
	Update(ctx context.Context, m *Mood) error
	Delete(ctx context.Context, id int64) error

	// Tag attachment.
	SetTags(ctx context.Context, moodID int64, tagIDs []int64) error
	ListTags(ctx context.Context, moodID int64) ([]tags.Tag, error)
}

// moodRepository implements MoodRepository with MySQL queries.
type moodRepository struct {
	db *sql.DB
}

// NewMoodRepository creates a new mood repository.
func NewMoodRepository(db *sql.DB) MoodRepository {
	return &moodRepository{db: db}
}

// Create inserts a new mood entry.
func (r *moodRepository) Create(ctx context.Context, m *Mood) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO moods (user_id, mood_type, intensity, notes, timestamp, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.UserID, m.MoodType, m.Intensity, m.Notes, m.Timestamp, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting mood: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading mood insert id: %w", err)
	}
	m.ID = id
	return nil
}

// FindByID retrieves a mood entry by primary key.
func (r *moodRepository) FindByID(ctx context.Context, id int64) (*Mood, error) {
	m := &Mood{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, mood_type, intensity, notes, timestamp, created_at, updated_at
		 FROM moods WHERE id = ?`, id,
	).Scan(&m.ID, &m.UserID, &m.MoodType, &m.Intensity, &m.Notes,
		&m.Timestamp, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("mood entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying mood: %w", err)
	}
	return m, nil
}

// ListByUser returns the user's mood entries, newest first, optionally
// bounded by a date range.
func (r *moodRepository) ListByUser(ctx context.Context, userID int64, filter HistoryFilter) ([]Mood, error) {
	query := `SELECT id, user_id, mood_type, intensity, notes, timestamp, created_at, updated_at
	          FROM moods WHERE user_id = ?`
	args := []any{userID}

	if filter.From != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *filter.To)
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing moods: %w", err)
	}
	defer rows.Close()

	var list []Mood
	for rows.Next() {
		var m Mood
		if err := rows.Scan(&m.ID, &m.UserID, &m.MoodType, &m.Intensity,
			&m.Notes, &m.Timestamp, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning mood row: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Update updates a mood entry's editable fields.
func (r *moodRepository) Update(ctx context.Context, m *Mood) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE moods SET mood_type = ?, intensity = ?, notes = ?, timestamp = ?, updated_at = ?
		 WHERE id = ?`,
		m.MoodType, m.Intensity, m.Notes, m.Timestamp, time.Now().UTC(), m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating mood: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("mood entry not found")
	}
	return nil
}

// Delete removes a mood entry. Tag join rows cascade.
func (r *moodRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM moods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting mood: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("mood entry not found")
	}
	return nil
}

// SetTags replaces the mood's tag attachments in a single transaction.
func (r *moodRepository) SetTags(ctx context.Context, moodID int64, tagIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tag update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM mood_tags WHERE mood_id = ?`, moodID); err != nil {
		return fmt.Errorf("clearing mood tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mood_tags (mood_id, tag_id) VALUES (?, ?)`,
			moodID, tagID); err != nil {
			return fmt.Errorf("attaching tag %d: %w", tagID, err)
		}
	}

	return tx.Commit()
}

// ListTags returns the tags attached to a mood entry.
func (r *moodRepository) ListTags(ctx context.Context, moodID int64) ([]tags.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name, t.color, t.created_at, t.updated_at
		 FROM tags t
		 INNER JOIN mood_tags mt ON mt.tag_id = t.id
		 WHERE mt.mood_id = ?
		 ORDER BY t.name`, moodID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing mood tags: %w", err)
	}
	defer rows.Close()

	var list []tags.Tag
	for rows.Next() {
		var t tags.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning mood tag row: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
