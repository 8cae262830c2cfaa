package habits

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/tags"
)

// HabitRepository defines the data access contract for habits and their
// completions.
type HabitRepository interface {
	Create(ctx context.Context, h *Habit) error
	FindByID(ctx context.Context, id int64) (*Habit, error)
	ListByUser(ctx context.Context, userID int64) ([]Habit, error)
	Update(ctx context.Context, h *Habit) error
	Delete(ctx context.Context, id int64) error

	// Completions. AddCompletion is idempotent per (habit, date).
	AddCompletion(ctx context.Context, habitID int64, date string) (*Completion, error)
	RemoveCompletion(ctx context.Context, habitID int64, date string) error
	ListCompletions(ctx context.Context, habitID int64, from, to string) ([]Completion, error)

	// Tag attachment.
	SetTags(ctx context.Context, habitID int64, tagIDs []int64) error
	ListTags(ctx context.Context, habitID int64) ([]tags.Tag, error)
}

// habitRepository implements HabitRepository with MySQL queries.
type habitRepository struct {
	db *sql.DB
}

// NewHabitRepository creates a new habit repository.
func NewHabitRepository(db *sql.DB) HabitRepository {
	return &habitRepository{db: db}
}

// Create inserts a new habit.
func (r *habitRepository) Create(ctx context.Context, h *Habit) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO habits
		 (user_id, name, description, color, frequency_type, frequency_target,
		  is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.UserID, h.Name, h.Description, h.Color, h.FrequencyType,
		h.FrequencyTarget, h.IsActive, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting habit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading habit insert id: %w", err)
	}
	h.ID = id
	return nil
}

const habitColumns = `id, user_id, name, description, color, frequency_type,
	frequency_target, is_active, created_at, updated_at`

// FindByID retrieves a habit by primary key.
func (r *habitRepository) FindByID(ctx context.Context, id int64) (*Habit, error) {
	h := &Habit{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = ?`, id,
	).Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.Color,
		&h.FrequencyType, &h.FrequencyTarget, &h.IsActive,
		&h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("habit not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying habit: %w", err)
	}
	return h, nil
}

// ListByUser returns all of a user's habits, active first, then by name.
func (r *habitRepository) ListByUser(ctx context.Context, userID int64) ([]Habit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+habitColumns+` FROM habits
		 WHERE user_id = ? ORDER BY is_active DESC, name`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	defer rows.Close()

	var list []Habit
	for rows.Next() {
		var h Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Description,
			&h.Color, &h.FrequencyType, &h.FrequencyTarget, &h.IsActive,
			&h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning habit row: %w", err)
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

// Update updates a habit's editable fields.
func (r *habitRepository) Update(ctx context.Context, h *Habit) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE habits SET name = ?, description = ?, color = ?,
		 frequency_type = ?, frequency_target = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		h.Name, h.Description, h.Color, h.FrequencyType, h.FrequencyTarget,
		h.IsActive, time.Now().UTC(), h.ID,
	)
	if err != nil {
		return fmt.Errorf("updating habit: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("habit not found")
	}
	return nil
}

// Delete removes a habit. Completions and tag rows cascade.
func (r *habitRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting habit: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("habit not found")
	}
	return nil
}

// --- Completions ---

// AddCompletion records a completion for the date. Re-completing the same
// date is a no-op thanks to the unique key.
func (r *habitRepository) AddCompletion(ctx context.Context, habitID int64, date string) (*Completion, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO habit_completions (habit_id, completion_date, created_at)
		 VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE habit_id = habit_id`,
		habitID, date, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting completion: %w", err)
	}

	c := &Completion{}
	err = r.db.QueryRowContext(ctx,
		`SELECT id, habit_id, completion_date, created_at
		 FROM habit_completions WHERE habit_id = ? AND completion_date = ?`,
		habitID, date,
	).Scan(&c.ID, &c.HabitID, &c.CompletionDate, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying completion: %w", err)
	}
	return c, nil
}

// RemoveCompletion deletes the completion for the date.
func (r *habitRepository) RemoveCompletion(ctx context.Context, habitID int64, date string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM habit_completions WHERE habit_id = ? AND completion_date = ?`,
		habitID, date,
	)
	if err != nil {
		return fmt.Errorf("deleting completion: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("completion not found")
	}
	return nil
}

// ListCompletions returns completions for a habit within the date range,
// oldest first.
func (r *habitRepository) ListCompletions(ctx context.Context, habitID int64, from, to string) ([]Completion, error) {
	query := `SELECT id, habit_id, completion_date, created_at
	          FROM habit_completions WHERE habit_id = ?`
	args := []any{habitID}

	if from != "" {
		query += ` AND completion_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND completion_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY completion_date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing completions: %w", err)
	}
	defer rows.Close()

	var list []Completion
	for rows.Next() {
		var c Completion
		if err := rows.Scan(&c.ID, &c.HabitID, &c.CompletionDate, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning completion row: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// --- Tag attachment ---

// SetTags replaces the habit's tag attachments in a single transaction.
func (r *habitRepository) SetTags(ctx context.Context, habitID int64, tagIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tag update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM habit_tags WHERE habit_id = ?`, habitID); err != nil {
		return fmt.Errorf("clearing habit tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO habit_tags (habit_id, tag_id) VALUES (?, ?)`,
			habitID, tagID); err != nil {
			return fmt.Errorf("attaching tag %d: %w", tagID, err)
		}
	}

	return tx.Commit()
}

// ListTags returns the tags attached to a habit.
func (r *habitRepository) ListTags(ctx context.Context, habitID int64) ([]tags.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name, t.color, t.created_at, t.updated_at
		 FROM tags t
		 INNER JOIN habit_tags ht ON ht.tag_id = t.id
		 WHERE ht.habit_id = ?
		 ORDER BY t.name`, habitID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing habit tags: %w", err)
	}
	defer rows.Close()

	var list []tags.Tag
	for rows.Next() {
		var t tags.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning habit tag row: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
