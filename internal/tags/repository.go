package tags

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
)

// TagRepository defines the data access contract for tags.
type TagRepository interface {
	Create(ctx context.Context, t *Tag) error
	FindByID(ctx context.Context, id int64) (*Tag, error)
	ListByUser(ctx context.Context, userID int64) ([]Tag, error)
	Update(ctx context.Context, t *Tag) error
	Delete(ctx context.Context, id int64) error

	// CountOwned reports how many of the given tag ids belong to the
	// user. Callers use it to validate tag attachments.
	CountOwned(ctx context.Context, userID int64, ids []int64) (int, error)
}

// tagRepository implements TagRepository with MySQL queries.
type tagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new tag repository.
func NewTagRepository(db *sql.DB) TagRepository {
	return &tagRepository{db: db}
}

// Create inserts a new tag.
func (r *tagRepository) Create(ctx context.Context, t *Tag) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (user_id, name, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.UserID, t.Name, t.Color, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading tag insert id: %w", err)
	}
	t.ID = id
	return nil
}

// FindByID retrieves a tag by primary key.
func (r *tagRepository) FindByID(ctx context.Context, id int64) (*Tag, error) {
	t := &Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, color, created_at, updated_at
		 FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("tag not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying tag: %w", err)
	}
	return t, nil
}

// ListByUser returns all tags for a user, ordered by name.
func (r *tagRepository) ListByUser(ctx context.Context, userID int64) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color, created_at, updated_at
		 FROM tags WHERE user_id = ? ORDER BY name`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var list []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update updates a tag's name and color.
func (r *tagRepository) Update(ctx context.Context, t *Tag) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Color, time.Now().UTC(), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tag: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("tag not found")
	}
	return nil
}

// Delete removes a tag. Join table rows cascade via foreign keys.
func (r *tagRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("tag not found")
	}
	return nil
}

// CountOwned counts how many of the ids belong to the user.
func (r *tagRepository) CountOwned(ctx context.Context, userID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE user_id = ? AND id IN (`+placeholders+`)`,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting owned tags: %w", err)
	}
	return count, nil
}
