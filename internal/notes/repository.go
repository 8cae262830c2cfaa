package notes

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/tags"
)

// NoteRepository defines the data access contract for quick notes.
// Deleted notes stay in the table with is_deleted set; reads skip them.
type NoteRepository interface {
	Create(ctx context.Context, n *QuickNote) error
	FindByID(ctx context.Context, id int64) (*QuickNote, error)
	ListByUser(ctx context.Context, userID int64) ([]QuickNote, error)
	Update(ctx context.Context, n *QuickNote) error
	SoftDelete(ctx context.Context, id int64) error

	// Tag attachment.
	SetTags(ctx context.Context, noteID int64, tagIDs []int64) error
	ListTags(ctx context.Context, noteID int64) ([]tags.Tag, error)
}

// noteRepository implements NoteRepository with MySQL queries.
type noteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new quick note repository.
func NewNoteRepository(db *sql.DB) NoteRepository {
	return &noteRepository{db: db}
}

// Create inserts a new quick note.
func (r *noteRepository) Create(ctx context.Context, n *QuickNote) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO quick_notes (user_id, content, is_deleted, created_at, updated_at)
		 VALUES (?, ?, FALSE, ?, ?)`,
		n.UserID, n.Content, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting quick note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading quick note insert id: %w", err)
	}
	n.ID = id
	return nil
}

// FindByID retrieves a quick note by primary key. Soft-deleted notes are
// not found.
func (r *noteRepository) FindByID(ctx context.Context, id int64) (*QuickNote, error) {
	n := &QuickNote{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, is_deleted, created_at, updated_at
		 FROM quick_notes WHERE id = ? AND is_deleted = FALSE`, id,
	).Scan(&n.ID, &n.UserID, &n.Content, &n.IsDeleted, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("note not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying quick note: %w", err)
	}
	return n, nil
}

// ListByUser returns the user's live quick notes, newest first.
func (r *noteRepository) ListByUser(ctx context.Context, userID int64) ([]QuickNote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, content, is_deleted, created_at, updated_at
		 FROM quick_notes WHERE user_id = ? AND is_deleted = FALSE
		 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing quick notes: %w", err)
	}
	defer rows.Close()

	var list []QuickNote
	for rows.Next() {
		var n QuickNote
		if err := rows.Scan(&n.ID, &n.UserID, &n.Content, &n.IsDeleted,
			&n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning quick note row: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// Update updates a quick note's content.
func (r *noteRepository) Update(ctx context.Context, n *QuickNote) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE quick_notes SET content = ?, updated_at = ?
		 WHERE id = ? AND is_deleted = FALSE`,
		n.Content, time.Now().UTC(), n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating quick note: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("note not found")
	}
	return nil
}

// SoftDelete marks a quick note deleted. The row stays; reads skip it.
func (r *noteRepository) SoftDelete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE quick_notes SET is_deleted = TRUE, updated_at = ?
		 WHERE id = ? AND is_deleted = FALSE`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting quick note: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("note not found")
	}
	return nil
}

// SetTags replaces the note's tag attachments in a single transaction.
func (r *noteRepository) SetTags(ctx context.Context, noteID int64, tagIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tag update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM note_tags WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("clearing note tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO note_tags (note_id, tag_id) VALUES (?, ?)`,
			noteID, tagID); err != nil {
			return fmt.Errorf("attaching tag %d: %w", tagID, err)
		}
	}

	return tx.Commit()
}

// ListTags returns the tags attached to a quick note.
func (r *noteRepository) ListTags(ctx context.Context, noteID int64) ([]tags.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name, t.color, t.created_at, t.updated_at
		 FROM tags t
		 INNER JOIN note_tags nt ON nt.tag_id = t.id
		 WHERE nt.note_id = ?
		 ORDER BY t.name`, noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing note tags: %w", err)
	}
	defer rows.Close()

	var list []tags.Tag
	for rows.Next() {
		var t tags.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning note tag row: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
