// Package notes manages quick notes: short free-form text a user jots
// down alongside mood and habit tracking. Deletion is soft so notes can
// be recovered by support tooling.
package notes

import (
	"time"

	"github.com/moodtracker/backend/internal/tags"
)

// MaxContentLength bounds a quick note's content.
const MaxContentLength = 5000

// QuickNote is a short free-form note.
type QuickNote struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"-"`
	Content   string     `json:"content"`
	IsDeleted bool       `json:"-"`
	Tags      []tags.Tag `json:"tags,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NoteInput is the validated input for creating or updating a quick note.
type NoteInput struct {
	Content string  `json:"content"`
	TagIDs  []int64 `json:"tag_ids,omitempty"`
}
