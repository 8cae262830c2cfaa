// Package tags manages user-defined labels that attach to moods, habits,
// and quick notes through join tables.
package tags

import "time"

// Tag is a user-owned label.
type Tag struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- DTOs ---

// TagInput is the validated input for creating or updating a tag.
type TagInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}
