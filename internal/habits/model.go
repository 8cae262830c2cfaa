// Package habits manages recurring habits and their completion records.
package habits

import (
	"time"

	"github.com/moodtracker/backend/internal/tags"
)

// Habit frequency type constants.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
	FrequencyCustom  = "custom"
)

// ValidFrequencyTypes is the accepted set for FrequencyType.
var ValidFrequencyTypes = map[string]bool{
	FrequencyDaily:   true,
	FrequencyWeekly:  true,
	FrequencyMonthly: true,
	FrequencyYearly:  true,
	FrequencyCustom:  true,
}

// Habit is a recurring activity the user wants to track.
type Habit struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"-"`
	Name            string     `json:"name"`
	Description     *string    `json:"description,omitempty"`
	Color           string     `json:"color"`
	FrequencyType   string     `json:"frequency_type"`
	FrequencyTarget int        `json:"frequency_target"`
	IsActive        bool       `json:"is_active"`
	Tags            []tags.Tag `json:"tags,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Completion records that a habit was done on a given date. One completion
// per habit per date.
type Completion struct {
	ID             int64     `json:"id"`
	HabitID        int64     `json:"habit_id"`
	CompletionDate string    `json:"completion_date"` // YYYY-MM-DD
	CreatedAt      time.Time `json:"created_at"`
}

// --- DTOs ---

// HabitInput is the validated input for creating or updating a habit.
type HabitInput struct {
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	Color           string  `json:"color"`
	FrequencyType   string  `json:"frequency_type"`
	FrequencyTarget int     `json:"frequency_target"`
	IsActive        *bool   `json:"is_active,omitempty"`
	TagIDs          []int64 `json:"tag_ids,omitempty"`
}

// CompletionInput marks a habit done (or not) on a date. An empty date
// means today.
type CompletionInput struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD
}
