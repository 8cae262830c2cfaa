// Package moods manages mood entries: how a user felt, how intensely, and
// when, with optional notes and tags. Mood history drives the inactivity
// checker.
package moods

import (
	"time"

	"github.com/moodtracker/backend/internal/tags"
)

// Known mood types.
const (
	MoodHappy    = "happy"
	MoodSad      = "sad"
	MoodAngry    = "angry"
	MoodAnxious  = "anxious"
	MoodCalm     = "calm"
	MoodExcited  = "excited"
	MoodTired    = "tired"
	MoodStressed = "stressed"
	MoodNeutral  = "neutral"
)

// ValidMoodTypes is the accepted set for MoodType.
var ValidMoodTypes = map[string]bool{
	MoodHappy:    true,
	MoodSad:      true,
	MoodAngry:    true,
	MoodAnxious:  true,
	MoodCalm:     true,
	MoodExcited:  true,
	MoodTired:    true,
	MoodStressed: true,
	MoodNeutral:  true,
}

// Intensity bounds.
const (
	MinIntensity = 1
	MaxIntensity = 10
)

// Mood is a single mood entry.
type Mood struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"-"`
	MoodType  string     `json:"mood_type"`
	Intensity int        `json:"intensity"`
	Notes     *string    `json:"notes,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Tags      []tags.Tag `json:"tags,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// --- DTOs ---

// MoodInput is the validated input for creating or updating a mood entry.
// A nil Timestamp on create means "now".
type MoodInput struct {
	MoodType  string     `json:"mood_type"`
	Intensity int        `json:"intensity"`
	Notes     *string    `json:"notes,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	TagIDs    []int64    `json:"tag_ids,omitempty"`
}

// HistoryFilter narrows mood history queries to a date range.
type HistoryFilter struct {
	From *time.Time
	To   *time.Time
}
