package moods

import (
	"context"
	"fmt"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/tags"
)

// MoodService defines the business logic contract for mood entries. All
// operations are ownership-scoped: another user's entry reads as not found.
type MoodService interface {
	Create(ctx context.Context, userID int64, input MoodInput) (*Mood, error)
	Get(ctx context.Context, userID, id int64) (*Mood, error)
	History(ctx context.Context, userID int64, filter HistoryFilter) ([]Mood, error)
	Update(ctx context.Context, userID, id int64, input MoodInput) (*Mood, error)
	Delete(ctx context.Context, userID, id int64) error
}

// moodService implements MoodService.
type moodService struct {
	repo    MoodRepository
	tagSvc  tags.TagService
	now     func() time.Time
}

// NewMoodService creates a new mood service.
func NewMoodService(repo MoodRepository, tagSvc tags.TagService, now func() time.Time) MoodService {
	if now == nil {
		now = time.Now
	}
	return &moodService{repo: repo, tagSvc: tagSvc, now: now}
}

// Create validates input and records a mood entry.
func (s *moodService) Create(ctx context.Context, userID int64, input MoodInput) (*Mood, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := s.tagSvc.ValidateOwned(ctx, userID, input.TagIDs); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ts := now
	if input.Timestamp != nil {
		ts = input.Timestamp.UTC()
	}

	mood := &Mood{
		UserID:    userID,
		MoodType:  input.MoodType,
		Intensity: input.Intensity,
		Notes:     input.Notes,
		Timestamp: ts,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, mood); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating mood: %w", err))
	}

	if len(input.TagIDs) > 0 {
		if err := s.repo.SetTags(ctx, mood.ID, input.TagIDs); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("attaching tags: %w", err))
		}
	}

	return s.withTags(ctx, mood)
}

// Get retrieves a mood entry owned by the user, with tags.
func (s *moodService) Get(ctx context.Context, userID, id int64) (*Mood, error) {
	mood, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.withTags(ctx, mood)
}

// History returns the user's mood entries for an optional date range, with
// tags loaded per entry.
func (s *moodService) History(ctx context.Context, userID int64, filter HistoryFilter) ([]Mood, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperror.NewBadRequest("'to' must not be before 'from'")
	}

	list, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing moods: %w", err))
	}
	for i := range list {
		moodTags, err := s.repo.ListTags(ctx, list[i].ID)
		if err == nil {
			list[i].Tags = moodTags
		}
	}
	return list, nil
}

// Update validates and updates a mood entry owned by the user.
func (s *moodService) Update(ctx context.Context, userID, id int64, input MoodInput) (*Mood, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := s.tagSvc.ValidateOwned(ctx, userID, input.TagIDs); err != nil {
		return nil, err
	}

	mood, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	mood.MoodType = input.MoodType
	mood.Intensity = input.Intensity
	mood.Notes = input.Notes
	if input.Timestamp != nil {
		mood.Timestamp = input.Timestamp.UTC()
	}

	if err := s.repo.Update(ctx, mood); err != nil {
		return nil, err
	}
	if err := s.repo.SetTags(ctx, mood.ID, input.TagIDs); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("attaching tags: %w", err))
	}

	return s.withTags(ctx, mood)
}

// Delete removes a mood entry owned by the user.
func (s *moodService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// findOwned loads a mood and reports not-found for other users' entries.
func (s *moodService) findOwned(ctx context.Context, userID, id int64) (*Mood, error) {
	mood, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mood.UserID != userID {
		return nil, apperror.NewNotFound("mood entry not found")
	}
	return mood, nil
}

// withTags loads the mood's tags before returning it.
func (s *moodService) withTags(ctx context.Context, mood *Mood) (*Mood, error) {
	moodTags, err := s.repo.ListTags(ctx, mood.ID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading mood tags: %w", err))
	}
	mood.Tags = moodTags
	return mood, nil
}

// validateInput checks mood type and intensity bounds.
func validateInput(input MoodInput) error {
	if !ValidMoodTypes[input.MoodType] {
		return apperror.NewBadRequest("unknown mood type")
	}
	if input.Intensity < MinIntensity || input.Intensity > MaxIntensity {
		return apperror.NewBadRequest(
			fmt.Sprintf("intensity must be between %d and %d", MinIntensity, MaxIntensity))
	}
	if input.Notes != nil && len(*input.Notes) > 2000 {
		return apperror.NewBadRequest("notes must be at most 2000 characters")
	}
	return nil
}
