package habits

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/tags"
)

// colorPattern matches hex colors like #fff or #a1b2c3.
var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// dateLayout is the wire format for completion dates.
const dateLayout = "2006-01-02"

// HabitService defines the business logic contract for habits. All
// operations are ownership-scoped: another user's habit reads as not found.
type HabitService interface {
	Create(ctx context.Context, userID int64, input HabitInput) (*Habit, error)
	Get(ctx context.Context, userID, id int64) (*Habit, error)
	List(ctx context.Context, userID int64) ([]Habit, error)
	Update(ctx context.Context, userID, id int64, input HabitInput) (*Habit, error)
	Delete(ctx context.Context, userID, id int64) error

	// Completions.
	Complete(ctx context.Context, userID, habitID int64, input CompletionInput) (*Completion, error)
	Uncomplete(ctx context.Context, userID, habitID int64, date string) error
	ListCompletions(ctx context.Context, userID, habitID int64, from, to string) ([]Completion, error)
}

// habitService implements HabitService.
type habitService struct {
	repo   HabitRepository
	tagSvc tags.TagService
	now    func() time.Time
}

// NewHabitService creates a new habit service.
func NewHabitService(repo HabitRepository, tagSvc tags.TagService, now func() time.Time) HabitService {
	if now == nil {
		now = time.Now
	}
	return &habitService{repo: repo, tagSvc: tagSvc, now: now}
}

// Create validates input and creates a habit.
func (s *habitService) Create(ctx context.Context, userID int64, input HabitInput) (*Habit, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	if err := s.tagSvc.ValidateOwned(ctx, userID, input.TagIDs); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	habit := &Habit{
		UserID:          userID,
		Name:            input.Name,
		Description:     input.Description,
		Color:           input.Color,
		FrequencyType:   input.FrequencyType,
		FrequencyTarget: input.FrequencyTarget,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.IsActive != nil {
		habit.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating habit: %w", err))
	}
	if len(input.TagIDs) > 0 {
		if err := s.repo.SetTags(ctx, habit.ID, input.TagIDs); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("attaching tags: %w", err))
		}
	}

	return s.withTags(ctx, habit)
}

// Get retrieves a habit owned by the user, with tags.
func (s *habitService) Get(ctx context.Context, userID, id int64) (*Habit, error) {
	habit, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.withTags(ctx, habit)
}

// List returns all of the user's habits with tags loaded.
func (s *habitService) List(ctx context.Context, userID int64) ([]Habit, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing habits: %w", err))
	}
	for i := range list {
		habitTags, err := s.repo.ListTags(ctx, list[i].ID)
		if err == nil {
			list[i].Tags = habitTags
		}
	}
	return list, nil
}

// Update validates and updates a habit owned by the user.
func (s *habitService) Update(ctx context.Context, userID, id int64, input HabitInput) (*Habit, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	if err := s.tagSvc.ValidateOwned(ctx, userID, input.TagIDs); err != nil {
		return nil, err
	}

	habit, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	habit.Name = input.Name
	habit.Description = input.Description
	habit.Color = input.Color
	habit.FrequencyType = input.FrequencyType
	habit.FrequencyTarget = input.FrequencyTarget
	if input.IsActive != nil {
		habit.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}
	if err := s.repo.SetTags(ctx, habit.ID, input.TagIDs); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("attaching tags: %w", err))
	}

	return s.withTags(ctx, habit)
}

// Delete removes a habit owned by the user.
func (s *habitService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// --- Completions ---

// Complete marks the habit done for a date (today when empty). Idempotent.
func (s *habitService) Complete(ctx context.Context, userID, habitID int64, input CompletionInput) (*Completion, error) {
	if _, err := s.findOwned(ctx, userID, habitID); err != nil {
		return nil, err
	}

	date := input.Date
	if date == "" {
		date = s.now().UTC().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperror.NewBadRequest("date must be YYYY-MM-DD")
	}

	completion, err := s.repo.AddCompletion(ctx, habitID, date)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("recording completion: %w", err))
	}
	return completion, nil
}

// Uncomplete removes the completion for a date.
func (s *habitService) Uncomplete(ctx context.Context, userID, habitID int64, date string) error {
	if _, err := s.findOwned(ctx, userID, habitID); err != nil {
		return err
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return apperror.NewBadRequest("date must be YYYY-MM-DD")
	}
	return s.repo.RemoveCompletion(ctx, habitID, date)
}

// ListCompletions returns completions for an optional date range.
func (s *habitService) ListCompletions(ctx context.Context, userID, habitID int64, from, to string) ([]Completion, error) {
	if _, err := s.findOwned(ctx, userID, habitID); err != nil {
		return nil, err
	}
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, apperror.NewBadRequest("date must be YYYY-MM-DD")
		}
	}
	return s.repo.ListCompletions(ctx, habitID, from, to)
}

// findOwned loads a habit and reports not-found for other users' habits.
func (s *habitService) findOwned(ctx context.Context, userID, id int64) (*Habit, error) {
	habit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, apperror.NewNotFound("habit not found")
	}
	return habit, nil
}

// withTags loads the habit's tags before returning it.
func (s *habitService) withTags(ctx context.Context, habit *Habit) (*Habit, error) {
	habitTags, err := s.repo.ListTags(ctx, habit.ID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading habit tags: %w", err))
	}
	habit.Tags = habitTags
	return habit, nil
}

// validateInput checks and normalizes habit input.
func validateInput(input *HabitInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return apperror.NewBadRequest("habit name is required")
	}
	if len(input.Name) > 100 {
		return apperror.NewBadRequest("habit name must be at most 100 characters")
	}
	if input.Color == "" {
		input.Color = "#4f46e5"
	}
	if !colorPattern.MatchString(input.Color) {
		return apperror.NewBadRequest("habit color must be a hex value like #aabbcc")
	}
	if !ValidFrequencyTypes[input.FrequencyType] {
		return apperror.NewBadRequest("unknown frequency type")
	}
	if input.FrequencyTarget <= 0 {
		input.FrequencyTarget = 1
	}
	return nil
}
