package tags

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
)

// colorPattern matches hex colors like #fff or #a1b2c3.
var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// TagService defines the business logic contract for tags. All operations
// are ownership-scoped: a tag belonging to another user reads as not found.
type TagService interface {
	Create(ctx context.Context, userID int64, input TagInput) (*Tag, error)
	Get(ctx context.Context, userID, id int64) (*Tag, error)
	List(ctx context.Context, userID int64) ([]Tag, error)
	Update(ctx context.Context, userID, id int64, input TagInput) (*Tag, error)
	Delete(ctx context.Context, userID, id int64) error

	// ValidateOwned errors when any of the tag ids does not belong to
	// the user. Used by moods, habits, and notes before attaching tags.
	ValidateOwned(ctx context.Context, userID int64, ids []int64) error
}

// tagService implements TagService.
type tagService struct {
	repo TagRepository
	now  func() time.Time
}

// NewTagService creates a new tag service.
func NewTagService(repo TagRepository, now func() time.Time) TagService {
	if now == nil {
		now = time.Now
	}
	return &tagService{repo: repo, now: now}
}

// Create validates input and creates a tag.
func (s *tagService) Create(ctx context.Context, userID int64, input TagInput) (*Tag, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	tag := &Tag{
		UserID:    userID,
		Name:      input.Name,
		Color:     input.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating tag: %w", err))
	}
	return tag, nil
}

// Get retrieves a tag owned by the user.
func (s *tagService) Get(ctx context.Context, userID, id int64) (*Tag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag.UserID != userID {
		return nil, apperror.NewNotFound("tag not found")
	}
	return tag, nil
}

// List returns all of the user's tags.
func (s *tagService) List(ctx context.Context, userID int64) ([]Tag, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update validates and updates a tag owned by the user.
func (s *tagService) Update(ctx context.Context, userID, id int64, input TagInput) (*Tag, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	tag, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	tag.Name = input.Name
	tag.Color = input.Color
	if err := s.repo.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Delete removes a tag owned by the user.
func (s *tagService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ValidateOwned errors unless every id belongs to the user.
func (s *tagService) ValidateOwned(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := s.repo.CountOwned(ctx, userID, ids)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("validating tags: %w", err))
	}
	if count != len(ids) {
		return apperror.NewBadRequest("one or more tags do not exist")
	}
	return nil
}

// validateInput checks and normalizes tag input.
func validateInput(input *TagInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return apperror.NewBadRequest("tag name is required")
	}
	if len(input.Name) > 50 {
		return apperror.NewBadRequest("tag name must be at most 50 characters")
	}
	if input.Color == "" {
		input.Color = "#808080"
	}
	if !colorPattern.MatchString(input.Color) {
		return apperror.NewBadRequest("tag color must be a hex value like #aabbcc")
	}
	return nil
}
