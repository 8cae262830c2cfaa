package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/tags"
)

// NoteService defines the business logic contract for quick notes. All
// operations are ownership-scoped: another user's note reads as not found.
type NoteService interface {
	Create(ctx context.Context, userID int64, input NoteInput) (*QuickNote, error)
	Get(ctx context.Context, userID, id int64) (*QuickNote, error)
	List(ctx context.Context, userID int64) ([]QuickNote, error)
	Update(ctx context.Context, userID, id int64, input NoteInput) (*QuickNote, error)
	Delete(ctx context.Context, userID, id int64) error
}

// noteService implements NoteService.
type noteService struct {
	repo   NoteRepository
	tagSvc tags.TagService
	now    func() time.Time
}

// NewNoteService creates a new quick note service.
func NewNoteService(repo NoteRepository, tagSvc tags.TagService, now func() time.Time) NoteService {
	if now == nil {
		now = time.Now
	}
	return &noteService{repo: repo, tagSvc: tagSvc, now: now}
}

// Create validates input and records a quick note.
func (s *noteService) Create(ctx context.Context, userID int64, input NoteInput) (*QuickNote, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := s.tagSvc.ValidateOwned(ctx, userID, input.TagIDs); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	note := &QuickNote{
		UserID:    userID,
		Content:   strings.TrimSpace(input.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating note: %w", err))
	}

	if len(input.TagIDs) > 0 {
		if err := s.repo.SetTags(ctx, note.ID, input.TagIDs); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("attaching tags: %w", err))
		}
	}

	return s.withTags(ctx, note)
}

// Get retrieves a quick note owned by the user, with tags.
func (s *noteService) Get(ctx context.Context, userID, id int64) (*QuickNote, error) {
	note, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.withTags(ctx, note)
}

// List returns the user's live quick notes with tags loaded per note.
func (s *noteService) List(ctx context.Context, userID int64) ([]QuickNote, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing notes: %w", err))
	}
	for i := range list {
		noteTags, err := s.repo.ListTags(ctx, list[i].ID)
		if err == nil {
			list[i].Tags = noteTags
		}
	}
	return list, nil
}

// Update validates and updates a quick note owned by the user.
func (s *noteService) Update(ctx context.Context, userID, id int64, input NoteInput) (*QuickNote, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := s.tagSvc.ValidateOwned(ctx, userID, input.TagIDs); err != nil {
		return nil, err
	}

	note, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	note.Content = strings.TrimSpace(input.Content)
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}
	if err := s.repo.SetTags(ctx, note.ID, input.TagIDs); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("attaching tags: %w", err))
	}

	return s.withTags(ctx, note)
}

// Delete soft-deletes a quick note owned by the user.
func (s *noteService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

// findOwned loads a note and reports not-found for other users' notes.
func (s *noteService) findOwned(ctx context.Context, userID, id int64) (*QuickNote, error) {
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID {
		return nil, apperror.NewNotFound("note not found")
	}
	return note, nil
}

// withTags loads the note's tags before returning it.
func (s *noteService) withTags(ctx context.Context, note *QuickNote) (*QuickNote, error) {
	noteTags, err := s.repo.ListTags(ctx, note.ID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading note tags: %w", err))
	}
	note.Tags = noteTags
	return note, nil
}

// validateInput checks content presence and length.
func validateInput(input NoteInput) error {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return apperror.NewBadRequest("note content is required")
	}
	if len(content) > MaxContentLength {
		return apperror.NewBadRequest(
			fmt.Sprintf("note content must be at most %d characters", MaxContentLength))
	}
	return nil
}
