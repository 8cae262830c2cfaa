package moods

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/tags"
)

// --- Mock Repository ---

// mockMoodRepo implements MoodRepository for testing.
type mockMoodRepo struct {
	createFn     func(ctx context.Context, m *Mood) error
	findByIDFn   func(ctx context.Context, id int64) (*Mood, error)
	listByUserFn func(ctx context.Context, userID int64, filter HistoryFilter) ([]Mood, error)
	updateFn     func(ctx context.Context, m *Mood) error
	deleteFn     func(ctx context.Context, id int64) error
	setTagsFn    func(ctx context.Context, moodID int64, tagIDs []int64) error
	listTagsFn   func(ctx context.Context, moodID int64) ([]tags.Tag, error)
}

func (m *mockMoodRepo) Create(ctx context.Context, mood *Mood) error {
	if m.createFn != nil {
		return m.createFn(ctx, mood)
	}
	mood.ID = 1
	return nil
}

func (m *mockMoodRepo) FindByID(ctx context.Context, id int64) (*Mood, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("mood entry not found")
}

func (m *mockMoodRepo) ListByUser(ctx context.Context, userID int64, filter HistoryFilter) ([]Mood, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, filter)
	}
	return nil, nil
}

func (m *mockMoodRepo) Update(ctx context.Context, mood *Mood) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, mood)
	}
	return nil
}

func (m *mockMoodRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockMoodRepo) SetTags(ctx context.Context, moodID int64, tagIDs []int64) error {
	if m.setTagsFn != nil {
		return m.setTagsFn(ctx, moodID, tagIDs)
	}
	return nil
}

func (m *mockMoodRepo) ListTags(ctx context.Context, moodID int64) ([]tags.Tag, error) {
	if m.listTagsFn != nil {
		return m.listTagsFn(ctx, moodID)
	}
	return nil, nil
}

// --- Mock tag service ---

// mockTagService implements tags.TagService for testing; only ValidateOwned
// matters here.
type mockTagService struct {
	validateOwnedFn func(ctx context.Context, userID int64, ids []int64) error
}

func (m *mockTagService) Create(ctx context.Context, userID int64, input tags.TagInput) (*tags.Tag, error) {
	return nil, nil
}

func (m *mockTagService) Get(ctx context.Context, userID, id int64) (*tags.Tag, error) {
	return nil, apperror.NewNotFound("tag not found")
}

func (m *mockTagService) List(ctx context.Context, userID int64) ([]tags.Tag, error) {
	return nil, nil
}

func (m *mockTagService) Update(ctx context.Context, userID, id int64, input tags.TagInput) (*tags.Tag, error) {
	return nil, nil
}

func (m *mockTagService) Delete(ctx context.Context, userID, id int64) error { return nil }

func (m *mockTagService) ValidateOwned(ctx context.Context, userID int64, ids []int64) error {
	if m.validateOwnedFn != nil {
		return m.validateOwnedFn(ctx, userID, ids)
	}
	return nil
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockMoodRepo, tagSvc *mockTagService) MoodService {
	if tagSvc == nil {
		tagSvc = &mockTagService{}
	}
	return NewMoodService(repo, tagSvc, func() time.Time { return fixedNow })
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Tests ---

func TestCreateMood_Success(t *testing.T) {
	var created *Mood
	repo := &mockMoodRepo{
		createFn: func(ctx context.Context, m *Mood) error {
			m.ID = 11
			created = m
			return nil
		},
	}
	svc := newTestService(repo, nil)

	mood, err := svc.Create(context.Background(), 7, MoodInput{
		MoodType:  MoodHappy,
		Intensity: 8,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.UserID != 7 {
		t.Errorf("expected owner 7, got %d", created.UserID)
	}
	if !mood.Timestamp.Equal(fixedNow) {
		t.Errorf("expected default timestamp = now, got %v", mood.Timestamp)
	}
}

func TestCreateMood_UnknownType(t *testing.T) {
	svc := newTestService(&mockMoodRepo{}, nil)

	_, err := svc.Create(context.Background(), 7, MoodInput{
		MoodType:  "ecstatic-but-misspelled",
		Intensity: 5,
	})
	assertAppError(t, err, 400)
}

func TestCreateMood_IntensityBounds(t *testing.T) {
	svc := newTestService(&mockMoodRepo{}, nil)

	for _, intensity := range []int{0, -1, 11} {
		_, err := svc.Create(context.Background(), 7, MoodInput{
			MoodType:  MoodCalm,
			Intensity: intensity,
		})
		assertAppError(t, err, 400)
	}
}

func TestCreateMood_ForeignTagRejected(t *testing.T) {
	tagSvc := &mockTagService{
		validateOwnedFn: func(ctx context.Context, userID int64, ids []int64) error {
			return apperror.NewBadRequest("one or more tags do not exist")
		},
	}
	svc := newTestService(&mockMoodRepo{}, tagSvc)

	_, err := svc.Create(context.Background(), 7, MoodInput{
		MoodType:  MoodHappy,
		Intensity: 5,
		TagIDs:    []int64{99},
	})
	assertAppError(t, err, 400)
}

func TestGetMood_NonOwnerSees404(t *testing.T) {
	repo := &mockMoodRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Mood, error) {
			return &Mood{ID: id, UserID: 3, MoodType: MoodSad, Intensity: 4}, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Get(context.Background(), 7, 1)
	assertAppError(t, err, 404)
}

func TestUpdateMood_NonOwnerSees404(t *testing.T) {
	repo := &mockMoodRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Mood, error) {
			return &Mood{ID: id, UserID: 3, MoodType: MoodSad, Intensity: 4}, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Update(context.Background(), 7, 1, MoodInput{
		MoodType:  MoodHappy,
		Intensity: 5,
	})
	assertAppError(t, err, 404)
}

func TestDeleteMood_NonOwnerSees404(t *testing.T) {
	var deleted bool
	repo := &mockMoodRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Mood, error) {
			return &Mood{ID: id, UserID: 3, MoodType: MoodSad, Intensity: 4}, nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(repo, nil)

	err := svc.Delete(context.Background(), 7, 1)
	assertAppError(t, err, 404)
	if deleted {
		t.Error("expected no delete for non-owner")
	}
}

func TestHistory_InvertedRange(t *testing.T) {
	svc := newTestService(&mockMoodRepo{}, nil)

	from := fixedNow
	to := fixedNow.Add(-24 * time.Hour)
	_, err := svc.History(context.Background(), 7, HistoryFilter{From: &from, To: &to})
	assertAppError(t, err, 400)
}

func TestHistory_PassesFilter(t *testing.T) {
	var gotFilter HistoryFilter
	repo := &mockMoodRepo{
		listByUserFn: func(ctx context.Context, userID int64, filter HistoryFilter) ([]Mood, error) {
			gotFilter = filter
			return []Mood{{ID: 1, UserID: userID, MoodType: MoodHappy, Intensity: 6}}, nil
		},
	}
	svc := newTestService(repo, nil)

	from := fixedNow.Add(-7 * 24 * time.Hour)
	list, err := svc.History(context.Background(), 7, HistoryFilter{From: &from})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list))
	}
	if gotFilter.From == nil || !gotFilter.From.Equal(from) {
		t.Error("expected from bound to reach the repository")
	}
}
