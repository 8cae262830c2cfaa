package users

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/security"
)

// MinPasswordLength is the minimum accepted password size.
const MinPasswordLength = 8

// UserService defines the business logic contract for accounts.
type UserService interface {
	// Register creates an account and signs the new user in, returning
	// bearer and refresh tokens.
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)

	GetByID(ctx context.Context, id int64) (*User, error)
	UpdatePreferences(ctx context.Context, userID int64, prefs json.RawMessage) error
	Delete(ctx context.Context, id int64) error
}

// userService implements UserService.
type userService struct {
	repo       UserRepository
	hasher     *security.Hasher
	issuer     *security.TokenIssuer
	refreshTTL time.Duration
	now        func() time.Time
}

// NewUserService creates a new user service. The now function drives
// timestamps; pass time.Now in production.
func NewUserService(repo UserRepository, hasher *security.Hasher,
	issuer *security.TokenIssuer, refreshTTL time.Duration,
	now func() time.Time) UserService {

	if now == nil {
		now = time.Now
	}
	return &userService{
		repo:       repo,
		hasher:     hasher,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		now:        now,
	}
}

// Register validates input, creates the account, and issues tokens so the
// client is signed in immediately.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.NewValidation("a valid email address is required")
	}
	if len(input.Password) < MinPasswordLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	hash, salt, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	now := s.now().UTC()
	user := &User{
		Email:        email,
		PasswordHash: s.hasher.Credential(hash, salt),
		Name:         input.Name,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	return s.issueTokens(ctx, user)
}

// GetByID retrieves a user by ID.
func (s *userService) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdatePreferences validates and stores the user's preferences JSON.
func (s *userService) UpdatePreferences(ctx context.Context, userID int64, prefs json.RawMessage) error {
	if len(prefs) > 0 && !json.Valid(prefs) {
		return apperror.NewBadRequest("preferences must be valid JSON")
	}
	return s.repo.UpdatePreferences(ctx, userID, prefs)
}

// Delete removes a user account and everything it owns.
func (s *userService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// issueTokens mints a bearer + refresh token pair for the user and persists
// the refresh token row.
func (s *userService) issueTokens(ctx context.Context, user *User) (*AuthResult, error) {
	bearer, err := s.issuer.IssueBearer(user.ID, user.Email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing bearer token: %w", err))
	}
	refresh, err := s.issuer.IssueRefresh()
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing refresh token: %w", err))
	}

	now := s.now().UTC()
	row := &RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.repo.AddRefreshToken(ctx, row); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("storing refresh token: %w", err))
	}

	return &AuthResult{
		Token:        "Bearer " + bearer,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserEmail:    user.Email,
	}, nil
}

// NormalizeEmail lowercases and trims an email address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
