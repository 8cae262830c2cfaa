// Package auth implements the login, refresh, and revoke workflow on top of
// the users persistence contract. Registration and password reset live in
// their own packages; this one only exchanges credentials for tokens.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/security"
	"github.com/moodtracker/backend/internal/users"
)

// AuthService defines the authentication contract.
type AuthService interface {
	// Login exchanges email + password for a bearer/refresh token pair.
	// Failures are deliberately indistinguishable between an unknown email
	// and a wrong password.
	Login(ctx context.Context, email, password string) (*users.AuthResult, error)

	// Refresh rotates a refresh token: the old value is removed and a new
	// pair is issued. A token can be refreshed at most once.
	Refresh(ctx context.Context, refreshToken string) (*users.AuthResult, error)

	// Revoke removes a refresh token. Returns false when the token does
	// not exist (or was already rotated away).
	Revoke(ctx context.Context, refreshToken string) (bool, error)
}

// authService implements AuthService.
type authService struct {
	repo       users.UserRepository
	hasher     *security.Hasher
	issuer     *security.TokenIssuer
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new auth service. The now function drives expiry
// checks and timestamps; pass time.Now in production.
func NewAuthService(repo users.UserRepository, hasher *security.Hasher,
	issuer *security.TokenIssuer, refreshTTL time.Duration,
	now func() time.Time) AuthService {

	if now == nil {
		now = time.Now
	}
	return &authService{
		repo:       repo,
		hasher:     hasher,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		now:        now,
	}
}

// errInvalidCredentials is the single failure returned for every login
// problem so callers cannot enumerate accounts.
func errInvalidCredentials() error {
	return apperror.NewUnauthorized("invalid email or password")
}

// Login verifies the credential and issues a token pair.
func (s *authService) Login(ctx context.Context, email, password string) (*users.AuthResult, error) {
	if email == "" || password == "" {
		return nil, errInvalidCredentials()
	}

	user, err := s.repo.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, errInvalidCredentials()
		}
		return nil, apperror.NewInternal(fmt.Errorf("looking up user: %w", err))
	}
	if !user.IsActive {
		return nil, errInvalidCredentials()
	}

	hash, salt, err := s.hasher.SplitCredential(user.PasswordHash)
	if err != nil {
		// A malformed stored credential is a data problem, not the
		// caller's; still answer with the generic failure.
		slog.Error("malformed stored credential", slog.Int64("user_id", user.ID))
		return nil, errInvalidCredentials()
	}
	if !s.hasher.Verify(password, hash, salt) {
		return nil, errInvalidCredentials()
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("updating last login: %w", err))
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token and issues a new bearer token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*users.AuthResult, error) {
	if refreshToken == "" {
		return nil, apperror.NewUnauthorized("invalid or expired refresh token")
	}

	row, err := s.repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid or expired refresh token")
		}
		return nil, apperror.NewInternal(fmt.Errorf("looking up refresh token: %w", err))
	}
	if row.IsExpired(s.now()) {
		return nil, apperror.NewUnauthorized("invalid or expired refresh token")
	}

	user, err := s.repo.FindByID(ctx, row.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid or expired refresh token")
		}
		return nil, apperror.NewInternal(fmt.Errorf("looking up token owner: %w", err))
	}

	// Rotation: remove the old token first. A concurrent refresh with the
	// same value loses here (zero rows affected surfaces as a conflict),
	// so each token is redeemed at most once.
	if err := s.repo.DeleteRefreshToken(ctx, row.UserID, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Revoke removes a refresh token, e.g. on logout.
func (s *authService) Revoke(ctx context.Context, refreshToken string) (bool, error) {
	if refreshToken == "" {
		return false, nil
	}

	row, err := s.repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, apperror.NewInternal(fmt.Errorf("looking up refresh token: %w", err))
	}

	if err := s.repo.DeleteRefreshToken(ctx, row.UserID, refreshToken); err != nil {
		// Already removed by a concurrent revoke or rotation.
		if apperror.SafeCode(err) == 409 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// issueTokens mints a bearer + refresh pair and persists the refresh row.
func (s *authService) issueTokens(ctx context.Context, user *users.User) (*users.AuthResult, error) {
	bearer, err := s.issuer.IssueBearer(user.ID, user.Email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing bearer token: %w", err))
	}
	refresh, err := s.issuer.IssueRefresh()
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing refresh token: %w", err))
	}

	now := s.now().UTC()
	row := &users.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.repo.AddRefreshToken(ctx, row); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("storing refresh token: %w", err))
	}

	return &users.AuthResult{
		Token:        "Bearer " + bearer,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserEmail:    user.Email,
	}, nil
}
