package password

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/mailer"
	"github.com/moodtracker/backend/internal/security"
	"github.com/moodtracker/backend/internal/users"
)

// PasswordService defines the reset and change workflow contract.
type PasswordService interface {
	// RequestReset issues a reset token and emails the reset link. Returns
	// (false, nil) silently when no account matches the email, so callers
	// cannot probe for account existence.
	RequestReset(ctx context.Context, email string) (bool, error)

	// ResetPassword redeems a reset token and sets the new password. Each
	// token can be redeemed at most once.
	ResetPassword(ctx context.Context, email, token, newPassword string) error

	// ChangePassword replaces the password for a signed-in user after
	// verifying the current one.
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

// passwordService implements PasswordService.
type passwordService struct {
	userRepo  users.UserRepository
	tokenRepo ResetTokenRepository
	hasher    *security.Hasher
	codec     *security.ResetTokenCodec
	mail      mailer.MailSender
	baseURL   string
	now       func() time.Time
}

// NewPasswordService creates a new password service. baseURL is the public
// frontend URL used to build reset links. The now function drives row
// expiry stamps; pass time.Now in production.
func NewPasswordService(userRepo users.UserRepository, tokenRepo ResetTokenRepository,
	hasher *security.Hasher, codec *security.ResetTokenCodec,
	mail mailer.MailSender, baseURL string, now func() time.Time) PasswordService {

	if now == nil {
		now = time.Now
	}
	return &passwordService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		codec:     codec,
		mail:      mail,
		baseURL:   baseURL,
		now:       now,
	}
}

// RequestReset runs the request side of the reset workflow: lookup,
// housekeeping sweep, token issuance, row persistence, link delivery.
func (s *passwordService) RequestReset(ctx context.Context, email string) (bool, error) {
	email = users.NormalizeEmail(email)
	if email == "" {
		return false, apperror.NewValidation("email is required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Silent: no account-existence leak.
			return false, nil
		}
		return false, apperror.NewInternal(fmt.Errorf("looking up user: %w", err))
	}

	// Opportunistic sweep of expired unused rows, system-wide. Best
	// effort: a failed sweep must not abort the request.
	if n, err := s.tokenRepo.DeleteExpired(ctx); err != nil {
		slog.Warn("reset token sweep failed", slog.Any("error", err))
	} else if n > 0 {
		slog.Debug("swept expired reset tokens", slog.Int64("count", n))
	}

	token, err := s.codec.Encode(user.ID, user.Email)
	if err != nil {
		return false, apperror.NewInternal(fmt.Errorf("encoding reset token: %w", err))
	}

	now := s.now().UTC()
	row := &ResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(ResetRowTTL),
		Used:      false,
		CreatedAt: now,
	}
	if err := s.tokenRepo.Insert(ctx, row); err != nil {
		return false, apperror.NewInternal(fmt.Errorf("storing reset token: %w", err))
	}

	link := fmt.Sprintf("%s/change-password?token=%s&email=%s",
		s.baseURL, url.QueryEscape(token), url.QueryEscape(user.Email))

	// Delivery failure fails the whole request. The orphaned row is
	// acceptable: the sweep above reclaims it once it expires.
	if err := s.mail.SendPasswordResetEmail(ctx, user.Email, link); err != nil {
		return false, apperror.NewInternal(fmt.Errorf("sending reset email: %w", err))
	}

	return true, nil
}

// errInvalidToken is the uniform redemption failure: blob problems, row
// problems, and mismatches all look the same to the caller.
func errInvalidToken() error {
	return apperror.NewBadRequest("invalid or expired token")
}

// ResetPassword redeems a token. Both the encrypted blob and the persisted
// row must be valid, and the row's used flag is the single-redemption gate.
func (s *passwordService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = users.NormalizeEmail(email)
	if email == "" || token == "" {
		return apperror.NewValidation("email and token are required")
	}
	if len(newPassword) < users.MinPasswordLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", users.MinPasswordLength))
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return errInvalidToken()
		}
		return apperror.NewInternal(fmt.Errorf("looking up user: %w", err))
	}

	// Blob check: decrypts, well-formed, unexpired, and bound to this user.
	payload, err := s.codec.Decode(token)
	if err != nil {
		return errInvalidToken()
	}
	if payload.UserID != user.ID || users.NormalizeEmail(payload.Email) != email {
		return errInvalidToken()
	}

	// Row check: an unused, unexpired persisted counterpart must exist.
	row, err := s.tokenRepo.FindValid(ctx, user.ID, token)
	if err != nil {
		if apperror.IsNotFound(err) {
			return errInvalidToken()
		}
		return apperror.NewInternal(fmt.Errorf("looking up reset token: %w", err))
	}

	// used=false→true is atomic; the second of two concurrent redeemers
	// fails here.
	if err := s.tokenRepo.MarkUsed(ctx, row.ID); err != nil {
		if apperror.SafeCode(err) == 409 {
			return errInvalidToken()
		}
		return err
	}

	return s.setPassword(ctx, user.ID, newPassword)
}

// ChangePassword verifies the current password and sets a new one.
func (s *passwordService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < users.MinPasswordLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", users.MinPasswordLength))
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, salt, err := s.hasher.SplitCredential(user.PasswordHash)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("reading stored credential: %w", err))
	}
	if !s.hasher.Verify(currentPassword, hash, salt) {
		return apperror.NewUnauthorized("current password is incorrect")
	}

	return s.setPassword(ctx, userID, newPassword)
}

// setPassword re-hashes with a fresh salt and stores the new credential.
func (s *passwordService) setPassword(ctx context.Context, userID int64, newPassword string) error {
	hash, salt, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, s.hasher.Credential(hash, salt)); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating password: %w", err))
	}
	return nil
}
