// Package password implements the password-reset and password-change
// workflow: issuing encrypted reset tokens, persisting their revocable
// counterpart rows, delivering reset links, and redeeming tokens. A reset
// succeeds only when both the encrypted blob and the persisted row are
// valid; the stricter of the two expiries wins.
package password

import "time"

// ResetRowTTL is how long a persisted reset row stays redeemable. The
// encrypted blob carries its own shorter expiry, so in practice the blob
// window is the binding one.
const ResetRowTTL = 24 * time.Hour

// ResetToken is the persisted counterpart of an encrypted reset blob. Used
// rows are kept (never deleted on success) so a redeemed token cannot be
// replayed; expired unused rows are swept opportunistically.
type ResetToken struct {
	ID        int64     `json:"-"`
	UserID    int64     `json:"-"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
	Used      bool      `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// --- DTOs ---

// ForgotPasswordRequest is the POST /api/password/forgot-password body.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the POST /api/password/reset-password body.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest is the POST /api/password/change-password body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
