package password

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/mailer"
	"github.com/moodtracker/backend/internal/security"
	"github.com/moodtracker/backend/internal/users"
)

// --- Mock user repository ---

type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id int64) (*users.User, error)
	findByEmailFn    func(ctx context.Context, email string) (*users.User, error)
	updatePasswordFn func(ctx context.Context, userID int64, hash string) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *users.User) error { return nil }

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*users.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, hash)
	}
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, userID int64) error    { return nil }
func (m *mockUserRepo) UpdateLastNotified(ctx context.Context, userID int64) error { return nil }

func (m *mockUserRepo) UpdatePreferences(ctx context.Context, userID int64, prefs json.RawMessage) error {
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error { return nil }

func (m *mockUserRepo) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]users.User, error) {
	return nil, nil
}

func (m *mockUserRepo) AddRefreshToken(ctx context.Context, t *users.RefreshToken) error { return nil }

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*users.RefreshToken, error) {
	return nil, apperror.NewNotFound("refresh token not found")
}

func (m *mockUserRepo) FindByRefreshToken(ctx context.Context, token string) (*users.User, error) {
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) DeleteRefreshToken(ctx context.Context, userID int64, token string) error {
	return nil
}

func (m *mockUserRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return 0, nil
}

// --- In-memory reset token repository ---

// memResetRepo is a map-backed ResetTokenRepository so the full workflow
// (insert, find, single-use mark) behaves like the real store.
type memResetRepo struct {
	rows          map[int64]*ResetToken
	nextID        int64
	now           func() time.Time
	insertErr     error
	deleteExpired func(ctx context.Context) (int64, error)
}

func newMemResetRepo(now func() time.Time) *memResetRepo {
	return &memResetRepo{rows: make(map[int64]*ResetToken), nextID: 1, now: now}
}

func (m *memResetRepo) Insert(ctx context.Context, t *ResetToken) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	t.ID = m.nextID
	m.nextID++
	clone := *t
	m.rows[t.ID] = &clone
	return nil
}

func (m *memResetRepo) FindValid(ctx context.Context, userID int64, token string) (*ResetToken, error) {
	for _, row := range m.rows {
		if row.UserID == userID && row.Token == token &&
			!row.Used && row.ExpiresAt.After(m.now()) {
			clone := *row
			return &clone, nil
		}
	}
	return nil, apperror.NewNotFound("reset token not found")
}

func (m *memResetRepo) MarkUsed(ctx context.Context, id int64) error {
	row, ok := m.rows[id]
	if !ok || row.Used {
		return apperror.NewConflict("reset token already used")
	}
	row.Used = true
	return nil
}

func (m *memResetRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpired != nil {
		return m.deleteExpired(ctx)
	}
	var n int64
	for id, row := range m.rows {
		if !row.Used && row.ExpiresAt.Before(m.now()) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

// --- Mock mailer ---

type mockMailer struct {
	resetFn      func(ctx context.Context, to, link string) error
	inactivityFn func(ctx context.Context, to, name string) error
}

func (m *mockMailer) SendPasswordResetEmail(ctx context.Context, to, link string) error {
	if m.resetFn != nil {
		return m.resetFn(ctx, to, link)
	}
	return nil
}

func (m *mockMailer) SendInactivityEmail(ctx context.Context, to, name string) error {
	if m.inactivityFn != nil {
		return m.inactivityFn(ctx, to, name)
	}
	return nil
}

var _ mailer.MailSender = (*mockMailer)(nil)

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	userRepo  *mockUserRepo
	tokenRepo *memResetRepo
	mail      *mockMailer
	hasher    *security.Hasher
	codec     *security.ResetTokenCodec
	now       time.Time
	svc       PasswordService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		userRepo: &mockUserRepo{},
		mail:     &mockMailer{},
		hasher:   security.NewHasher(),
		now:      fixedNow,
	}
	nowFn := func() time.Time { return env.now }
	env.tokenRepo = newMemResetRepo(nowFn)

	codec, err := security.NewResetTokenCodec(testKey, nowFn)
	if err != nil {
		t.Fatalf("NewResetTokenCodec: %v", err)
	}
	env.codec = codec

	env.svc = NewPasswordService(env.userRepo, env.tokenRepo, env.hasher,
		env.codec, env.mail, "https://app.example.com", nowFn)
	return env
}

// withUser wires the user repo to return a single account and track
// password updates.
func (env *testEnv) withUser(t *testing.T, id int64, email, pw string) *users.User {
	t.Helper()
	hash, salt, err := env.hasher.Hash(pw)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}
	user := &users.User{
		ID: id, Email: email,
		PasswordHash: env.hasher.Credential(hash, salt),
		IsActive:     true,
	}
	env.userRepo.findByEmailFn = func(ctx context.Context, e string) (*users.User, error) {
		if e == email {
			return user, nil
		}
		return nil, apperror.NewNotFound("user not found")
	}
	env.userRepo.findByIDFn = func(ctx context.Context, uid int64) (*users.User, error) {
		if uid == id {
			return user, nil
		}
		return nil, apperror.NewNotFound("user not found")
	}
	env.userRepo.updatePasswordFn = func(ctx context.Context, uid int64, credential string) error {
		if uid != id {
			return apperror.NewNotFound("user not found")
		}
		user.PasswordHash = credential
		return nil
	}
	return user
}

// verifies reports whether the password matches the user's stored credential.
func (env *testEnv) verifies(t *testing.T, user *users.User, pw string) bool {
	t.Helper()
	hash, salt, err := env.hasher.SplitCredential(user.PasswordHash)
	if err != nil {
		t.Fatalf("splitting credential: %v", err)
	}
	return env.hasher.Verify(pw, hash, salt)
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

// --- RequestReset ---

func TestRequestReset_Success(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "old-password")

	var sentTo, sentLink string
	env.mail.resetFn = func(ctx context.Context, to, link string) error {
		sentTo, sentLink = to, link
		return nil
	}

	ok, err := env.svc.RequestReset(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if !ok {
		t.Fatal("expected true for existing account")
	}

	if sentTo != "user@example.com" {
		t.Errorf("expected email to user, got %q", sentTo)
	}
	if !strings.HasPrefix(sentLink, "https://app.example.com/change-password?token=") {
		t.Errorf("unexpected reset link: %q", sentLink)
	}
	if !strings.Contains(sentLink, "email=user%40example.com") {
		t.Errorf("expected escaped email in link: %q", sentLink)
	}

	if len(env.tokenRepo.rows) != 1 {
		t.Fatalf("expected 1 persisted row, got %d", len(env.tokenRepo.rows))
	}
	for _, row := range env.tokenRepo.rows {
		if row.Used {
			t.Error("expected new row with used=false")
		}
		if !row.ExpiresAt.Equal(fixedNow.Add(ResetRowTTL)) {
			t.Errorf("expected 24h row expiry, got %v", row.ExpiresAt)
		}
	}
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	var mailed bool
	env.mail.resetFn = func(ctx context.Context, to, link string) error {
		mailed = true
		return nil
	}

	ok, err := env.svc.RequestReset(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("expected silent false, got error: %v", err)
	}
	if ok {
		t.Error("expected false for unknown account")
	}
	if mailed {
		t.Error("expected no email for unknown account")
	}
	if len(env.tokenRepo.rows) != 0 {
		t.Error("expected no row for unknown account")
	}
}

func TestRequestReset_DeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "old-password")
	env.mail.resetFn = func(ctx context.Context, to, link string) error {
		return fmt.Errorf("smtp down")
	}

	_, err := env.svc.RequestReset(context.Background(), "user@example.com")
	assertAppError(t, err, 500)

	// The orphaned row remains; the next request's sweep reclaims it
	// after expiry.
	if len(env.tokenRepo.rows) != 1 {
		t.Errorf("expected orphaned row to remain, got %d rows", len(env.tokenRepo.rows))
	}
}

func TestRequestReset_SweepFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "old-password")
	env.tokenRepo.deleteExpired = func(ctx context.Context) (int64, error) {
		return 0, fmt.Errorf("lock timeout")
	}

	ok, err := env.svc.RequestReset(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("expected sweep failure to be swallowed, got %v", err)
	}
	if !ok {
		t.Error("expected request to succeed despite sweep failure")
	}
}

func TestRequestReset_SweepsExpiredRows(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "old-password")

	// Seed an expired unused row for a DIFFERENT user: the sweep is
	// system-wide.
	env.tokenRepo.rows[99] = &ResetToken{
		ID: 99, UserID: 3, Token: "stale",
		ExpiresAt: fixedNow.Add(-time.Hour), Used: false,
	}

	if _, err := env.svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if _, ok := env.tokenRepo.rows[99]; ok {
		t.Error("expected expired row to be swept")
	}
}

// --- ResetPassword ---

// requestToken runs RequestReset and captures the emailed token.
func requestToken(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	var token string
	env.mail.resetFn = func(ctx context.Context, to, link string) error {
		// token=...&email=... — take the token query value.
		start := strings.Index(link, "token=") + len("token=")
		end := strings.Index(link, "&email=")
		token = link[start:end]
		return nil
	}
	if _, err := env.svc.RequestReset(context.Background(), email); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if token == "" {
		t.Fatal("no token captured from reset link")
	}
	return token
}

func TestResetPassword_FullScenario(t *testing.T) {
	env := newTestEnv(t)
	user := env.withUser(t, 7, "user@example.com", "old-password")

	token := requestToken(t, env, "user@example.com")

	err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token, "brand-new-password")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	// Old password no longer verifies, new one does.
	if env.verifies(t, user, "old-password") {
		t.Error("old password still verifies")
	}
	if !env.verifies(t, user, "brand-new-password") {
		t.Error("new password does not verify")
	}

	// The row flipped to used=true and was NOT deleted.
	var usedRows int
	for _, row := range env.tokenRepo.rows {
		if row.Used {
			usedRows++
		}
	}
	if usedRows != 1 {
		t.Errorf("expected 1 used row, got %d", usedRows)
	}
}

func TestResetPassword_SecondRedemptionFails(t *testing.T) {
	env := newTestEnv(t)
	user := env.withUser(t, 7, "user@example.com", "old-password")
	token := requestToken(t, env, "user@example.com")

	if err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token, "first-new-password"); err != nil {
		t.Fatalf("first ResetPassword: %v", err)
	}

	// The blob is still inside its 4h window, but the row is used.
	err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token, "second-new-password")
	assertAppError(t, err, 400)

	if !env.verifies(t, user, "first-new-password") {
		t.Error("first reset result was overwritten")
	}
}

func TestResetPassword_GarbageToken(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "old-password")

	err := env.svc.ResetPassword(context.Background(),
		"user@example.com", "not-a-real-token", "new-password-1")
	assertAppError(t, err, 400)
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "old-password")
	token := requestToken(t, env, "user@example.com")

	err := env.svc.ResetPassword(context.Background(),
		"other@example.com", token, "new-password-1")
	assertAppError(t, err, 400)
}

func TestResetPassword_BlobExpired(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "old-password")
	token := requestToken(t, env, "user@example.com")

	// Past the 4h blob window but inside the 24h row window: the stricter
	// expiry wins.
	env.now = fixedNow.Add(security.ResetBlobTTL + time.Minute)

	err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token, "new-password-1")
	assertAppError(t, err, 400)
}

func TestResetPassword_RowMissing(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "old-password")

	// A valid blob with no persisted counterpart must not redeem.
	token, err := env.codec.Encode(7, "user@example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	err = env.svc.ResetPassword(context.Background(),
		"user@example.com", token, "new-password-1")
	assertAppError(t, err, 400)
}

func TestResetPassword_ShortPassword(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "old-password")
	token := requestToken(t, env, "user@example.com")

	err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token, "short")
	assertAppError(t, err, 422)
}

// TestResetPassword_TwoIndependentTokens issues two reset tokens for the
// same user; each redeems exactly once and only invalidates itself.
func TestResetPassword_TwoIndependentTokens(t *testing.T) {
	env := newTestEnv(t)
	user := env.withUser(t, 7, "user@example.com", "old-password")

	token1 := requestToken(t, env, "user@example.com")
	token2 := requestToken(t, env, "user@example.com")
	if token1 == token2 {
		t.Fatal("expected two distinct tokens")
	}
	if len(env.tokenRepo.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(env.tokenRepo.rows))
	}

	if err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token1, "password-after-1"); err != nil {
		t.Fatalf("redeeming first token: %v", err)
	}

	// The second token is still redeemable.
	if err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token2, "password-after-2"); err != nil {
		t.Fatalf("redeeming second token: %v", err)
	}
	if !env.verifies(t, user, "password-after-2") {
		t.Error("second reset did not apply")
	}

	// Both are now spent.
	err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token1, "password-after-3")
	assertAppError(t, err, 400)
}

// TestResetPassword_ConcurrentRedeemLoses simulates the loser of a
// concurrent redemption race: the row flips under it between find and mark.
func TestResetPassword_ConcurrentRedeemLoses(t *testing.T) {
	env := newTestEnv(t)
	user := env.withUser(t, 7, "user@example.com", "old-password")
	token := requestToken(t, env, "user@example.com")

	// First redeemer wins normally.
	if err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token, "winner-password"); err != nil {
		t.Fatalf("winning redeem: %v", err)
	}

	// The loser's MarkUsed hits used=true and gets the conflict, surfaced
	// as the uniform invalid-token failure.
	err := env.svc.ResetPassword(context.Background(),
		"user@example.com", token, "loser-password")
	assertAppError(t, err, 400)

	if !env.verifies(t, user, "winner-password") {
		t.Error("winner's password was overwritten")
	}
}

// --- ChangePassword ---

func TestChangePassword_Success(t *testing.T) {
	env := newTestEnv(t)
	user := env.withUser(t, 7, "user@example.com", "current-password")

	err := env.svc.ChangePassword(context.Background(), 7,
		"current-password", "next-password-1")
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !env.verifies(t, user, "next-password-1") {
		t.Error("new password does not verify")
	}
	if env.verifies(t, user, "current-password") {
		t.Error("old password still verifies")
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "current-password")

	err := env.svc.ChangePassword(context.Background(), 7,
		"not-the-password", "next-password-1")
	assertAppError(t, err, 401)
}

func TestChangePassword_ShortNew(t *testing.T) {
	env := newTestEnv(t)
	env.withUser(t, 7, "user@example.com", "current-password")

	err := env.svc.ChangePassword(context.Background(), 7,
		"current-password", "tiny")
	assertAppError(t, err, 422)
}
