package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moodtracker/backend/internal/auth"
	"github.com/moodtracker/backend/internal/habits"
	"github.com/moodtracker/backend/internal/mailer"
	"github.com/moodtracker/backend/internal/middleware"
	"github.com/moodtracker/backend/internal/moods"
	"github.com/moodtracker/backend/internal/notes"
	"github.com/moodtracker/backend/internal/notifications"
	"github.com/moodtracker/backend/internal/password"
	"github.com/moodtracker/backend/internal/security"
	"github.com/moodtracker/backend/internal/tags"
	"github.com/moodtracker/backend/internal/users"
)

// RegisterRoutes builds every repository, service, and handler and wires
// their routes onto the Echo instance. This is the single place where the
// object graph is assembled; feature packages never reach into each other's
// construction.
func (a *App) RegisterRoutes() error {
	cfg := a.Config

	// --- Shared security primitives ---
	hasher := security.NewHasher()
	issuer := security.NewTokenIssuer(cfg.Auth, nil)

	tokenKey, err := cfg.Token.Key()
	if err != nil {
		return err
	}
	codec, err := security.NewResetTokenCodec(tokenKey, nil)
	if err != nil {
		return err
	}

	a.Mailer = mailer.NewSMTPSender(cfg.SMTP)

	// --- Middleware shared across route groups ---
	requireAuth := middleware.RequireAuth(issuer)
	registerLimit := middleware.RateLimit(5, time.Minute)
	authLimit := middleware.RateLimit(10, time.Minute)
	resetLimit := middleware.RateLimit(5, 15*time.Minute)

	// --- Repositories ---
	userRepo := users.NewUserRepository(a.DB)
	resetRepo := password.NewResetTokenRepository(a.DB)
	tagRepo := tags.NewTagRepository(a.DB)
	moodRepo := moods.NewMoodRepository(a.DB)
	habitRepo := habits.NewHabitRepository(a.DB)
	noteRepo := notes.NewNoteRepository(a.DB)
	a.Users = userRepo

	// --- Services ---
	userSvc := users.NewUserService(userRepo, hasher, issuer, cfg.Auth.RefreshTTL, nil)
	authSvc := auth.NewAuthService(userRepo, hasher, issuer, cfg.Auth.RefreshTTL, nil)
	passwordSvc := password.NewPasswordService(userRepo, resetRepo, hasher, codec,
		a.Mailer, cfg.BaseURL, nil)
	tagSvc := tags.NewTagService(tagRepo, nil)
	moodSvc := moods.NewMoodService(moodRepo, tagSvc, nil)
	habitSvc := habits.NewHabitService(habitRepo, tagSvc, nil)
	noteSvc := notes.NewNoteService(noteRepo, tagSvc, nil)
	a.Notifications = notifications.NewRedisStore(a.Redis, nil)

	// --- Routes ---
	users.RegisterRoutes(a.Echo, users.NewHandler(userSvc), requireAuth, registerLimit)
	auth.RegisterRoutes(a.Echo, auth.NewHandler(authSvc), requireAuth, authLimit)
	password.RegisterRoutes(a.Echo, password.NewHandler(passwordSvc), requireAuth, resetLimit)
	tags.RegisterRoutes(a.Echo, tags.NewHandler(tagSvc), requireAuth)
	moods.RegisterRoutes(a.Echo, moods.NewHandler(moodSvc), requireAuth)
	habits.RegisterRoutes(a.Echo, habits.NewHandler(habitSvc), requireAuth)
	notes.RegisterRoutes(a.Echo, notes.NewHandler(noteSvc), requireAuth)
	notifications.RegisterRoutes(a.Echo, notifications.NewHandler(a.Notifications), requireAuth)

	a.Echo.GET("/api/health", a.healthCheck)

	return nil
}

// healthCheck reports liveness of the API and its backing stores.
func (a *App) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{
		"status": "ok",
		"db":     "ok",
		"redis":  "ok",
	}
	code := http.StatusOK

	if err := a.DB.PingContext(ctx); err != nil {
		status["status"] = "degraded"
		status["db"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["status"] = "degraded"
		status["redis"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, status)
}
