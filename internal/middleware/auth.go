package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/security"
)

// Context keys set by RequireAuth.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// RequireAuth returns middleware that validates the Authorization bearer
// token and stores the authenticated user's id and email in the Echo
// context. Requests without a valid token get 401.
func RequireAuth(issuer *security.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			claims, err := issuer.ParseBearer(token)
			if err != nil {
				return err
			}
			userID, err := claims.SubjectID()
			if err != nil {
				return err
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextUserEmail, claims.Email)
			return next(c)
		}
	}
}

// UserID returns the authenticated user's id from the Echo context. Zero
// when the request did not pass RequireAuth.
func UserID(c echo.Context) int64 {
	id, _ := c.Get(ContextUserID).(int64)
	return id
}

// UserEmail returns the authenticated user's email from the Echo context.
func UserEmail(c echo.Context) string {
	email, _ := c.Get(ContextUserEmail).(string)
	return email
}
