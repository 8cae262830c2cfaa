package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/config"
)

// BearerClaims are the claims carried by a bearer token: the registered set
// (subject = user id, issuer, audience, expiry) plus the user's email.
type BearerClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer mints signed bearer tokens and opaque refresh tokens. It only
// issues; verification happens in the auth middleware via ParseBearer.
type TokenIssuer struct {
	secret    []byte
	issuer    string
	audience  string
	bearerTTL time.Duration
	now       func() time.Time
}

// NewTokenIssuer constructs an issuer from auth config. The now function
// drives expiry stamps; pass time.Now in production.
func NewTokenIssuer(cfg config.AuthConfig, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		bearerTTL: cfg.BearerTTL,
		now:       now,
	}
}

// IssueBearer returns a signed HS256 token for the user, valid for the
// configured bearer TTL.
func (t *TokenIssuer) IssueBearer(userID int64, email string) (string, error) {
	now := t.now()
	claims := BearerClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.bearerTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing bearer token: %w", err)
	}
	return signed, nil
}

// IssueRefresh returns a new opaque refresh token: 32 random bytes, base64.
func (t *TokenIssuer) IssueRefresh() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// ParseBearer validates a bearer token's signature, expiry, issuer, and
// audience, returning its claims. Used by the auth middleware.
func (t *TokenIssuer) ParseBearer(tokenStr string) (*BearerClaims, error) {
	claims := &BearerClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token")
	}
	return claims, nil
}

// SubjectID parses the numeric user id out of the token subject.
func (c *BearerClaims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewUnauthorized("invalid or expired token")
	}
	return id, nil
}
