// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL of the web frontend, used to build
	// password-reset links.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MySQL connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds bearer/refresh token settings.
	Auth AuthConfig

	// Token holds the symmetric key for encrypted password-reset tokens.
	Token TokenConfig

	// SMTP holds outbound email settings.
	SMTP SMTPConfig

	// Inactivity holds the background inactivity-check settings.
	Inactivity InactivityConfig
}

// DatabaseConfig holds MySQL connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MySQL address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MySQL username (default: "moodtracker").
	User string

	// Password is the MySQL password (default: "moodtracker").
	Password string

	// Name is the database name (default: "moodtracker").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds bearer and refresh token settings.
type AuthConfig struct {
	// JWTSecret is the HMAC-SHA256 signing key for bearer tokens (32+ bytes).
	JWTSecret string

	// Issuer and Audience are stamped into every bearer token.
	Issuer   string
	Audience string

	// BearerTTL is the bearer token lifetime.
	BearerTTL time.Duration

	// RefreshTTL is the refresh token lifetime.
	RefreshTTL time.Duration
}

// TokenConfig holds the symmetric encryption key for password-reset tokens.
type TokenConfig struct {
	// EncryptionKey is the base64-encoded 32-byte AES key for reset tokens.
	EncryptionKey string
}

// Key decodes the base64 encryption key. Returns an error if the key is
// missing or does not decode to exactly 32 bytes.
func (t TokenConfig) Key() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(t.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decoding TOKEN_ENCRYPTION_KEY: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// SMTPConfig holds outbound email settings. An empty Host disables email.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string

	// Port is the SMTP server port (default: 587).
	Port int

	// Username and Password authenticate against the SMTP server.
	Username string
	Password string

	// FromAddress and FromName set the envelope sender.
	FromAddress string
	FromName    string

	// Encryption is "starttls", "ssl", or "none".
	Encryption string
}

// InactivityConfig holds the background inactivity-notification settings.
type InactivityConfig struct {
	// Threshold is how long without a mood entry before a user counts as
	// inactive.
	Threshold time.Duration

	// Interval is how often the background check runs.
	Interval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing or malformed.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:3000"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "moodtracker"),
			Password:        getEnv("DB_PASSWORD", "moodtracker"),
			Name:            getEnv("DB_NAME", "moodtracker"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_KEY", ""),
			Issuer:     getEnv("JWT_ISSUER", "moodtracker"),
			Audience:   getEnv("JWT_AUDIENCE", "moodtracker-web"),
			BearerTTL:  getEnvDuration("JWT_BEARER_TTL", 120*time.Minute),
			RefreshTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},

		Token: TokenConfig{
			EncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		},

		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromAddress: getEnv("SMTP_FROM_ADDRESS", "noreply@moodtracker.local"),
			FromName:    getEnv("SMTP_FROM_NAME", "MoodTracker"),
			Encryption:  getEnv("SMTP_ENCRYPTION", "starttls"),
		},

		Inactivity: InactivityConfig{
			Threshold: getEnvDuration("INACTIVITY_THRESHOLD", 72*time.Hour),
			Interval:  getEnvDuration("INACTIVITY_CHECK_INTERVAL", 12*time.Hour),
		},
	}

	// Validate required secrets in production. Case-insensitive check
	// catches common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_KEY is required in production")
		}
		if len(cfg.Auth.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_KEY must be at least 32 characters in production")
		}
		if cfg.Token.EncryptionKey == "" {
			return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY is required in production")
		}
	}

	// Dev-only defaults so local dev works without a .env file.
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-jwt-key-do-not-use-in-production!!!!"
	}
	if cfg.Token.EncryptionKey == "" {
		cfg.Token.EncryptionKey = base64.StdEncoding.EncodeToString(
			[]byte("dev-token-encryption-key-32bytes"))
	}
	if _, err := cfg.Token.Key(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "72h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
