package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"CE_DB_PATH" envDefault:"./data/campusevents.db"`
	SessionSecret string `env:"CE_SESSION_SECRET,required"`
	ServerHost    string `env:"CE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"CE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"CE_ENV" envDefault:"development"`
	LogLevel      string `env:"CE_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"CE_UPLOADS_DIR" envDefault:"./uploads"`

	// Session idle timeout; a session inactive longer than this is destroyed.
	SessionIdleTimeout time.Duration `env:"CE_SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	// Rate limiting for unauthenticated entry points.
	LoginMaxAttempts    int           `env:"CE_LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow         time.Duration `env:"CE_LOGIN_WINDOW" envDefault:"15m"`
	RegisterMaxAttempts int           `env:"CE_REGISTER_MAX_ATTEMPTS" envDefault:"5"`
	RegisterWindow      time.Duration `env:"CE_REGISTER_WINDOW" envDefault:"1h"`

	// Audit log retention for the nightly pruning job.
	AuditRetentionDays int `env:"CE_AUDIT_RETENTION_DAYS" envDefault:"90"`

	// First-run admin account seeding.
	SeedAdminEmail    string `env:"CE_SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"CE_SEED_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SeedEnabled returns true if a first-run admin account is configured.
func (c Config) SeedEnabled() bool {
	return c.SeedAdminEmail != "" && c.SeedAdminPassword != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("CE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("CE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("CE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("CE_SESSION_IDLE_TIMEOUT must be positive, got %s", cfg.SessionIdleTimeout)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
