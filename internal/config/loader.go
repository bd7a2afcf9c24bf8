package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/mowing-roster/internal/logging"
)

// DefaultSQLiteDSN is the database used when ROSTER_SQLITE_DSN is unset.
const DefaultSQLiteDSN = "file:roster.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Config captures environment driven configuration values for the roster service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	SessionSecret     string
	SessionTTL        time.Duration
	AdminPasswordHash string
	AdminPassword     string
	Timezone          string
	BaseURL           string
	Location          string
	SMTPHost          string
	SMTPPort          int
	EmailUser         string
	EmailPassword     string
	TestingMode       bool
	Seed              bool
	SeedFile          string
	StaticDir         string
	TLSCert           string
	TLSKey            string
	LogLevel          string
	CalendarCacheTTL  time.Duration
}

// SMTPConfigured reports whether both email credentials are present.
func (c Config) SMTPConfigured() bool {
	return c.EmailUser != "" && c.EmailPassword != ""
}

// Load parses configuration values from an optional .env file and the
// current process environment. Variables already set in the environment win
// over the file.
//
// Missing and invalid keys are collected and reported together.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ROSTER_ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		HTTPPort:         3001,
		SQLiteDSN:        DefaultSQLiteDSN,
		SessionTTL:       24 * time.Hour,
		Timezone:         "Pacific/Auckland",
		BaseURL:          "http://localhost:3001",
		Location:         "1 Example Lane, Richmond, New Zealand",
		SMTPHost:         "smtp.gmail.com",
		SMTPPort:         587,
		Seed:             true,
		LogLevel:         "info",
		CalendarCacheTTL: 30 * time.Second,
	}

	var missing, invalid []string

	if v := env("ROSTER_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ROSTER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if v := env("ROSTER_SQLITE_DSN"); v != "" {
		cfg.SQLiteDSN = v
	}

	if cfg.SessionSecret = env("ROSTER_SESSION_SECRET"); cfg.SessionSecret == "" {
		missing = append(missing, "ROSTER_SESSION_SECRET")
	}

	if v := env("ROSTER_SESSION_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err != nil || ttl <= 0 {
			invalid = append(invalid, "ROSTER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	cfg.AdminPasswordHash = env("ROSTER_ADMIN_PASSWORD_HASH")
	cfg.AdminPassword = os.Getenv("ROSTER_ADMIN_PASSWORD")
	if cfg.AdminPasswordHash == "" && cfg.AdminPassword == "" {
		missing = append(missing, "ROSTER_ADMIN_PASSWORD_HASH or ROSTER_ADMIN_PASSWORD")
	}

	if v := env("ROSTER_TIMEZONE"); v != "" {
		if _, err := time.LoadLocation(v); err != nil {
			invalid = append(invalid, "ROSTER_TIMEZONE")
		} else {
			cfg.Timezone = v
		}
	}

	if v := env("ROSTER_BASE_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := env("ROSTER_LOCATION"); v != "" {
		cfg.Location = v
	}
	if v := env("ROSTER_SMTP_HOST"); v != "" {
		cfg.SMTPHost = v
	}
	if v := env("ROSTER_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ROSTER_SMTP_PORT")
		} else {
			cfg.SMTPPort = port
		}
	}
	cfg.EmailUser = env("ROSTER_EMAIL_USER")
	cfg.EmailPassword = os.Getenv("ROSTER_EMAIL_PASSWORD")

	for key, dst := range map[string]*bool{
		"ROSTER_TESTING_MODE": &cfg.TestingMode,
		"ROSTER_SEED":         &cfg.Seed,
	} {
		v := env(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, key)
			continue
		}
		*dst = b
	}

	cfg.SeedFile = env("ROSTER_SEED_FILE")
	cfg.StaticDir = env("ROSTER_STATIC_DIR")
	cfg.TLSCert = env("ROSTER_TLS_CERT")
	cfg.TLSKey = env("ROSTER_TLS_KEY")

	if v := env("ROSTER_LOG_LEVEL"); v != "" {
		if _, err := logging.ParseLevel(v); err != nil {
			invalid = append(invalid, "ROSTER_LOG_LEVEL")
		} else {
			cfg.LogLevel = strings.ToLower(v)
		}
	}

	if v := env("ROSTER_CALENDAR_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err != nil || ttl < 0 {
			invalid = append(invalid, "ROSTER_CALENDAR_CACHE_TTL")
		} else {
			cfg.CalendarCacheTTL = ttl
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
