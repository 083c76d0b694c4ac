package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinViewTTL is the shortest accepted VIEW_TTL. Idle views are swept at a
// quarter of the TTL.
const MinViewTTL = time.Second

type Config struct {
	Port string

	// Remote MediLink backend
	BackendURL     string
	RequestTimeout time.Duration

	// Drug database lookup
	DrugSearchLimit    int
	DrugSearchDebounce time.Duration

	// Assistant page views
	ViewTTL time.Duration

	LogLevel        string
	DefaultLanguage string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: ignoring .env: %v\n", err)
	}

	cfg := Config{
		Port: envOr("PORT", "3000"),

		BackendURL:     strings.TrimRight(envOr("BACKEND_URL", "http://localhost:8000"), "/"),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 30*time.Second),

		DrugSearchLimit:    envInt("DRUG_SEARCH_LIMIT", 20),
		DrugSearchDebounce: envDuration("DRUG_SEARCH_DEBOUNCE", 300*time.Millisecond),

		ViewTTL: envDuration("VIEW_TTL", 1*time.Hour),

		LogLevel:        strings.ToLower(envOr("LOG_LEVEL", "info")),
		DefaultLanguage: envOr("DEFAULT_LANGUAGE", "en"),
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.DrugSearchLimit <= 0 {
		cfg.DrugSearchLimit = 20
	}
	if cfg.DrugSearchDebounce < 0 {
		cfg.DrugSearchDebounce = 300 * time.Millisecond
	}
	if cfg.ViewTTL <= 0 {
		cfg.ViewTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("BACKEND_URL scheme must be http or https, got %q", u.Scheme)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.ViewTTL < MinViewTTL {
		return fmt.Errorf("VIEW_TTL must be at least %s, got %s", MinViewTTL, c.ViewTTL)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
