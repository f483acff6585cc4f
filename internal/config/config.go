// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StorageBackend selects where quota and usage state is persisted.
type StorageBackend string

const (
	BackendSQLite StorageBackend = "sqlite"
	BackendFile   StorageBackend = "file"
	BackendRedis  StorageBackend = "redis"
	BackendMemory StorageBackend = "memory"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath         string
	ProfilePath          string
	StorageDir           string
	CatalogPath          string
	RedisAddr            string
	RedisPassword        string
	RedisKeyPrefix       string
	LogLevel             string
	LogPath              string
	StorageBackend       StorageBackend
	RedisDB              int
	RequestTokenEstimate int
	ResetCheckInterval   time.Duration
}

// Default values
const (
	defaultResetCheckInterval   = time.Minute
	defaultRequestTokenEstimate = 150
	defaultRedisKeyPrefix       = "hdq:"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatabasePath:         getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		ProfilePath:          getEnvString("PROFILE_PATH", getDefaultProfilePath()),
		StorageDir:           getEnvString("STORAGE_DIR", getDefaultStorageDir()),
		CatalogPath:          getEnvString("CATALOG_PATH", ""),
		RedisAddr:            getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnvString("REDIS_PASSWORD", ""),
		RedisKeyPrefix:       getEnvString("REDIS_KEY_PREFIX", defaultRedisKeyPrefix),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		LogLevel:             getEnvString("LOG_LEVEL", "info"),
		LogPath:              getEnvString("LOG_PATH", ""),
		StorageBackend:       StorageBackend(strings.ToLower(getEnvString("STORAGE_BACKEND", string(BackendSQLite)))),
		RequestTokenEstimate: getEnvInt("REQUEST_TOKEN_ESTIMATE", defaultRequestTokenEstimate),
		ResetCheckInterval:   getEnvDuration("RESET_CHECK_INTERVAL", defaultResetCheckInterval),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.StorageBackend {
	case BackendSQLite:
		if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	case BackendFile:
		if err := ensureDir(cfg.StorageDir); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	// Ensure profile directory exists
	if err := ensureDir(filepath.Dir(cfg.ProfilePath)); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted silently.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendSQLite, BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q (want sqlite, file, redis or memory)", c.StorageBackend)
	}
	if c.RequestTokenEstimate < 0 {
		return fmt.Errorf("REQUEST_TOKEN_ESTIMATE must be non-negative, got %d", c.RequestTokenEstimate)
	}
	if c.ResetCheckInterval <= 0 {
		return fmt.Errorf("RESET_CHECK_INTERVAL must be positive, got %s", c.ResetCheckInterval)
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "helpdevoir", "hdq", ".env"),
			filepath.Join(home, ".config", "helpdevoir", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// configDir returns the application configuration directory.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "helpdevoir", "hdq")
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	dir := configDir()
	if dir == "" {
		return "quota.db"
	}
	return filepath.Join(dir, "quota.db")
}

// getDefaultProfilePath returns the default path for the parent profile.
func getDefaultProfilePath() string {
	dir := configDir()
	if dir == "" {
		return "profile.json"
	}
	return filepath.Join(filepath.Dir(dir), "profile.json")
}

func getDefaultStorageDir() string {
	dir := configDir()
	if dir == "" {
		return "state"
	}
	return filepath.Join(dir, "state")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
