package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	val := "test_value"
	os.Setenv(key, val)
	defer os.Unsetenv(key)

	if got := getEnvString(key, "default"); got != val {
		t.Errorf("getEnvString() = %q, want %q", got, val)
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				os.Setenv(key, tt.envVal)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_ENV_INT"

	t.Setenv(key, "42")
	if got := getEnvInt(key, 7); got != 42 {
		t.Errorf("getEnvInt() = %d, want 42", got)
	}

	t.Setenv(key, "forty-two")
	if got := getEnvInt(key, 7); got != 7 {
		t.Errorf("getEnvInt() = %d, want default 7 for invalid value", got)
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestGetDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Skipping test because user home dir cannot be found")
	}

	dbPath := getDefaultDatabasePath()
	expectedDb := filepath.Join(home, ".config", "helpdevoir", "hdq", "quota.db")
	if dbPath != expectedDb {
		t.Errorf("getDefaultDatabasePath() = %q, want %q", dbPath, expectedDb)
	}

	profilePath := getDefaultProfilePath()
	expectedProfile := filepath.Join(home, ".config", "helpdevoir", "profile.json")
	if profilePath != expectedProfile {
		t.Errorf("getDefaultProfilePath() = %q, want %q", profilePath, expectedProfile)
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Error("getEnvPaths() returned empty list")
	}

	// Basic check that it contains current directory
	cwd, _ := os.Getwd()
	found := false
	for _, p := range paths {
		if p == filepath.Join(cwd, ".env") {
			found = true
			break
		}
	}
	if !found {
		t.Error("getEnvPaths() missing current directory .env")
	}
}

// isolateEnv points HOME and the working directory at an empty temp dir so no
// developer .env file leaks into Load.
func isolateEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir() failed: %v", err)
	}
	t.Setenv("HOME", tmpDir)
	return tmpDir
}

func TestLoad(t *testing.T) {
	tmpDir := isolateEnv(t)
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "data", "quota.db"))
	t.Setenv("PROFILE_PATH", filepath.Join(tmpDir, "profile", "profile.json"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.StorageBackend != BackendSQLite {
		t.Errorf("StorageBackend = %q, want sqlite", cfg.StorageBackend)
	}
	if cfg.ResetCheckInterval != defaultResetCheckInterval {
		t.Errorf("ResetCheckInterval = %v, want %v", cfg.ResetCheckInterval, defaultResetCheckInterval)
	}
	if cfg.RequestTokenEstimate != defaultRequestTokenEstimate {
		t.Errorf("RequestTokenEstimate = %d, want %d", cfg.RequestTokenEstimate, defaultRequestTokenEstimate)
	}
	if cfg.RedisKeyPrefix != defaultRedisKeyPrefix {
		t.Errorf("RedisKeyPrefix = %q, want %q", cfg.RedisKeyPrefix, defaultRedisKeyPrefix)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "data")); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "profile")); err != nil {
		t.Errorf("profile directory was not created: %v", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	tmpDir := isolateEnv(t)
	envFile := "STORAGE_BACKEND=memory\nRESET_CHECK_INTERVAL=30s\nPROFILE_PATH=" +
		filepath.Join(tmpDir, "profile.json") + "\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(envFile), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_BACKEND")
		os.Unsetenv("RESET_CHECK_INTERVAL")
		os.Unsetenv("PROFILE_PATH")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.StorageBackend != BackendMemory {
		t.Errorf("StorageBackend = %q, want memory", cfg.StorageBackend)
	}
	if cfg.ResetCheckInterval != 30*time.Second {
		t.Errorf("ResetCheckInterval = %v, want 30s", cfg.ResetCheckInterval)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STORAGE_BACKEND", "postgres")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail for an unknown storage backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		StorageBackend:       BackendRedis,
		RequestTokenEstimate: 10,
		ResetCheckInterval:   time.Second,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	negative := valid
	negative.RequestTokenEstimate = -1
	if err := negative.Validate(); err == nil {
		t.Error("Validate() should reject negative token estimate")
	}

	noInterval := valid
	noInterval.ResetCheckInterval = 0
	if err := noInterval.Validate(); err == nil {
		t.Error("Validate() should reject zero reset interval")
	}
}
