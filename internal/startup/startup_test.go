package startup

import (
	"path/filepath"
	"testing"
	"time"
)

func setTestEnv(t *testing.T, contentDir, databaseDir string) {
	t.Helper()
	t.Setenv("CONTENT_DIR", contentDir)
	t.Setenv("DATABASE_DIR", databaseDir)
	t.Setenv("PORT", "")
	t.Setenv("DEBOUNCE", "")
	t.Setenv("RESCAN_INTERVAL", "")
	t.Setenv("WATCH_ENABLED", "")
	t.Setenv("LOG_HEALTH_CHECKS", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	contentDir := t.TempDir()
	databaseDir := t.TempDir()
	setTestEnv(t, contentDir, databaseDir)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "8080" {
		t.Errorf("Port = %q, want 8080", config.Port)
	}
	if config.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", config.Debounce)
	}
	if config.RescanInterval != 30*time.Minute {
		t.Errorf("RescanInterval = %v, want 30m", config.RescanInterval)
	}
	if !config.WatchEnabled {
		t.Error("Expected watching enabled by default")
	}
	if config.LogHealthChecks {
		t.Error("Expected health check logging disabled by default")
	}
	if config.DatabasePath != filepath.Join(databaseDir, "index.db") {
		t.Errorf("DatabasePath = %q", config.DatabasePath)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	contentDir := t.TempDir()
	databaseDir := t.TempDir()
	setTestEnv(t, contentDir, databaseDir)
	t.Setenv("PORT", "9090")
	t.Setenv("DEBOUNCE", "2s")
	t.Setenv("RESCAN_INTERVAL", "1h")
	t.Setenv("WATCH_ENABLED", "false")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "9090" {
		t.Errorf("Port = %q, want 9090", config.Port)
	}
	if config.Debounce != 2*time.Second {
		t.Errorf("Debounce = %v, want 2s", config.Debounce)
	}
	if config.RescanInterval != time.Hour {
		t.Errorf("RescanInterval = %v, want 1h", config.RescanInterval)
	}
	if config.WatchEnabled {
		t.Error("Expected watching disabled")
	}
}

func TestLoadConfigInvalidDurationsFallBack(t *testing.T) {
	setTestEnv(t, t.TempDir(), t.TempDir())
	t.Setenv("DEBOUNCE", "not-a-duration")
	t.Setenv("RESCAN_INTERVAL", "also-bad")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms fallback", config.Debounce)
	}
	if config.RescanInterval != 30*time.Minute {
		t.Errorf("RescanInterval = %v, want 30m fallback", config.RescanInterval)
	}
}

func TestLoadConfigMissingContentDir(t *testing.T) {
	setTestEnv(t, filepath.Join(t.TempDir(), "does-not-exist"), t.TempDir())

	if _, err := LoadConfig(); err == nil {
		t.Fatal("Expected error for missing content directory")
	}
}

func TestLoadConfigCreatesDatabaseDir(t *testing.T) {
	databaseDir := filepath.Join(t.TempDir(), "nested", "db")
	setTestEnv(t, t.TempDir(), databaseDir)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.DatabaseDir != databaseDir {
		t.Errorf("DatabaseDir = %q, want %q", config.DatabaseDir, databaseDir)
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" {
		t.Error("Expected non-empty version")
	}
	if info.GoVersion == "" {
		t.Error("Expected non-empty Go version")
	}
}
