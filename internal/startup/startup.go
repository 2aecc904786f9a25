// Package startup loads and validates configuration from environment
// variables and logs the startup banner.
package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"content-indexer/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	ContentDir      string
	DatabaseDir     string
	Port            string
	Debounce        time.Duration
	RescanInterval  time.Duration
	WatchEnabled    bool
	LogHealthChecks bool

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	logging.Info("content-indexer %s (%s, built %s, %s)", Version, Commit, BuildTime, GoVersion)

	contentDir := getEnv("CONTENT_DIR", "/content")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	debounceStr := getEnv("DEBOUNCE", "500ms")
	rescanIntervalStr := getEnv("RESCAN_INTERVAL", "30m")
	watchEnabled := getEnvBool("WATCH_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  CONTENT_DIR:       %s", contentDir)
	logging.Info("  DATABASE_DIR:      %s", databaseDir)
	logging.Info("  PORT:              %s", port)
	logging.Info("  DEBOUNCE:          %s", debounceStr)
	logging.Info("  RESCAN_INTERVAL:   %s", rescanIntervalStr)
	logging.Info("  WATCH_ENABLED:     %v", watchEnabled)
	logging.Info("  LOG_HEALTH_CHECKS: %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	debounce, err := time.ParseDuration(debounceStr)
	if err != nil || debounce < 0 {
		logging.Warn("  Invalid DEBOUNCE, using default: 500ms")
		debounce = 500 * time.Millisecond
	}

	rescanInterval, err := time.ParseDuration(rescanIntervalStr)
	if err != nil {
		logging.Warn("  Invalid RESCAN_INTERVAL, using default: 30m")
		rescanInterval = 30 * time.Minute
	}

	contentDir, err = filepath.Abs(contentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content directory path: %w", err)
	}

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	if info, err := os.Stat(contentDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("content directory %s is not accessible", contentDir)
	}

	if err := ensureWritableDir(databaseDir); err != nil {
		return nil, err
	}

	return &Config{
		ContentDir:      contentDir,
		DatabaseDir:     databaseDir,
		Port:            port,
		Debounce:        debounce,
		RescanInterval:  rescanInterval,
		WatchEnabled:    watchEnabled,
		LogHealthChecks: logHealthChecks,
		DatabasePath:    filepath.Join(databaseDir, "index.db"),
	}, nil
}

// ensureWritableDir creates dir if needed and verifies it is writable.
func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("directory %s not writable: %w", dir, err)
	}
	_ = os.Remove(testFile)
	return nil
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
