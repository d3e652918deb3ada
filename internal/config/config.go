// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// SessionsDir is the local Codex sessions directory scanned for usage logs.
	SessionsDir string
	// IncludeLocal controls whether the local sessions directory is scanned
	// in addition to synced remote sources.
	IncludeLocal bool
	// DataDir holds sources.json, synced remote sessions, and the scan cache.
	DataDir string
	// DatabasePath is the SQLite scan cache location.
	DatabasePath string
	// RemoteURL, when set, makes the TUI fetch datasets from a running
	// `codexusage serve` instance instead of scanning local files.
	RemoteURL string
	// ServerHost and ServerPort configure `codexusage serve`.
	ServerHost string
	ServerPort int
	// PortRetryCount is how many consecutive ports to try when the
	// requested server port is busy.
	PortRetryCount int
	// WatchDebounce is the quiet period after session file changes before
	// a data-changed event is emitted.
	WatchDebounce time.Duration
	// LogLevel is the minimum level written to the log file
	// (debug, info, warn, error).
	LogLevel string
}

// Default values
const (
	defaultServerHost     = "127.0.0.1"
	defaultServerPort     = 8008
	defaultPortRetryCount = 20
	defaultWatchDebounce  = 2 * time.Second
	defaultLogLevel       = "info"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		SessionsDir:    getEnvString("CODEX_SESSIONS_DIR", getDefaultSessionsDir()),
		IncludeLocal:   getEnvBool("CODEX_INCLUDE_LOCAL", true),
		DataDir:        getEnvString("CODEX_DATA_DIR", getDefaultDataDir()),
		RemoteURL:      getEnvString("CODEX_REMOTE_URL", ""),
		ServerHost:     getEnvString("CODEX_UPTIME_HOST", defaultServerHost),
		ServerPort:     getEnvInt("CODEX_UPTIME_PORT", defaultServerPort),
		PortRetryCount: getEnvInt("CODEX_PORT_RETRY_COUNT", defaultPortRetryCount),
		WatchDebounce:  getEnvDuration("CODEX_WATCH_DEBOUNCE", defaultWatchDebounce),
		LogLevel:       getEnvString("CODEX_LOG_LEVEL", defaultLogLevel),
	}
	cfg.DatabasePath = getEnvString("CODEX_DATABASE_PATH", filepath.Join(cfg.DataDir, "scancache.db"))

	// Ensure the data directory exists
	if err := ensureDir(cfg.DataDir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SourcesPath returns the path of the remote sources registry file.
func (c *Config) SourcesPath() string {
	return filepath.Join(c.DataDir, "sources.json")
}

// SourcesDir returns the directory holding synced remote session trees.
func (c *Config) SourcesDir() string {
	return filepath.Join(c.DataDir, "sources")
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
			filepath.Join(home, ".config", "codexusage", ".env"),
			filepath.Join(home, ".codex", ".env"),
		)
	}

	return paths
}

// getDefaultSessionsDir returns the default Codex sessions directory.
func getDefaultSessionsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sessions"
	}
	return filepath.Join(home, ".codex", "sessions")
}

// getDefaultDataDir returns the default application data directory.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "codexusage-data"
	}
	return filepath.Join(home, ".config", "codexusage")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// "0", "false" and "no" are false; anything else set is true.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch value {
	case "0", "false", "no":
		return false
	}
	return true
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
