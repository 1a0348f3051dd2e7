// Package config provides configuration management for the Cutroom Agent.
// Configuration is loaded from environment variables with sensible defaults;
// a .env file in the working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 8636
	DefaultLogLevel = "info"
	DefaultDataDir  = ".cutroom"

	// Environment variable names
	EnvPort        = "CUTROOM_PORT"
	EnvLogLevel    = "CUTROOM_LOG_LEVEL"
	EnvDataDir     = "CUTROOM_DATA_DIR"
	EnvHeadless    = "CUTROOM_HEADLESS"
	EnvRenderURL   = "CUTROOM_RENDER_URL"
	EnvRenderToken = "CUTROOM_RENDER_TOKEN"

	// Database filename
	DBFilename = "cutroom.db"

	// Upload limits
	DefaultMaxUploadBytes = 2 * 1024 * 1024 * 1024 // 2GB
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	AssetsDir() string
	MaxUploadBytes() int64
	Headless() bool
	RenderURL() string
	RenderToken() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	maxUploadBytes int64
	headless       bool
	renderURL      string
	renderToken    string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	// Missing .env is not an error; the environment stands alone.
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		maxUploadBytes: DefaultMaxUploadBytes,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h == "1" || h == "true" {
		cfg.headless = true
	}

	cfg.renderURL = os.Getenv(EnvRenderURL)
	cfg.renderToken = os.Getenv(EnvRenderToken)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// AssetsDir returns the directory uploaded media is stored in
func (c *EnvConfig) AssetsDir() string {
	return filepath.Join(c.dataDir, "assets")
}

// MaxUploadBytes returns the largest accepted upload size
func (c *EnvConfig) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

// Headless reports whether the tray UI should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// RenderURL returns the render backend base URL ("" disables submission)
func (c *EnvConfig) RenderURL() string {
	return c.renderURL
}

// RenderToken returns the bearer token for the render backend
func (c *EnvConfig) RenderToken() string {
	return c.renderToken
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
