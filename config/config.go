package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Target  TargetConfig
	Browser BrowserConfig
	Output  OutputConfig
	Server  ServerConfig
	Log     LogConfig
}

// TargetConfig controls what is scraped and how hard.
type TargetConfig struct {
	// BaseURL is the scheme+host all feed paths are relative to.
	BaseURL string // default: "https://web-scraping.dev"

	// MaxPages caps the static feed's pagination walk, bounding
	// worst-case work against a misbehaving server.
	MaxPages int // default: 10

	// MaxRecords is the record-count ceiling for dynamic feeds.
	// Zero means no ceiling.
	MaxRecords int // default: 0

	// SettleWait is the fixed delay after each driver action, letting
	// asynchronous rendering finish before the next read.
	SettleWait time.Duration // default: 2s

	// FetchDelay is the minimum interval between static page fetches.
	FetchDelay time.Duration // default: 500ms

	// StableReadings is how many consecutive equal growth readings the
	// scroll strategy requires before declaring the feed complete. The
	// default of 1 reproduces the single-reading rule; raise it to
	// harden against slow-network stalls.
	StableReadings int // default: 1

	// RunTimeout is the hard deadline for one feed run.
	RunTimeout time.Duration // default: 5m
}

// BrowserConfig controls the rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL for all requests.
	Proxy string
}

// OutputConfig controls where datasets are written.
type OutputConfig struct {
	// Dir is the directory CSV datasets are written to.
	Dir string // default: "."
}

// ServerConfig controls the optional dataset API server.
type ServerConfig struct {
	// Enabled starts the API server after the scrape run.
	Enabled bool // default: false

	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Target: TargetConfig{
			BaseURL:        envOr("HARVEST_BASE_URL", "https://web-scraping.dev"),
			MaxPages:       envIntOr("HARVEST_MAX_PAGES", 10),
			MaxRecords:     envIntOr("HARVEST_MAX_RECORDS", 0),
			SettleWait:     envDurationOr("HARVEST_SETTLE_WAIT", 2*time.Second),
			FetchDelay:     envDurationOr("HARVEST_FETCH_DELAY", 500*time.Millisecond),
			StableReadings: envIntOr("HARVEST_STABLE_READINGS", 1),
			RunTimeout:     envDurationOr("HARVEST_RUN_TIMEOUT", 5*time.Minute),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("HARVEST_HEADLESS", true),
			NoSandbox:  envBoolOr("HARVEST_NO_SANDBOX", false),
			BrowserBin: os.Getenv("HARVEST_BROWSER_BIN"),
			Proxy:      os.Getenv("HARVEST_PROXY"),
		},
		Output: OutputConfig{
			Dir: envOr("HARVEST_OUTPUT_DIR", "."),
		},
		Server: ServerConfig{
			Enabled: envBoolOr("HARVEST_SERVE", false),
			Host:    envOr("HARVEST_HOST", "0.0.0.0"),
			Port:    envIntOr("HARVEST_PORT", 8080),
			Mode:    envOr("HARVEST_MODE", "release"),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
