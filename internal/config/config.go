// Package config loads the pipeline configuration from a JSON file with
// sensible defaults, so runs are reproducible from a checked-in config
// rather than a pile of flags.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds application configuration.
type Config struct {
	// BaseURL of the record service API. Defaults to the production host.
	BaseURL string `json:"base_url,omitempty"`

	// RateLimitInterval is the minimum spacing between API sends, as a
	// Go duration string ("1s", "500ms").
	RateLimitInterval string `json:"rate_limit_interval,omitempty"`

	// MaxAttempts bounds the retry loop per request.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// CacheBackend selects the response store: "sqlite" or "redis".
	CacheBackend string `json:"cache_backend,omitempty"`

	// CacheDir is the directory for the sqlite response store.
	CacheDir string `json:"cache_dir,omitempty"`

	// RedisAddr is the redis host:port for the redis backend.
	RedisAddr string `json:"redis_addr,omitempty"`

	// DataPath is the civil terminations extract (plain or .bz2 CSV).
	DataPath string `json:"data_path,omitempty"`

	// OutputPath is the result CSV location.
	OutputPath string `json:"output_path,omitempty"`

	// UnmatchedLogPath receives one line per unmatched case.
	UnmatchedLogPath string `json:"unmatched_log_path,omitempty"`

	// MetricsPath receives the match-rate metrics JSON.
	MetricsPath string `json:"metrics_path,omitempty"`

	// NOSCodes overrides the Nature of Suit filter.
	NOSCodes []int `json:"nos_codes,omitempty"`

	// LogLevel sets the zerolog level (trace..panic).
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://www.courtlistener.com",
		RateLimitInterval: "1s",
		MaxAttempts:       5,
		CacheBackend:      "sqlite",
		CacheDir:          "data/cache",
		DataPath:          "data/fjc_civil.csv",
		OutputPath:        "data/output.csv",
		UnmatchedLogPath:  "logs/unmatched_cases.log",
		MetricsPath:       "logs/match_metrics.json",
		LogLevel:          "info",
	}
}

// Load loads configuration from baseDir/config.json. Returns the defaults
// if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path. Returns a
// zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs. Overlay values take precedence
// when non-zero.
func Merge(base, overlay *Config) *Config {
	result := *base
	if overlay.BaseURL != "" {
		result.BaseURL = overlay.BaseURL
	}
	if overlay.RateLimitInterval != "" {
		result.RateLimitInterval = overlay.RateLimitInterval
	}
	if overlay.MaxAttempts != 0 {
		result.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.CacheBackend != "" {
		result.CacheBackend = overlay.CacheBackend
	}
	if overlay.CacheDir != "" {
		result.CacheDir = overlay.CacheDir
	}
	if overlay.RedisAddr != "" {
		result.RedisAddr = overlay.RedisAddr
	}
	if overlay.DataPath != "" {
		result.DataPath = overlay.DataPath
	}
	if overlay.OutputPath != "" {
		result.OutputPath = overlay.OutputPath
	}
	if overlay.UnmatchedLogPath != "" {
		result.UnmatchedLogPath = overlay.UnmatchedLogPath
	}
	if overlay.MetricsPath != "" {
		result.MetricsPath = overlay.MetricsPath
	}
	if len(overlay.NOSCodes) > 0 {
		result.NOSCodes = overlay.NOSCodes
	}
	if overlay.LogLevel != "" {
		result.LogLevel = overlay.LogLevel
	}
	return &result
}

// Interval parses RateLimitInterval, falling back to one second on a
// malformed value.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.RateLimitInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}
