package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://www.courtlistener.com", cfg.BaseURL)
	assert.Equal(t, "sqlite", cfg.CacheBackend)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Interval())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	data := `{
		"base_url": "http://localhost:8080",
		"rate_limit_interval": "250ms",
		"cache_backend": "redis",
		"redis_addr": "localhost:6379",
		"nos_codes": [442]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval())
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []int{442}, cfg.NOSCodes)

	// Untouched fields keep their defaults.
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, "logs/unmatched_cases.log", cfg.UnmatchedLogPath)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestIntervalFallback(t *testing.T) {
	cfg := &Config{RateLimitInterval: "garbage"}
	assert.Equal(t, time.Second, cfg.Interval())

	cfg = &Config{RateLimitInterval: "-5s"}
	assert.Equal(t, time.Second, cfg.Interval())
}

func TestMergeZeroOverlay(t *testing.T) {
	merged := Merge(DefaultConfig(), &Config{})
	assert.Equal(t, DefaultConfig(), merged)
}
