package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port           int
	DatabaseURL    string
	DataDir        string
	FFmpegPath     string
	RedisAddr      string
	AccessKeyHash  string
	WorkspaceTTL   int // hours before an idle case workspace is swept
	BandpassLowHz  int
	BandpassHighHz int
}

func Load() *Config {
	return &Config{
		Port:           envInt("PORT", 8080),
		DatabaseURL:    env("DATABASE_URL", "postgres://cluewords:cluewords@db:5432/cluewords?sslmode=disable"),
		DataDir:        env("DATA_DIR", "/data"),
		FFmpegPath:     env("FFMPEG_PATH", "ffmpeg"),
		RedisAddr:      env("REDIS_ADDR", ""),
		AccessKeyHash:  env("ACCESS_KEY_HASH", ""),
		WorkspaceTTL:   envInt("WORKSPACE_TTL_HOURS", 24),
		BandpassLowHz:  envInt("BANDPASS_LOW_HZ", 400),
		BandpassHighHz: envInt("BANDPASS_HIGH_HZ", 4000),
	}
}

// CasesDir is the root under which per-case workspaces are created.
func (c *Config) CasesDir() string {
	return filepath.Join(c.DataDir, "cases")
}

// JobsEnabled reports whether the background cleanup queue should run.
func (c *Config) JobsEnabled() bool {
	return c.RedisAddr != ""
}

// AuthEnabled reports whether the shared access key middleware is active.
func (c *Config) AuthEnabled() bool {
	return c.AccessKeyHash != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
