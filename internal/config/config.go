// Package config loads the application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultRedirectURI     = "http://127.0.0.1:8080/callback"
	DefaultScope           = "user-read-private user-top-read user-read-recently-played"
	DefaultRegion          = "us-east-2"
	DefaultRawBucket       = "spotify-raw-data-dk"
	DefaultProcessedBucket = "spotify-processed-data-dk"

	DefaultProcessedInitialDelay = 5 * time.Second
	DefaultProcessedPollInterval = 2 * time.Second
	DefaultProcessedMaxWait      = 30 * time.Second
)

// Config holds all application configuration. It is read once at startup and
// treated as immutable afterwards; components receive the values they need
// explicitly instead of reading the environment themselves.
type Config struct {
	// Server
	Addr     string
	LogLevel string

	// Spotify OAuth
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	SpotifyScope        string

	// Object storage
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	RawBucket          string
	ProcessedBucket    string

	// Optional PostgreSQL session store. Empty means in-memory sessions.
	DatabaseURL string

	// Optional directory for a local copy of each raw snapshot. Empty
	// disables the copy.
	LocalSnapshotDir string

	// Processed-snapshot polling
	ProcessedInitialDelay time.Duration
	ProcessedPollInterval time.Duration
	ProcessedMaxWait      time.Duration
}

// Load reads configuration from the environment. It returns an error naming
// every missing required variable rather than stopping at the first one.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:     envOrDefault("ADDR", DefaultAddr),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURI:  envOrDefault("SPOTIFY_REDIRECT_URI", DefaultRedirectURI),
		SpotifyScope:        envOrDefault("SPOTIFY_SCOPE", DefaultScope),

		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSRegion:          envOrDefault("AWS_REGION", DefaultRegion),
		RawBucket:          envOrDefault("RAW_BUCKET", DefaultRawBucket),
		ProcessedBucket:    envOrDefault("PROCESSED_BUCKET", DefaultProcessedBucket),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		LocalSnapshotDir: os.Getenv("LOCAL_SNAPSHOT_DIR"),
	}

	var missing []string
	if cfg.SpotifyClientID == "" {
		missing = append(missing, "SPOTIFY_CLIENT_ID")
	}
	if cfg.SpotifyClientSecret == "" {
		missing = append(missing, "SPOTIFY_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.ProcessedInitialDelay, err = durationOrDefault("PROCESSED_INITIAL_DELAY", DefaultProcessedInitialDelay); err != nil {
		return nil, err
	}
	if cfg.ProcessedPollInterval, err = durationOrDefault("PROCESSED_POLL_INTERVAL", DefaultProcessedPollInterval); err != nil {
		return nil, err
	}
	if cfg.ProcessedMaxWait, err = durationOrDefault("PROCESSED_MAX_WAIT", DefaultProcessedMaxWait); err != nil {
		return nil, err
	}

	if cfg.ProcessedPollInterval <= 0 {
		return nil, fmt.Errorf("PROCESSED_POLL_INTERVAL must be positive, got %s", cfg.ProcessedPollInterval)
	}
	if cfg.ProcessedMaxWait < cfg.ProcessedInitialDelay {
		return nil, fmt.Errorf("PROCESSED_MAX_WAIT (%s) must be at least PROCESSED_INITIAL_DELAY (%s)",
			cfg.ProcessedMaxWait, cfg.ProcessedInitialDelay)
	}

	return cfg, nil
}

// envOrDefault returns the environment variable value or a fallback if unset.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationOrDefault parses a duration environment variable ("5s", "1m30s").
func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}
