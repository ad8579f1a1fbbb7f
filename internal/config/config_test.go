package config

import (
	"strings"
	"testing"
	"time"
)

// setRequired sets the two required variables so Load can succeed.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SPOTIFY_CLIENT_ID", "test-client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "test-client-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.SpotifyRedirectURI != DefaultRedirectURI {
		t.Errorf("SpotifyRedirectURI = %q, want %q", cfg.SpotifyRedirectURI, DefaultRedirectURI)
	}
	if cfg.SpotifyScope != DefaultScope {
		t.Errorf("SpotifyScope = %q, want %q", cfg.SpotifyScope, DefaultScope)
	}
	if cfg.RawBucket != DefaultRawBucket {
		t.Errorf("RawBucket = %q, want %q", cfg.RawBucket, DefaultRawBucket)
	}
	if cfg.ProcessedBucket != DefaultProcessedBucket {
		t.Errorf("ProcessedBucket = %q, want %q", cfg.ProcessedBucket, DefaultProcessedBucket)
	}
	if cfg.AWSRegion != DefaultRegion {
		t.Errorf("AWSRegion = %q, want %q", cfg.AWSRegion, DefaultRegion)
	}
	if cfg.ProcessedInitialDelay != DefaultProcessedInitialDelay {
		t.Errorf("ProcessedInitialDelay = %v, want %v", cfg.ProcessedInitialDelay, DefaultProcessedInitialDelay)
	}
	if cfg.ProcessedPollInterval != DefaultProcessedPollInterval {
		t.Errorf("ProcessedPollInterval = %v, want %v", cfg.ProcessedPollInterval, DefaultProcessedPollInterval)
	}
	if cfg.ProcessedMaxWait != DefaultProcessedMaxWait {
		t.Errorf("ProcessedMaxWait = %v, want %v", cfg.ProcessedMaxWait, DefaultProcessedMaxWait)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() error = nil, want error for missing credentials")
	}

	// Both missing variables should be named in one error.
	if !strings.Contains(err.Error(), "SPOTIFY_CLIENT_ID") {
		t.Errorf("error %q does not mention SPOTIFY_CLIENT_ID", err)
	}
	if !strings.Contains(err.Error(), "SPOTIFY_CLIENT_SECRET") {
		t.Errorf("error %q does not mention SPOTIFY_CLIENT_SECRET", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ADDR", "0.0.0.0:9000")
	t.Setenv("RAW_BUCKET", "my-raw-bucket")
	t.Setenv("PROCESSED_BUCKET", "my-processed-bucket")
	t.Setenv("PROCESSED_INITIAL_DELAY", "1s")
	t.Setenv("PROCESSED_POLL_INTERVAL", "500ms")
	t.Setenv("PROCESSED_MAX_WAIT", "10s")
	t.Setenv("LOCAL_SNAPSHOT_DIR", "/tmp/snapshots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != "0.0.0.0:9000" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, "0.0.0.0:9000")
	}
	if cfg.RawBucket != "my-raw-bucket" {
		t.Errorf("RawBucket = %q, want %q", cfg.RawBucket, "my-raw-bucket")
	}
	if cfg.ProcessedPollInterval != 500*time.Millisecond {
		t.Errorf("ProcessedPollInterval = %v, want 500ms", cfg.ProcessedPollInterval)
	}
	if cfg.LocalSnapshotDir != "/tmp/snapshots" {
		t.Errorf("LocalSnapshotDir = %q, want /tmp/snapshots", cfg.LocalSnapshotDir)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("PROCESSED_MAX_WAIT", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want parse error for PROCESSED_MAX_WAIT")
	}
}

func TestLoad_MaxWaitBelowInitialDelay(t *testing.T) {
	setRequired(t)
	t.Setenv("PROCESSED_INITIAL_DELAY", "10s")
	t.Setenv("PROCESSED_MAX_WAIT", "5s")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want error when max wait is below initial delay")
	}
}

// The single-check behaviour of the first version of this app is the
// degenerate configuration where max wait equals the initial delay.
func TestLoad_SingleCheckParity(t *testing.T) {
	setRequired(t)
	t.Setenv("PROCESSED_INITIAL_DELAY", "7s")
	t.Setenv("PROCESSED_MAX_WAIT", "7s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProcessedMaxWait != cfg.ProcessedInitialDelay {
		t.Errorf("ProcessedMaxWait = %v, want %v", cfg.ProcessedMaxWait, cfg.ProcessedInitialDelay)
	}
}
