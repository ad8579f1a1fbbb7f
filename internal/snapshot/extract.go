package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"

	"github.com/daniyalk26/spotify-dashboard/internal/storage"
)

// recentWindow is how far back the recently-played fetch reaches.
const recentWindow = 7 * 24 * time.Hour

// ErrExtraction marks a failed extraction. Any provider call failing aborts
// the whole snapshot; nothing partial is ever stored.
var ErrExtraction = errors.New("extraction failed")

// Provider is the capability the Extractor needs from the Spotify client.
// *spotify.Client (internal/spotify) satisfies it; tests use fakes.
type Provider interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	TopArtists(ctx context.Context) (*spotify.FullArtistPage, error)
	TopTracks(ctx context.Context) (*spotify.FullTrackPage, error)
	RecentlyPlayedAfter(ctx context.Context, after time.Time) ([]spotify.RecentlyPlayedItem, error)
}

// Extractor assembles a RawSnapshot from the provider and records it in
// object storage.
type Extractor struct {
	store  storage.ObjectStore
	bucket string
	logger *log.Logger

	// localDir, when non-empty, additionally writes the document to disk the
	// way the first version of this app did. A failed local write is logged
	// and does not abort the upload.
	localDir string

	now       func() time.Time
	newSuffix func() string
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLocalDir enables writing a local copy of each raw snapshot.
func WithLocalDir(dir string) ExtractorOption {
	return func(e *Extractor) { e.localDir = dir }
}

// WithClock overrides the extraction clock. Used in tests.
func WithClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) { e.now = now }
}

// WithKeySuffix overrides the random key suffix source. Used in tests.
func WithKeySuffix(fn func() string) ExtractorOption {
	return func(e *Extractor) { e.newSuffix = fn }
}

// NewExtractor creates an Extractor uploading to the given bucket.
func NewExtractor(store storage.ObjectStore, bucket string, logger *log.Logger, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		store:     store,
		bucket:    bucket,
		logger:    logger,
		now:       time.Now,
		newSuffix: NewKeySuffix,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the user's profile, all-time top artists and tracks, and
// the last seven days of play events, then uploads the combined document
// pretty-printed to the raw bucket. It returns the snapshot and its storage
// key. Provider failures wrap ErrExtraction and abort before anything is
// stored.
func (e *Extractor) Extract(ctx context.Context, provider Provider) (*RawSnapshot, string, error) {
	extractedAt := e.now()

	user, err := provider.CurrentUser(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetching profile: %w", ErrExtraction, err)
	}

	artists, err := provider.TopArtists(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetching top artists: %w", ErrExtraction, err)
	}

	tracks, err := provider.TopTracks(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetching top tracks: %w", ErrExtraction, err)
	}

	cutoff := extractedAt.Add(-recentWindow)
	recent, err := provider.RecentlyPlayedAfter(ctx, cutoff)
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetching recently played: %w", ErrExtraction, err)
	}

	snap := &RawSnapshot{
		UserID:         user.ID,
		DisplayName:    user.DisplayName,
		TopArtistsLong: artists,
		TopTracksLong:  tracks,
		RecentlyPlayed: filterSince(recent, cutoff),
	}
	if snap.UserID == "" {
		snap.UserID = "unknown_user"
	}
	if snap.DisplayName == "" {
		snap.DisplayName = "Unknown"
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("%w: encoding snapshot: %w", ErrExtraction, err)
	}

	key := RawKey(extractedAt, e.newSuffix())

	if e.localDir != "" {
		path := filepath.Join(e.localDir, filepath.Base(key))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			e.logger.Warn("writing local snapshot copy", "path", path, "err", err)
		}
	}

	if err := e.store.Put(ctx, e.bucket, key, body, "application/json"); err != nil {
		return nil, "", fmt.Errorf("uploading raw snapshot: %w", err)
	}

	e.logger.Info("uploaded raw snapshot",
		"bucket", e.bucket, "key", key, "user", snap.UserID, "bytes", len(body))

	return snap, key, nil
}

// filterSince keeps play events at or after the cutoff. The Web API already
// takes an "after" parameter, but the boundary is enforced here as well so an
// event exactly at the cutoff is always included and nothing older slips in.
func filterSince(items []spotify.RecentlyPlayedItem, cutoff time.Time) []spotify.RecentlyPlayedItem {
	kept := make([]spotify.RecentlyPlayedItem, 0, len(items))
	for _, item := range items {
		if !item.PlayedAt.Before(cutoff) {
			kept = append(kept, item)
		}
	}
	return kept
}
