package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/daniyalk26/spotify-dashboard/internal/storage"
)

// ErrProcessedUnavailable is returned by Fetch when the processed object
// could not be obtained: not written yet within the wait budget, unreadable,
// or malformed. It is an expected outcome, not a failure: the external
// transformer gives no completion signal, so the caller renders every
// section's fallback and moves on.
var ErrProcessedUnavailable = errors.New("processed data unavailable")

// PollConfig bounds the wait for the external transformer. InitialDelay is
// how long to wait before the first lookup; the store is then polled every
// Interval until MaxWait has elapsed since Fetch was called. Setting MaxWait
// equal to InitialDelay reproduces the original single-check behaviour.
type PollConfig struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxWait      time.Duration
}

// ProcessedFetcher retrieves the analytics document derived from a raw
// snapshot.
type ProcessedFetcher struct {
	store  storage.ObjectStore
	bucket string
	poll   PollConfig
	logger *log.Logger
}

// NewProcessedFetcher creates a ProcessedFetcher reading from the given bucket.
func NewProcessedFetcher(store storage.ObjectStore, bucket string, poll PollConfig, logger *log.Logger) *ProcessedFetcher {
	return &ProcessedFetcher{
		store:  store,
		bucket: bucket,
		poll:   poll,
		logger: logger,
	}
}

// Fetch derives the processed key from rawKey and polls the store for it
// within the configured budget. It returns ErrProcessedUnavailable when the
// object never appears, cannot be read, or does not parse; the context error
// when the caller goes away; and a plain error only for a malformed rawKey.
func (f *ProcessedFetcher) Fetch(ctx context.Context, rawKey string) (*ProcessedSnapshot, error) {
	key, err := DeriveProcessedKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("deriving processed key: %w", err)
	}

	deadline := time.Now().Add(f.poll.MaxWait)

	if err := sleepCtx(ctx, f.poll.InitialDelay); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		data, err := f.store.Get(ctx, f.bucket, key)
		switch {
		case err == nil:
			var snap ProcessedSnapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				f.logger.Warn("processed object does not parse", "key", key, "err", err)
				return nil, fmt.Errorf("%w: decoding %s: %w", ErrProcessedUnavailable, key, err)
			}
			f.logger.Info("fetched processed snapshot", "key", key, "attempts", attempt)
			return &snap, nil

		case errors.Is(err, storage.ErrObjectNotFound):
			// Transformer hasn't written yet; keep polling until the budget
			// runs out.

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err

		default:
			f.logger.Warn("processed fetch failed", "key", key, "err", err)
			return nil, fmt.Errorf("%w: %w", ErrProcessedUnavailable, err)
		}

		if !time.Now().Add(f.poll.Interval).Before(deadline) {
			f.logger.Info("processed snapshot not ready", "key", key, "attempts", attempt, "waited", f.poll.MaxWait)
			return nil, fmt.Errorf("%w: %s not written within %s", ErrProcessedUnavailable, key, f.poll.MaxWait)
		}
		if err := sleepCtx(ctx, f.poll.Interval); err != nil {
			return nil, err
		}
	}
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
