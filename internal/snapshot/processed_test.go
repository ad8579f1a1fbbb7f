package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// fastPoll keeps fetcher tests quick while exercising the real poll loop.
func fastPoll() PollConfig {
	return PollConfig{
		InitialDelay: time.Millisecond,
		Interval:     time.Millisecond,
		MaxWait:      50 * time.Millisecond,
	}
}

func storedProcessed(t *testing.T) []byte {
	t.Helper()
	snap := ProcessedSnapshot{
		Genres:          Genres{Labels: []string{"pop", "rock"}, Sizes: []float64{60, 40}},
		MainstreamScore: 72.34,
		DayVsNight:      DayVsNight{DayPercent: 30, NightPercent: 70},
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshalling fixture: %v", err)
	}
	return data
}

func TestProcessedFetcher_Fetch(t *testing.T) {
	rawKey := "raw/user_spotify_data_20240309_140530_ab12cd34.json"
	processedKey := "processed/user_spotify_data_20240309_140530_ab12cd34.processed.json"

	store := newFakeStore()
	store.objects["processed-bucket/"+processedKey] = storedProcessed(t)

	f := NewProcessedFetcher(store, "processed-bucket", fastPoll(), testLogger())

	snap, err := f.Fetch(context.Background(), rawKey)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if snap.MainstreamScore != 72.34 {
		t.Errorf("MainstreamScore = %v, want 72.34", snap.MainstreamScore)
	}
	if len(snap.Genres.Labels) != 2 || snap.Genres.Labels[0] != "pop" {
		t.Errorf("Genres.Labels = %v, want [pop rock]", snap.Genres.Labels)
	}
}

func TestProcessedFetcher_PollsUntilObjectAppears(t *testing.T) {
	rawKey := "raw/foo.json"

	store := newFakeStore()
	store.objects["processed-bucket/processed/foo.processed.json"] = storedProcessed(t)
	store.getMissUntil = 3 // first three lookups miss

	f := NewProcessedFetcher(store, "processed-bucket", fastPoll(), testLogger())

	if _, err := f.Fetch(context.Background(), rawKey); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if store.getCalls != 4 {
		t.Errorf("store.Get called %d times, want 4", store.getCalls)
	}
}

func TestProcessedFetcher_Exhaustion(t *testing.T) {
	store := newFakeStore() // object never appears

	f := NewProcessedFetcher(store, "processed-bucket", fastPoll(), testLogger())

	_, err := f.Fetch(context.Background(), "raw/foo.json")
	if !errors.Is(err, ErrProcessedUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrProcessedUnavailable", err)
	}
	if store.getCalls < 2 {
		t.Errorf("store.Get called %d times, want repeated polling", store.getCalls)
	}
}

func TestProcessedFetcher_SingleCheckParity(t *testing.T) {
	store := newFakeStore()

	// MaxWait == InitialDelay reproduces the original one-shot check.
	poll := PollConfig{
		InitialDelay: time.Millisecond,
		Interval:     time.Millisecond,
		MaxWait:      time.Millisecond,
	}
	f := NewProcessedFetcher(store, "processed-bucket", poll, testLogger())

	_, err := f.Fetch(context.Background(), "raw/foo.json")
	if !errors.Is(err, ErrProcessedUnavailable) {
		t.Fatalf("Fetch() error = %v, want ErrProcessedUnavailable", err)
	}
	if store.getCalls != 1 {
		t.Errorf("store.Get called %d times, want exactly 1", store.getCalls)
	}
}

func TestProcessedFetcher_MalformedJSON(t *testing.T) {
	store := newFakeStore()
	store.objects["processed-bucket/processed/foo.processed.json"] = []byte("{not json")

	f := NewProcessedFetcher(store, "processed-bucket", fastPoll(), testLogger())

	_, err := f.Fetch(context.Background(), "raw/foo.json")
	if !errors.Is(err, ErrProcessedUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrProcessedUnavailable for malformed body", err)
	}
}

func TestProcessedFetcher_StorageFailure(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("access denied")

	f := NewProcessedFetcher(store, "processed-bucket", fastPoll(), testLogger())

	_, err := f.Fetch(context.Background(), "raw/foo.json")
	if !errors.Is(err, ErrProcessedUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrProcessedUnavailable for storage failure", err)
	}
	if store.getCalls != 1 {
		t.Errorf("store.Get called %d times, want 1 (no retry on hard failure)", store.getCalls)
	}
}

func TestProcessedFetcher_ContextCancelled(t *testing.T) {
	store := newFakeStore()

	poll := fastPoll()
	poll.InitialDelay = time.Hour // cancellation must win the initial wait

	f := NewProcessedFetcher(store, "processed-bucket", poll, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "raw/foo.json")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
	if store.getCalls != 0 {
		t.Errorf("store.Get called %d times after cancellation, want 0", store.getCalls)
	}
}

func TestProcessedFetcher_BadRawKey(t *testing.T) {
	f := NewProcessedFetcher(newFakeStore(), "processed-bucket", fastPoll(), testLogger())

	_, err := f.Fetch(context.Background(), "not-a-raw-key")
	if err == nil {
		t.Fatal("Fetch() error = nil, want derivation error")
	}
	// A malformed key is a caller bug, not a missing object.
	if errors.Is(err, ErrProcessedUnavailable) {
		t.Errorf("Fetch() error = %v, should not be ErrProcessedUnavailable", err)
	}
}
