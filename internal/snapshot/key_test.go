package snapshot

import (
	"strings"
	"testing"
	"time"
)

func TestRawKey(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 30, 0, time.UTC)
	key := RawKey(ts, "ab12cd34")

	want := "raw/user_spotify_data_20240309_140530_ab12cd34.json"
	if key != want {
		t.Errorf("RawKey() = %q, want %q", key, want)
	}
}

func TestNewKeySuffix(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := NewKeySuffix()
		if len(s) != 8 {
			t.Fatalf("NewKeySuffix() = %q, want 8 characters", s)
		}
		if seen[s] {
			t.Fatalf("NewKeySuffix() repeated %q", s)
		}
		seen[s] = true
	}
}

func TestDeriveProcessedKey(t *testing.T) {
	tests := []struct {
		name    string
		rawKey  string
		want    string
		wantErr bool
	}{
		{
			name:   "simple key",
			rawKey: "raw/foo.json",
			want:   "processed/foo.processed.json",
		},
		{
			name:   "snapshot key",
			rawKey: "raw/user_spotify_data_20240309_140530_ab12cd34.json",
			want:   "processed/user_spotify_data_20240309_140530_ab12cd34.processed.json",
		},
		{
			name:    "missing raw prefix",
			rawKey:  "staging/foo.json",
			wantErr: true,
		},
		{
			name:    "missing json suffix",
			rawKey:  "raw/foo.txt",
			wantErr: true,
		},
		{
			name:    "empty object name",
			rawKey:  "raw/.json",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveProcessedKey(tt.rawKey)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DeriveProcessedKey(%q) = %q, want error", tt.rawKey, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveProcessedKey(%q) error = %v", tt.rawKey, err)
			}
			if got != tt.want {
				t.Errorf("DeriveProcessedKey(%q) = %q, want %q", tt.rawKey, got, tt.want)
			}
		})
	}
}

// Applying the derivation to its own output must fail: the prefix is no
// longer raw/, so the transform cannot cascade.
func TestDeriveProcessedKey_NotReapplicable(t *testing.T) {
	derived, err := DeriveProcessedKey("raw/foo.json")
	if err != nil {
		t.Fatalf("DeriveProcessedKey() error = %v", err)
	}

	if _, err := DeriveProcessedKey(derived); err == nil {
		t.Errorf("DeriveProcessedKey(%q) succeeded, want error on second application", derived)
	}
}

func TestDeriveProcessedKey_MatchesRawKey(t *testing.T) {
	key := RawKey(time.Now(), NewKeySuffix())
	derived, err := DeriveProcessedKey(key)
	if err != nil {
		t.Fatalf("DeriveProcessedKey(%q) error = %v", key, err)
	}
	if !strings.HasPrefix(derived, "processed/") || !strings.HasSuffix(derived, ".processed.json") {
		t.Errorf("derived key %q has wrong shape", derived)
	}
}
