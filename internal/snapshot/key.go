package snapshot

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	rawPrefix       = "raw/"
	rawSuffix       = ".json"
	processedPrefix = "processed/"
	processedSuffix = ".processed.json"

	keyTimestampLayout = "20060102_150405"
)

// RawKey builds the storage key for a raw snapshot taken at ts. The random
// suffix keeps two extractions within the same wall-clock second from
// overwriting each other.
func RawKey(ts time.Time, suffix string) string {
	return fmt.Sprintf("%suser_spotify_data_%s_%s%s", rawPrefix, ts.Format(keyTimestampLayout), suffix, rawSuffix)
}

// NewKeySuffix returns a short random suffix for RawKey.
func NewKeySuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// DeriveProcessedKey maps a raw storage key to the key the external
// transformer writes its output under: raw/ becomes processed/ and .json
// becomes .processed.json. It is a pure string transform; keys that are not
// raw keys are rejected, so applying it to its own output fails.
func DeriveProcessedKey(rawKey string) (string, error) {
	name, ok := strings.CutPrefix(rawKey, rawPrefix)
	if !ok {
		return "", fmt.Errorf("key %q does not start with %q", rawKey, rawPrefix)
	}
	name, ok = strings.CutSuffix(name, rawSuffix)
	if !ok {
		return "", fmt.Errorf("key %q does not end with %q", rawKey, rawSuffix)
	}
	if name == "" {
		return "", fmt.Errorf("key %q has an empty object name", rawKey)
	}
	return processedPrefix + name + processedSuffix, nil
}
