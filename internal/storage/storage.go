// Package storage provides object storage access for raw and processed snapshots.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Get when the key does not exist in the
// bucket. Callers use errors.Is to distinguish absence from a real failure.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the capability this application needs from object storage.
type ObjectStore interface {
	// Put writes body under bucket/key, overwriting any existing object.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error

	// Get returns the object body, or ErrObjectNotFound if the key is absent.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}
