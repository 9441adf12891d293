// Package blob holds byte storage for uploaded files, keyed by relative path.
package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// Store is an opaque content store. Delete of a missing path is not an error.
type Store interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) (int64, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
}

// HealthChecker is implemented by stores that can report whether their
// backend is reachable.
type HealthChecker interface {
	CheckConnection(ctx context.Context) error
}

// Check runs the store's health check. Stores without one are reported healthy.
func Check(ctx context.Context, s Store) error {
	if hc, ok := s.(HealthChecker); ok {
		return hc.CheckConnection(ctx)
	}
	return nil
}
