// Package storage wraps the S3-compatible object store holding product images.
// Objects are served through a CDN; only upload, delete and URL derivation
// are needed here.
package storage

import (
	"context"
	"io"
)

// ObjectStore is the interface the rest of the app uses for media objects.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
