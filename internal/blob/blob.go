// Package blob defines the object storage collaborator used for export
// downloads. The engine only puts bytes and asks for a signed, time-limited
// retrieval URL; bucket layout and retention belong to the storage service.
package blob

import (
	"context"
	"time"
)

// Storage is the object storage contract
type Storage interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
