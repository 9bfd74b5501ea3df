// Package media stores supporting images for returns and exchanges and
// serves them back as URLs.
package media

import (
	"context"
	"io"
)

// Store is the narrow media-store contract the engine consumes.
type Store interface {
	// Save persists the content and returns its public URL.
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	// Delete removes the object behind a previously returned URL. Deleting
	// an unknown URL is not an error.
	Delete(ctx context.Context, url string) error
}
