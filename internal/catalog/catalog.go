// Package catalog talks to the external hosted media API. The service owns
// the stored binaries and their metadata; this package only translates
// requests and responses and never caches beyond a single call.
package catalog

import (
	"context"
	"errors"
	"io"
)

// ErrUpstream wraps any failure of the external service.
var ErrUpstream = errors.New("catalog upstream failure")

// Entry is the external service's representation of one stored image.
type Entry struct {
	PublicID    string `json:"public_id"`
	Description string `json:"description"`
}

// Catalog is the narrow contract against the remote media service.
type Catalog interface {
	// List returns the most recent entries in the configured folder,
	// newest first, capped at the configured maximum. A missing
	// description on a remote entry maps to "".
	List(ctx context.Context) ([]Entry, error)

	// Upload stores the binary under the configured folder and returns
	// its public ID.
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)

	// AttachDescription sets the description metadata on a stored object.
	AttachDescription(ctx context.Context, publicID, description string) error
}
