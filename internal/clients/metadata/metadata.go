package metadata

import (
	"context"
	"errors"

	"cinelog/internal/database/models"
)

// Client is the interface for metadata providers. Implementations never
// retry on their own; the caller decides what a failure means.
type Client interface {
	Search(ctx context.Context, query string, kind models.MediaKind) ([]Summary, error)
	Discover(ctx context.Context, kind models.MediaKind, filters map[string]string) ([]Summary, error)
	Trending(ctx context.Context, kind models.MediaKind, window string) ([]Summary, error)
	Fetch(ctx context.Context, id int64, kind models.MediaKind) (*models.MediaItem, error)
}

// Sentinel errors for provider faults. Wrapped errors carry the detail;
// callers match with errors.Is.
var (
	// ErrUnavailable covers network faults, timeouts, cancellation and
	// non-2xx responses other than 404.
	ErrUnavailable = errors.New("metadata provider unavailable")
	// ErrNotFound means the provider has no entity for the given id.
	ErrNotFound = errors.New("metadata provider has no such item")
	// ErrInvalidQuery means the request was malformed before it left.
	ErrInvalidQuery = errors.New("invalid provider query")
)

// Summary is the picker-sized result shape for search/discover/trending.
type Summary struct {
	ID     int64            `json:"id"`
	Kind   models.MediaKind `json:"kind"`
	Title  string           `json:"title"`
	Year   int              `json:"year,omitempty"`
	Rating float64          `json:"rating,omitempty"`
}
