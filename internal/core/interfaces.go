package core

import (
	"context"
	"io"
)

// Catalog defines the interface for the movie catalog REST API.
type Catalog interface {
	// ListMovies fetches one page of movies matching the query
	ListMovies(ctx context.Context, q Query) (*Page, error)

	// UploadCSV posts a CSV file as a multipart form body
	UploadCSV(ctx context.Context, filename string, r io.Reader) (*UploadResult, error)
}

// Notifier receives failures reported by the list and upload controllers.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Frontend defines the interface for user-facing frontends (Telegram, MCP)
type Frontend interface {
	// Start starts the frontend and blocks until ctx is canceled
	Start(ctx context.Context) error

	// Name returns the frontend name (e.g., "telegram")
	Name() string
}
