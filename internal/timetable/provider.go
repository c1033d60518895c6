package timetable

import (
	"context"
)

// Fetcher issues a GET and returns the decoded response body.
// Transport errors must wrap ErrFetchFailure.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// SecretProvider resolves the JSON API key.
// A missing or unreadable secret must wrap ErrCredentialMissing.
type SecretProvider interface {
	Secret(ctx context.Context) (SecretKey, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, rawURL string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) (string, error) {
	return f(ctx, rawURL)
}
