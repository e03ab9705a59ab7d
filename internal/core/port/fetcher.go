package port

import (
	"context"
	"net/url"
)

type Fetcher interface {
	// Fetch retrieves the full content of the resource. A resource known not
	// to exist must be reported with ErrNotFound.
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, u *url.URL) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	return f(ctx, u)
}
