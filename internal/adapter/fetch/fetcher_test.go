package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bornholm/casecache/internal/core/port"
	"github.com/pkg/errors"
)

func newTestServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var throttled atomic.Int64

	mux := http.NewServeMux()

	mux.HandleFunc("/cases/1.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4\n"))
	})

	mux.HandleFunc("/cases/large.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	})

	mux.HandleFunc("/cases/broken.pdf", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	mux.HandleFunc("/cases/throttled.pdf", func(w http.ResponseWriter, r *http.Request) {
		if throttled.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		w.Write([]byte("finally"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, &throttled
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return u
}

func TestFetcher(t *testing.T) {
	server, throttled := newTestServer(t)
	fetcher := NewFetcher(WithMaxSize(1024), WithMaxRetries(2))
	ctx := context.Background()

	type testCase struct {
		Path  string
		Check func(t *testing.T, data []byte, err error)
	}

	testCases := []testCase{
		{
			Path: "/cases/1.pdf",
			Check: func(t *testing.T, data []byte, err error) {
				if err != nil {
					t.Fatalf("%+v", errors.WithStack(err))
				}

				if e, g := "%PDF-1.4\n", string(data); e != g {
					t.Errorf("data: expected '%v', got '%v'", e, g)
				}
			},
		},
		{
			Path: "/cases/missing.pdf",
			Check: func(t *testing.T, data []byte, err error) {
				if !errors.Is(err, port.ErrNotFound) {
					t.Errorf("expected port.ErrNotFound, got '%+v'", err)
				}

				if !errors.Is(err, port.ErrFetchFailed) {
					t.Errorf("expected port.ErrFetchFailed, got '%+v'", err)
				}
			},
		},
		{
			Path: "/cases/broken.pdf",
			Check: func(t *testing.T, data []byte, err error) {
				if !errors.Is(err, port.ErrFetchFailed) {
					t.Errorf("expected port.ErrFetchFailed, got '%+v'", err)
				}

				if errors.Is(err, port.ErrNotFound) {
					t.Errorf("server error must not be reported as not found")
				}
			},
		},
		{
			Path: "/cases/large.pdf",
			Check: func(t *testing.T, data []byte, err error) {
				if !errors.Is(err, port.ErrFetchFailed) {
					t.Errorf("expected port.ErrFetchFailed, got '%+v'", err)
				}
			},
		},
		{
			Path: "/cases/throttled.pdf",
			Check: func(t *testing.T, data []byte, err error) {
				if err != nil {
					t.Fatalf("%+v", errors.WithStack(err))
				}

				if e, g := "finally", string(data); e != g {
					t.Errorf("data: expected '%v', got '%v'", e, g)
				}

				if e, g := int64(2), throttled.Load(); e != g {
					t.Errorf("throttled requests: expected '%v', got '%v'", e, g)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Path, func(t *testing.T) {
			data, err := fetcher.Fetch(ctx, mustParseURL(t, server.URL+tc.Path))
			tc.Check(t, data, err)
		})
	}
}

func TestFetcherUnsupportedScheme(t *testing.T) {
	fetcher := NewFetcher()

	_, err := fetcher.Fetch(context.Background(), mustParseURL(t, "file:///etc/passwd"))
	if !errors.Is(err, port.ErrFetchFailed) {
		t.Errorf("expected port.ErrFetchFailed, got '%+v'", err)
	}
}

func TestFetcherCanceled(t *testing.T) {
	server, _ := newTestServer(t)
	fetcher := NewFetcher(WithRateLimit(time.Hour, 1))

	ctx, cancel := context.WithCancel(context.Background())

	// Consumes the only token
	if _, err := fetcher.Fetch(ctx, mustParseURL(t, server.URL+"/cases/1.pdf")); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	cancel()

	if _, err := fetcher.Fetch(ctx, mustParseURL(t, server.URL+"/cases/1.pdf")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got '%+v'", err)
	}
}
