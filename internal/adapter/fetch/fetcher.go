package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bornholm/casecache/internal/core/port"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

type Options struct {
	Timeout     time.Duration
	MaxSize     int64
	Interval    time.Duration
	MaxBurst    int
	MaxRetries  int
	DefaultWait time.Duration
	UserAgent   string
	Transport   http.RoundTripper
}

type OptionFunc func(opts *Options)

func WithTimeout(timeout time.Duration) OptionFunc {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithMaxSize sets the maximum accepted payload size, in bytes. Zero or
// less disables the limit.
func WithMaxSize(maxSize int64) OptionFunc {
	return func(opts *Options) {
		opts.MaxSize = maxSize
	}
}

// WithRateLimit allows one request per interval with the given burst. A zero
// interval disables client side rate limiting.
func WithRateLimit(interval time.Duration, maxBurst int) OptionFunc {
	return func(opts *Options) {
		opts.Interval = interval
		opts.MaxBurst = maxBurst
	}
}

func WithMaxRetries(maxRetries int) OptionFunc {
	return func(opts *Options) {
		opts.MaxRetries = maxRetries
	}
}

func WithUserAgent(userAgent string) OptionFunc {
	return func(opts *Options) {
		opts.UserAgent = userAgent
	}
}

func WithTransport(transport http.RoundTripper) OptionFunc {
	return func(opts *Options) {
		opts.Transport = transport
	}
}

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Timeout:     time.Minute,
		MaxSize:     100 * humanize.MByte,
		Interval:    0,
		MaxBurst:    1,
		MaxRetries:  3,
		DefaultWait: 5 * time.Second,
		UserAgent:   "casecache",
		Transport:   http.DefaultTransport,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// Fetcher retrieves documents over HTTP(S).
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	maxSize   int64
	userAgent string
}

// Fetch implements port.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.WithStack(&port.FetchError{URL: u.String(), Err: errors.Errorf("unsupported scheme '%s'", u.Scheme)})
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.WithStack(&port.FetchError{URL: u.String(), Err: err})
	}

	req.Header.Set("User-Agent", f.userAgent)

	res, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.WithStack(ctxErr)
		}

		return nil, errors.WithStack(&port.FetchError{URL: u.String(), Err: err})
	}

	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		return nil, errors.WithStack(&port.FetchError{URL: u.String(), Err: port.ErrNotFound})
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return nil, errors.WithStack(&port.FetchError{URL: u.String(), Err: fmt.Errorf("unexpected status '%s'", res.Status)})
	}

	if f.maxSize > 0 && res.ContentLength > f.maxSize {
		return nil, errors.WithStack(f.tooLarge(u, res.ContentLength))
	}

	var body io.Reader = res.Body
	if f.maxSize > 0 {
		body = io.LimitReader(res.Body, f.maxSize+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.WithStack(ctxErr)
		}

		return nil, errors.WithStack(&port.FetchError{URL: u.String(), Err: err})
	}

	if f.maxSize > 0 && int64(len(data)) > f.maxSize {
		return nil, errors.WithStack(f.tooLarge(u, int64(len(data))))
	}

	slog.DebugContext(ctx, "document fetched", slog.String("url", u.String()), slog.String("size", humanize.Bytes(uint64(len(data)))))

	return data, nil
}

func (f *Fetcher) tooLarge(u *url.URL, size int64) error {
	return &port.FetchError{
		URL: u.String(),
		Err: errors.Errorf("document exceeds maximum size of %s (at least %s)", humanize.Bytes(uint64(f.maxSize)), humanize.Bytes(uint64(size))),
	}
}

func NewFetcher(funcs ...OptionFunc) *Fetcher {
	opts := NewOptions(funcs...)

	var limiter *rate.Limiter
	if opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Interval), max(opts.MaxBurst, 1))
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &RetryTransport{
				Base:        opts.Transport,
				MaxRetries:  opts.MaxRetries,
				DefaultWait: opts.DefaultWait,
			},
		},
		limiter:   limiter,
		maxSize:   opts.MaxSize,
		userAgent: opts.UserAgent,
	}
}

var _ port.Fetcher = &Fetcher{}
