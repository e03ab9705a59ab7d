package fetch

import (
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// RetryTransport replays requests answered with 429 Too Many Requests,
// waiting as instructed by the Retry-After or X-RateLimit-Reset headers.
type RetryTransport struct {
	Base        http.RoundTripper
	MaxRetries  int
	DefaultWait time.Duration
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.Base
	if transport == nil {
		transport = http.DefaultTransport
	}

	var (
		res *http.Response
		err error
	)

	for attempt := 0; attempt <= t.MaxRetries; attempt++ {
		res, err = transport.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		if res.StatusCode != http.StatusTooManyRequests || attempt == t.MaxRetries {
			return res, nil
		}

		io.Copy(io.Discard, res.Body)
		res.Body.Close()

		waitTime := t.getWaitTime(res)

		slog.WarnContext(req.Context(), "document source rate limited", slog.String("url", req.URL.String()), slog.Duration("wait_time", waitTime), slog.Int("attempt", attempt+1), slog.Int("max_retries", t.MaxRetries))

		timer := time.NewTimer(waitTime)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, errors.Wrap(err, "could not rewind request body")
			}
			req.Body = body
		} else if req.Body != nil && req.Body != http.NoBody {
			return nil, errors.New("cannot retry request with one-time reader body")
		}
	}

	return res, nil
}

func (t *RetryTransport) getWaitTime(res *http.Response) time.Duration {
	if retryAfter := res.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			wait := time.Duration(seconds) * time.Second
			jitter := time.Duration(rand.Float64() * float64(wait) / 2)
			return wait + jitter
		}

		if date, err := http.ParseTime(retryAfter); err == nil {
			if wait := time.Until(date); wait > 0 {
				return wait
			}
		}
	}

	if reset := res.Header.Get("X-RateLimit-Reset"); reset != "" {
		if timestamp, err := strconv.ParseInt(reset, 10, 64); err == nil {
			if wait := time.Until(time.Unix(timestamp, 0)); wait > 0 {
				return wait
			}
		}
	}

	return t.DefaultWait
}

var _ http.RoundTripper = &RetryTransport{}
