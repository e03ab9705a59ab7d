package probe

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/pkg/errors"
)

// HTTPSignal reports the host as online as long as the probe URL answers a
// HEAD request, whatever the response status.
type HTTPSignal struct {
	url      *url.URL
	interval time.Duration
	client   *http.Client
}

// Watch implements port.ConnectivitySignal.
func (s *HTTPSignal) Watch(ctx context.Context) (<-chan model.ConnectivityState, error) {
	if s.interval <= 0 {
		return nil, errors.Errorf("invalid probe interval '%s'", s.interval)
	}

	states := make(chan model.ConnectivityState)

	go func() {
		defer close(states)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			state := s.probe(ctx)

			select {
			case <-ctx.Done():
				return
			case states <- state:
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return states, nil
}

func (s *HTTPSignal) probe(ctx context.Context) model.ConnectivityState {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url.String(), nil)
	if err != nil {
		slog.ErrorContext(ctx, "could not create probe request", slog.Any("error", errors.WithStack(err)))
		return model.Offline
	}

	res, err := s.client.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "connectivity probe failed", slog.String("url", s.url.String()), slog.Any("error", err))
		return model.Offline
	}

	res.Body.Close()

	return model.Online
}

func NewHTTPSignal(u *url.URL, interval time.Duration, timeout time.Duration) *HTTPSignal {
	return &HTTPSignal{
		url:      u,
		interval: interval,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ port.ConnectivitySignal = &HTTPSignal{}
