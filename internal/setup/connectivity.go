package setup

import (
	"context"
	"log/slog"
	"time"

	"github.com/bornholm/casecache/internal/config"
	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/bornholm/casecache/internal/core/service"
	"github.com/pkg/errors"
)

var ConnectivitySignal = NewRegistry[port.ConnectivitySignal]()

const firstSignalTimeout = 10 * time.Second

// NewConnectivityObserverFromConfig creates the observer and, when a probe is
// configured, watches it until ctx is done.
var NewConnectivityObserverFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.ConnectivityObserver, error) {
	observer := service.NewConnectivityObserver()

	if conf.Connectivity.Offline {
		observer.Notify(ctx, model.Offline)
		return observer, nil
	}

	if conf.Connectivity.ProbeURI == "" {
		return observer, nil
	}

	signal, err := ConnectivitySignal.From(conf.Connectivity.ProbeURI)
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve connectivity signal for uri '%s'", conf.Connectivity.ProbeURI)
	}

	go func() {
		backoff := time.Second
		for {
			start := time.Now()
			if err := observer.Watch(ctx, signal); err != nil {
				slog.ErrorContext(ctx, "error while watching connectivity", slog.Any("error", errors.WithStack(err)))
			}

			if ctx.Err() != nil {
				return
			}

			time.Sleep(backoff)
			if time.Since(start) > backoff/2 {
				backoff = time.Second
			} else {
				backoff *= 2
			}
		}
	}()

	// Short lived commands must see the probed state, not the default one
	select {
	case <-observer.Signaled():
	case <-ctx.Done():
	case <-time.After(firstSignalTimeout):
		slog.WarnContext(ctx, "no connectivity signal received yet, assuming host is online")
	}

	return observer, nil
})
