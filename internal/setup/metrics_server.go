package setup

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bornholm/casecache/internal/config"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartMetricsServerFromConfig serves the prometheus metrics until ctx is
// done. It does nothing if no address is configured.
func StartMetricsServerFromConfig(ctx context.Context, conf *config.Config) error {
	if conf.Metrics.Address == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              conf.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "could not shutdown metrics server", slog.Any("error", errors.WithStack(err)))
		}
	}()

	go func() {
		slog.InfoContext(ctx, "serving metrics", slog.String("address", conf.Metrics.Address))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "could not serve metrics", slog.Any("error", errors.WithStack(err)))
		}
	}()

	return nil
}
