package probe

import (
	"net/url"
	"time"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/bornholm/casecache/internal/setup"
	"github.com/pkg/errors"
)

func init() {
	setup.ConnectivitySignal.Register("http", createHTTPSignal)
	setup.ConnectivitySignal.Register("https", createHTTPSignal)
	setup.ConnectivitySignal.Register("static", createStaticSignal)
}

// createHTTPSignal handles uris like https://example.com/?probeInterval=30s&probeTimeout=5s.
// The probe* parameters are stripped from the probed url.
func createHTTPSignal(u *url.URL) (port.ConnectivitySignal, error) {
	query := u.Query()

	interval, err := parseDuration(query.Get("probeInterval"), 30*time.Second)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse 'probeInterval' parameter")
	}

	timeout, err := parseDuration(query.Get("probeTimeout"), 5*time.Second)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse 'probeTimeout' parameter")
	}

	query.Del("probeInterval")
	query.Del("probeTimeout")

	probed := *u
	probed.RawQuery = query.Encode()

	return NewHTTPSignal(&probed, interval, timeout), nil
}

// createStaticSignal handles uris like static://offline.
func createStaticSignal(u *url.URL) (port.ConnectivitySignal, error) {
	state := model.ConnectivityState(u.Host)

	switch state {
	case model.Online, model.Offline:
		return NewStaticSignal(state), nil
	default:
		return nil, errors.Errorf("unexpected static connectivity state '%s'", u.Host)
	}
}

func parseDuration(raw string, defaultValue time.Duration) (time.Duration, error) {
	if raw == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return d, nil
}
