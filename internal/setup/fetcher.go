package setup

import (
	"context"

	"github.com/bornholm/casecache/internal/adapter/fetch"
	"github.com/bornholm/casecache/internal/build"
	"github.com/bornholm/casecache/internal/config"
	"github.com/bornholm/casecache/internal/core/port"
)

var getFetcherFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.Fetcher, error) {
	fetcher := fetch.NewFetcher(
		fetch.WithTimeout(conf.Fetcher.Timeout),
		fetch.WithMaxSize(int64(conf.Fetcher.MaxSize)),
		fetch.WithRateLimit(conf.Fetcher.RateLimit, conf.Fetcher.Burst),
		fetch.WithMaxRetries(conf.Fetcher.MaxRetries),
		fetch.WithUserAgent(AppName+"/"+build.ShortVersion),
	)

	return fetcher, nil
})
