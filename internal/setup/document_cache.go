package setup

import (
	"context"

	"github.com/bornholm/casecache/internal/config"
	"github.com/bornholm/casecache/internal/core/service"
	"github.com/pkg/errors"
)

var NewDocumentCacheFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.DocumentCache, error) {
	store, err := getBinaryStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create binary store from config")
	}

	fetcher, err := getFetcherFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create fetcher from config")
	}

	observer, err := NewConnectivityObserverFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create connectivity observer from config")
	}

	documentCache := service.NewDocumentCache(store, fetcher, observer,
		service.WithDocumentCacheMaxSize(int64(conf.Cache.MaxSize)),
	)

	return documentCache, nil
})
