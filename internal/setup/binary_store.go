package setup

import (
	"context"

	"github.com/bornholm/casecache/internal/adapter/cache"
	"github.com/bornholm/casecache/internal/config"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/pkg/errors"
)

var getBinaryStoreFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.BinaryStore, error) {
	store, err := getStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if conf.Cache.Memory.Entries <= 0 {
		return store, nil
	}

	return cache.NewBinaryStore(store, conf.Cache.Memory.Entries, conf.Cache.Memory.TTL), nil
})
