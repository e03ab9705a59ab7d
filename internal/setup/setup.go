package setup

import (
	"context"
	"sync"

	"github.com/bornholm/casecache/internal/config"
	"github.com/pkg/errors"
)

// createFromConfigOnce memoizes the result of the given factory. Failures
// are not memoized.
func createFromConfigOnce[T any](factory func(ctx context.Context, conf *config.Config) (T, error)) func(ctx context.Context, conf *config.Config) (T, error) {
	var (
		value   T
		created bool
		mutex   sync.Mutex
	)

	return func(ctx context.Context, conf *config.Config) (T, error) {
		mutex.Lock()
		defer mutex.Unlock()

		if created {
			return value, nil
		}

		v, err := factory(ctx, conf)
		if err != nil {
			return v, errors.WithStack(err)
		}

		value = v
		created = true

		return value, nil
	}
}
