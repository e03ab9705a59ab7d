package setup

import (
	"context"

	gormAdapter "github.com/bornholm/casecache/internal/adapter/gorm"
	"github.com/bornholm/casecache/internal/config"
	"github.com/pkg/errors"
)

var getStoreFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*gormAdapter.Store, error) {
	db, err := getGormDatabaseFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create database from config")
	}

	return gormAdapter.NewStore(db), nil
})

// NewAccountRegistryFromConfig returns the store used to open accounts.
func NewAccountRegistryFromConfig(ctx context.Context, conf *config.Config) (*gormAdapter.Store, error) {
	store, err := getStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return store, nil
}
