package setup

import (
	"context"

	"github.com/bornholm/casecache/internal/config"
	"github.com/bornholm/casecache/internal/core/service"
	"github.com/pkg/errors"
)

var NewCreditLedgerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.CreditLedger, error) {
	store, err := getStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create store from config")
	}

	return service.NewCreditLedger(store, store), nil
})
