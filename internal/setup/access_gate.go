package setup

import (
	"context"

	"github.com/bornholm/casecache/internal/config"
	"github.com/bornholm/casecache/internal/core/service"
	"github.com/pkg/errors"
)

var NewAccessGateFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.AccessGate, error) {
	ledger, err := NewCreditLedgerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create credit ledger from config")
	}

	store, err := getStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create store from config")
	}

	gate := service.NewAccessGate(ledger, store,
		service.WithAccessGateRetention(conf.Gate.Retention),
	)

	return gate, nil
})
