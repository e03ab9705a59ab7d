package service

import (
	"context"
	"log/slog"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/bornholm/casecache/internal/metrics"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
)

type Ledger interface {
	Sufficient(ctx context.Context, subject model.SubjectID, amount int64) (bool, error)
	Debit(ctx context.Context, subject model.SubjectID, amount int64, description string) (model.CreditTransaction, error)
	Balance(ctx context.Context, subject model.SubjectID) (int64, error)
}

type AccessGateOptions struct {
	// Number of most recent periods kept per gate
	Retention int
}

type AccessGateOptionFunc func(opts *AccessGateOptions)

func WithAccessGateRetention(retention int) AccessGateOptionFunc {
	return func(opts *AccessGateOptions) {
		opts.Retention = retention
	}
}

func NewAccessGateOptions(funcs ...AccessGateOptionFunc) *AccessGateOptions {
	opts := &AccessGateOptions{
		Retention: 7,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// AccessGate charges a subject at most once per gate and period.
type AccessGate struct {
	ledger    Ledger
	grants    port.GrantStore
	retention int
	locks     keyedMutex[grantKey]
}

type grantKey struct {
	Subject model.SubjectID
	GateKey string
}

// Authorize grants access to the gate for the given period, debiting cost
// credits the first time only. Denials are reported through the returned
// authorization, the error being reserved to invalid arguments and storage
// failures.
func (g *AccessGate) Authorize(ctx context.Context, gateKey string, periodKey string, subject model.SubjectID, cost int64, description string) (model.Authorization, error) {
	if cost <= 0 {
		return model.Authorization{}, errors.WithStack(port.ErrInvalidAmount)
	}

	ctx = slogx.WithAttrs(ctx,
		slog.String("subject", string(subject)),
		slog.String("gateKey", gateKey),
		slog.String("periodKey", periodKey),
	)

	unlock := g.locks.Lock(grantKey{Subject: subject, GateKey: gateKey})
	defer unlock()

	g.prune(ctx, subject, gateKey, periodKey)

	exists, err := g.grants.GrantExists(ctx, subject, gateKey, periodKey)
	if err != nil {
		return model.Authorization{}, errors.WithStack(err)
	}

	if exists {
		return g.decide(ctx, model.Authorization{Decision: model.DecisionAlreadyAuthorized}), nil
	}

	sufficient, err := g.ledger.Sufficient(ctx, subject, cost)
	if err != nil {
		return g.deny(ctx, subject, cost, err)
	}

	if !sufficient {
		return g.deny(ctx, subject, cost, port.ErrInsufficientCredits)
	}

	// The debit checks the balance again, concurrent spendings may happen
	// since Sufficient() returned
	if _, err := g.ledger.Debit(ctx, subject, cost, description); err != nil {
		return g.deny(ctx, subject, cost, err)
	}

	grant := model.NewAccessGrant(subject, gateKey, periodKey)
	if err := g.grants.SaveGrant(ctx, grant); err != nil {
		// The subject has been charged, the access can not be denied anymore
		slog.WarnContext(ctx, "could not record access grant", slogx.Error(errors.WithStack(err)))
	}

	return g.decide(ctx, model.Authorization{Decision: model.DecisionAuthorized}), nil
}

// deny converts expected ledger failures to a denied authorization. Other
// errors are returned as is.
func (g *AccessGate) deny(ctx context.Context, subject model.SubjectID, cost int64, err error) (model.Authorization, error) {
	switch {
	case errors.Is(err, port.ErrNotAuthenticated):
		return g.decide(ctx, model.Authorization{
			Decision: model.DecisionDenied,
			Reason:   port.ErrNotAuthenticated,
		}), nil

	case errors.Is(err, port.ErrInsufficientCredits):
		var insufficient *port.InsufficientCreditsError
		if !errors.As(err, &insufficient) {
			available, balanceErr := g.ledger.Balance(ctx, subject)
			if balanceErr != nil {
				return model.Authorization{}, errors.WithStack(balanceErr)
			}

			insufficient = &port.InsufficientCreditsError{Required: cost, Available: available}
		}

		return g.decide(ctx, model.Authorization{
			Decision: model.DecisionDenied,
			Reason:   insufficient,
		}), nil

	default:
		return model.Authorization{}, errors.WithStack(err)
	}
}

func (g *AccessGate) decide(ctx context.Context, authorization model.Authorization) model.Authorization {
	metrics.GateDecisions.WithLabelValues(string(authorization.Decision)).Inc()

	slog.DebugContext(ctx, "access gate decision", slog.String("decision", string(authorization.Decision)))

	return authorization
}

func (g *AccessGate) prune(ctx context.Context, subject model.SubjectID, gateKey string, periodKey string) {
	if g.retention <= 0 {
		return
	}

	pruned, err := g.grants.PruneGrants(ctx, subject, gateKey, g.retention, periodKey)
	if err != nil {
		slog.WarnContext(ctx, "could not prune access grants", slogx.Error(errors.WithStack(err)))
		return
	}

	if pruned > 0 {
		slog.DebugContext(ctx, "access grants pruned", slog.Int64("pruned", pruned))
	}
}

func NewAccessGate(ledger Ledger, grants port.GrantStore, funcs ...AccessGateOptionFunc) *AccessGate {
	opts := NewAccessGateOptions(funcs...)

	return &AccessGate{
		ledger:    ledger,
		grants:    grants,
		retention: opts.Retention,
	}
}
