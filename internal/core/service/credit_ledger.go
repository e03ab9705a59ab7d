package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/bornholm/casecache/internal/metrics"
	"github.com/bornholm/casecache/internal/workflow"
	"github.com/pkg/errors"
)

const defaultMaxCommitAttempts = 5

// CreditLedger debits and credits subjects balances. A debit never brings a
// balance below zero and every balance change is recorded as a transaction.
type CreditLedger struct {
	balances     port.BalanceStore
	transactions port.TransactionLog
	locks        keyedMutex[model.SubjectID]

	maxCommitAttempts int
}

// Sufficient returns true if the subject balance covers the given amount.
func (l *CreditLedger) Sufficient(ctx context.Context, subject model.SubjectID, amount int64) (bool, error) {
	if amount < 0 {
		return false, errors.WithStack(port.ErrInvalidAmount)
	}

	defer l.readLock(subject)()

	balance, err := l.balances.ReadBalance(ctx, subject)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return balance >= amount, nil
}

func (l *CreditLedger) Balance(ctx context.Context, subject model.SubjectID) (int64, error) {
	defer l.readLock(subject)()

	balance, err := l.balances.ReadBalance(ctx, subject)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return balance, nil
}

func (l *CreditLedger) Status(ctx context.Context, subject model.SubjectID) (model.CreditStatus, error) {
	defer l.readLock(subject)()

	balance, err := l.balances.ReadBalance(ctx, subject)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return model.StatusOf(balance), nil
}

// Debit withdraws amount from the subject balance. It fails with a
// *port.InsufficientCreditsError, leaving the balance untouched, if the
// balance does not cover the amount.
func (l *CreditLedger) Debit(ctx context.Context, subject model.SubjectID, amount int64, description string) (model.CreditTransaction, error) {
	if amount <= 0 {
		return nil, errors.WithStack(port.ErrInvalidAmount)
	}

	tx := model.NewCreditTransaction(subject, model.TransactionKindUsage, amount, description)

	err := l.commit(ctx, tx, func(balance int64) (int64, error) {
		if balance < amount {
			return 0, &port.InsufficientCreditsError{
				Required:  amount,
				Available: balance,
			}
		}

		return balance - amount, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, port.ErrInsufficientCredits):
			metrics.CreditRejections.WithLabelValues("insufficient_credits").Inc()
		case errors.Is(err, port.ErrNotAuthenticated):
			metrics.CreditRejections.WithLabelValues("not_authenticated").Inc()
		}

		return nil, errors.WithStack(err)
	}

	return tx, nil
}

// Credit adds amount to the subject balance.
func (l *CreditLedger) Credit(ctx context.Context, subject model.SubjectID, amount int64, description string) (model.CreditTransaction, error) {
	if amount <= 0 {
		return nil, errors.WithStack(port.ErrInvalidAmount)
	}

	tx := model.NewCreditTransaction(subject, model.TransactionKindPurchase, amount, description)

	err := l.commit(ctx, tx, func(balance int64) (int64, error) {
		if balance > math.MaxInt64-amount {
			return 0, errors.WithStack(port.ErrInvalidAmount)
		}

		return balance + amount, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return tx, nil
}

// History returns the most recent transactions of the subject, limit <= 0
// meaning no limit.
func (l *CreditLedger) History(ctx context.Context, subject model.SubjectID, limit int) ([]model.CreditTransaction, error) {
	defer l.readLock(subject)()

	if _, err := l.balances.ReadBalance(ctx, subject); err != nil {
		return nil, errors.WithStack(err)
	}

	opts := port.QueryTransactionsOptions{}
	if limit > 0 {
		opts.Limit = &limit
	}

	transactions, err := l.transactions.QueryTransactions(ctx, subject, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return transactions, nil
}

// readLock serializes reads with commits when the store does not commit
// balance and transaction together, so that a reader never observes one
// without the other. It returns the unlock func.
func (l *CreditLedger) readLock(subject model.SubjectID) func() {
	if _, isTransactional := l.balances.(port.TransactionalBalanceStore); isTransactional {
		return func() {}
	}

	return l.locks.Lock(subject)
}

// commit applies the balance change computed by apply and records tx. The
// balance is read again at commit time so that a check never relies on a
// stale value.
func (l *CreditLedger) commit(ctx context.Context, tx model.CreditTransaction, apply func(balance int64) (int64, error)) error {
	subject := tx.Subject()

	unlock := l.locks.Lock(subject)
	defer unlock()

	transactional, isTransactional := l.balances.(port.TransactionalBalanceStore)

	for attempt := 1; ; attempt++ {
		balance, err := l.balances.ReadBalance(ctx, subject)
		if err != nil {
			return errors.WithStack(err)
		}

		next, err := apply(balance)
		if err != nil {
			return errors.WithStack(err)
		}

		if isTransactional {
			err := transactional.CommitTransaction(ctx, balance, next, tx)
			if err != nil {
				if errors.Is(err, port.ErrBalanceConflict) && attempt < l.maxCommitAttempts {
					slog.DebugContext(ctx, "balance changed concurrently, retrying", slog.String("subject", string(subject)), slog.Int("attempt", attempt))
					continue
				}

				return errors.WithStack(err)
			}

			break
		}

		// Without store transactions, the balance is restored if the
		// transaction can not be recorded
		err = workflow.New(
			workflow.StepFunc(
				func(ctx context.Context) error {
					return errors.WithStack(l.balances.WriteBalance(ctx, subject, next))
				},
				func(ctx context.Context) error {
					return errors.WithStack(l.balances.WriteBalance(ctx, subject, balance))
				},
			),
			workflow.StepFunc(
				func(ctx context.Context) error {
					return errors.WithStack(l.transactions.AppendTransaction(ctx, tx))
				},
				nil,
			),
		).Execute(ctx)
		if err != nil {
			var compensationErr *workflow.CompensationError
			if errors.As(err, &compensationErr) {
				slog.ErrorContext(ctx, "could not restore balance after failed transaction",
					slog.String("subject", string(subject)),
					slog.Int64("balance", balance),
					slog.Any("error", err),
				)
			}

			return errors.WithStack(err)
		}

		break
	}

	metrics.CreditTransactions.WithLabelValues(string(tx.Kind())).Inc()

	return nil
}

// NewCreditLedger creates a ledger over the given stores. When balances also
// implements port.TransactionalBalanceStore, balance updates and transaction
// records are committed atomically by the store.
func NewCreditLedger(balances port.BalanceStore, transactions port.TransactionLog) *CreditLedger {
	return &CreditLedger{
		balances:          balances,
		transactions:      transactions,
		maxCommitAttempts: defaultMaxCommitAttempts,
	}
}
