package gorm

import (
	"context"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/ncruces/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegisterAccount implements port.AccountRegistry.
func (s *Store) RegisterAccount(ctx context.Context, subject model.SubjectID, balance int64) error {
	if balance < 0 {
		return errors.WithStack(port.ErrInvalidAmount)
	}

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		account := &Account{
			Subject: string(subject),
			Balance: balance,
		}

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject"}},
			DoNothing: true,
		}).Create(account).Error
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// ReadBalance implements port.BalanceStore.
func (s *Store) ReadBalance(ctx context.Context, subject model.SubjectID) (int64, error) {
	var account Account

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.First(&account, "subject = ?", string(subject)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotAuthenticated)
			}

			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return account.Balance, nil
}

// WriteBalance implements port.BalanceStore.
func (s *Store) WriteBalance(ctx context.Context, subject model.SubjectID, balance int64) error {
	if balance < 0 {
		return errors.WithStack(port.ErrInvalidAmount)
	}

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		res := db.Model(&Account{}).Where("subject = ?", string(subject)).Update("balance", balance)
		if res.Error != nil {
			return errors.WithStack(res.Error)
		}

		if res.RowsAffected == 0 {
			return errors.WithStack(port.ErrNotAuthenticated)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// CommitTransaction implements port.TransactionalBalanceStore.
func (s *Store) CommitTransaction(ctx context.Context, previous, next int64, tx model.CreditTransaction) error {
	if next < 0 {
		return errors.WithStack(port.ErrInvalidAmount)
	}

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		res := db.Model(&Account{}).
			Where("subject = ? AND balance = ?", string(tx.Subject()), previous).
			Update("balance", next)
		if res.Error != nil {
			return errors.WithStack(res.Error)
		}

		if res.RowsAffected == 0 {
			var count int64
			if err := db.Model(&Account{}).Where("subject = ?", string(tx.Subject())).Count(&count).Error; err != nil {
				return errors.WithStack(err)
			}

			if count == 0 {
				return errors.WithStack(port.ErrNotAuthenticated)
			}

			return errors.WithStack(port.ErrBalanceConflict)
		}

		if err := db.Create(fromTransaction(tx)).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// AppendTransaction implements port.TransactionLog.
func (s *Store) AppendTransaction(ctx context.Context, tx model.CreditTransaction) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		var count int64
		if err := db.Model(&Account{}).Where("subject = ?", string(tx.Subject())).Count(&count).Error; err != nil {
			return errors.WithStack(err)
		}

		if count == 0 {
			return errors.WithStack(port.ErrNotAuthenticated)
		}

		if err := db.Create(fromTransaction(tx)).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// QueryTransactions implements port.TransactionLog.
func (s *Store) QueryTransactions(ctx context.Context, subject model.SubjectID, opts port.QueryTransactionsOptions) ([]model.CreditTransaction, error) {
	var transactions []*Transaction

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		query := db.Model(&Transaction{}).
			Where("subject = ?", string(subject)).
			Order("created_at DESC, id DESC")

		if opts.Kind != nil {
			query = query.Where("kind = ?", string(*opts.Kind))
		}

		if opts.Limit != nil {
			query = query.Limit(*opts.Limit)
		}

		if err := query.Find(&transactions).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	wrapped := make([]model.CreditTransaction, 0, len(transactions))
	for _, t := range transactions {
		wrapped = append(wrapped, &wrappedTransaction{t})
	}

	return wrapped, nil
}
