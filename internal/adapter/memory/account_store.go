package memory

import (
	"context"
	"sync"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/pkg/errors"
)

// AccountStore keeps balances and transactions in memory. It does not
// provide atomic commits, callers must serialize their writes.
type AccountStore struct {
	balances     map[model.SubjectID]int64
	transactions []model.CreditTransaction
	mutex        sync.RWMutex
}

// RegisterAccount implements port.AccountRegistry.
func (s *AccountStore) RegisterAccount(ctx context.Context, subject model.SubjectID, balance int64) error {
	if balance < 0 {
		return errors.WithStack(port.ErrInvalidAmount)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.balances[subject]; exists {
		return nil
	}

	s.balances[subject] = balance

	return nil
}

// ReadBalance implements port.BalanceStore.
func (s *AccountStore) ReadBalance(ctx context.Context, subject model.SubjectID) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	balance, exists := s.balances[subject]
	if !exists {
		return 0, errors.WithStack(port.ErrNotAuthenticated)
	}

	return balance, nil
}

// WriteBalance implements port.BalanceStore.
func (s *AccountStore) WriteBalance(ctx context.Context, subject model.SubjectID, balance int64) error {
	if balance < 0 {
		return errors.WithStack(port.ErrInvalidAmount)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.balances[subject]; !exists {
		return errors.WithStack(port.ErrNotAuthenticated)
	}

	s.balances[subject] = balance

	return nil
}

// AppendTransaction implements port.TransactionLog.
func (s *AccountStore) AppendTransaction(ctx context.Context, tx model.CreditTransaction) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.balances[tx.Subject()]; !exists {
		return errors.WithStack(port.ErrNotAuthenticated)
	}

	s.transactions = append(s.transactions, tx)

	return nil
}

// QueryTransactions implements port.TransactionLog.
func (s *AccountStore) QueryTransactions(ctx context.Context, subject model.SubjectID, opts port.QueryTransactionsOptions) ([]model.CreditTransaction, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	transactions := make([]model.CreditTransaction, 0)

	for i := len(s.transactions) - 1; i >= 0; i-- {
		tx := s.transactions[i]

		if tx.Subject() != subject {
			continue
		}

		if opts.Kind != nil && tx.Kind() != *opts.Kind {
			continue
		}

		if opts.Limit != nil && len(transactions) >= *opts.Limit {
			break
		}

		transactions = append(transactions, tx)
	}

	return transactions, nil
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		balances:     make(map[model.SubjectID]int64),
		transactions: make([]model.CreditTransaction, 0),
	}
}

var (
	_ port.BalanceStore    = &AccountStore{}
	_ port.TransactionLog  = &AccountStore{}
	_ port.AccountRegistry = &AccountStore{}
)
