package port

import (
	"context"

	"github.com/bornholm/casecache/internal/core/model"
)

// BalanceStore gives access to the balance owned by the identity provider.
// Unknown subjects must be reported with ErrNotAuthenticated.
type BalanceStore interface {
	ReadBalance(ctx context.Context, subject model.SubjectID) (int64, error)
	WriteBalance(ctx context.Context, subject model.SubjectID, balance int64) error
}

type QueryTransactionsOptions struct {
	Limit *int
	Kind  *model.TransactionKind
}

// TransactionLog is the append-only history of credit transactions.
type TransactionLog interface {
	AppendTransaction(ctx context.Context, tx model.CreditTransaction) error
	// QueryTransactions returns the transactions of a subject, most recent first.
	QueryTransactions(ctx context.Context, subject model.SubjectID, opts QueryTransactionsOptions) ([]model.CreditTransaction, error)
}

// TransactionalBalanceStore is implemented by stores able to update a balance
// and append the matching transaction in a single atomic commit.
type TransactionalBalanceStore interface {
	BalanceStore
	TransactionLog

	// CommitTransaction sets the subject balance to next and appends tx, only
	// if the current balance still equals previous. Otherwise it returns
	// ErrBalanceConflict and nothing is written.
	CommitTransaction(ctx context.Context, previous, next int64, tx model.CreditTransaction) error
}

// AccountRegistry creates the account of an authenticated subject.
type AccountRegistry interface {
	// RegisterAccount creates the account with the given initial balance.
	// Registering an existing subject leaves its balance untouched.
	RegisterAccount(ctx context.Context, subject model.SubjectID, balance int64) error
}
