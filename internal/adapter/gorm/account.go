package gorm

import (
	"time"

	"github.com/bornholm/casecache/internal/core/model"
)

type Account struct {
	Subject string `gorm:"primaryKey;autoIncrement:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Balance int64 `gorm:"not null;check:chk_accounts_balance,balance >= 0"`
}

type Transaction struct {
	ID string `gorm:"primaryKey;autoIncrement:false"`

	CreatedAt time.Time `gorm:"index"`

	Subject     string `gorm:"index;not null"`
	Kind        string `gorm:"not null"`
	Amount      int64  `gorm:"not null"`
	Description string
}

type wrappedTransaction struct {
	t *Transaction
}

// ID implements model.CreditTransaction.
func (w *wrappedTransaction) ID() model.TransactionID {
	return model.TransactionID(w.t.ID)
}

// Subject implements model.CreditTransaction.
func (w *wrappedTransaction) Subject() model.SubjectID {
	return model.SubjectID(w.t.Subject)
}

// Kind implements model.CreditTransaction.
func (w *wrappedTransaction) Kind() model.TransactionKind {
	return model.TransactionKind(w.t.Kind)
}

// Amount implements model.CreditTransaction.
func (w *wrappedTransaction) Amount() int64 {
	return w.t.Amount
}

// Description implements model.CreditTransaction.
func (w *wrappedTransaction) Description() string {
	return w.t.Description
}

// CreatedAt implements model.CreditTransaction.
func (w *wrappedTransaction) CreatedAt() time.Time {
	return w.t.CreatedAt
}

var _ model.CreditTransaction = &wrappedTransaction{}

func fromTransaction(t model.CreditTransaction) *Transaction {
	return &Transaction{
		ID:          string(t.ID()),
		CreatedAt:   t.CreatedAt(),
		Subject:     string(t.Subject()),
		Kind:        string(t.Kind()),
		Amount:      t.Amount(),
		Description: t.Description(),
	}
}
