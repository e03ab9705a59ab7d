package model

import (
	"time"

	"github.com/rs/xid"
)

// SubjectID identifies the account a balance belongs to.
type SubjectID string

type TransactionID string

func NewTransactionID() TransactionID {
	return TransactionID(xid.New().String())
}

type TransactionKind string

const (
	TransactionKindPurchase TransactionKind = "purchase"
	TransactionKindUsage    TransactionKind = "usage"
)

type CreditTransaction interface {
	WithID[TransactionID]

	Subject() SubjectID
	Kind() TransactionKind
	// Amount is always positive, the direction is given by Kind.
	Amount() int64
	Description() string
	CreatedAt() time.Time
}

type BaseCreditTransaction struct {
	id          TransactionID
	subject     SubjectID
	kind        TransactionKind
	amount      int64
	description string
	createdAt   time.Time
}

// ID implements CreditTransaction.
func (t *BaseCreditTransaction) ID() TransactionID {
	return t.id
}

// Subject implements CreditTransaction.
func (t *BaseCreditTransaction) Subject() SubjectID {
	return t.subject
}

// Kind implements CreditTransaction.
func (t *BaseCreditTransaction) Kind() TransactionKind {
	return t.kind
}

// Amount implements CreditTransaction.
func (t *BaseCreditTransaction) Amount() int64 {
	return t.amount
}

// Description implements CreditTransaction.
func (t *BaseCreditTransaction) Description() string {
	return t.description
}

// CreatedAt implements CreditTransaction.
func (t *BaseCreditTransaction) CreatedAt() time.Time {
	return t.createdAt
}

var _ CreditTransaction = &BaseCreditTransaction{}

func NewCreditTransaction(subject SubjectID, kind TransactionKind, amount int64, description string) *BaseCreditTransaction {
	return &BaseCreditTransaction{
		id:          NewTransactionID(),
		subject:     subject,
		kind:        kind,
		amount:      amount,
		description: description,
		createdAt:   time.Now().UTC(),
	}
}

type CreditStatus string

const (
	CreditStatusGood     CreditStatus = "good"
	CreditStatusWarning  CreditStatus = "warning"
	CreditStatusCritical CreditStatus = "critical"
)

const (
	// Balances strictly above this threshold are in good health
	GoodBalanceThreshold int64 = 50
	// Balances at or below this threshold are critical
	CriticalBalanceThreshold int64 = 10
)

func StatusOf(balance int64) CreditStatus {
	switch {
	case balance > GoodBalanceThreshold:
		return CreditStatusGood
	case balance > CriticalBalanceThreshold:
		return CreditStatusWarning
	default:
		return CreditStatusCritical
	}
}
