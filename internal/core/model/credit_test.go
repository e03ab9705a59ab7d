package model

import (
	"testing"
	"time"
)

func TestStatusOf(t *testing.T) {
	type testCase struct {
		Balance        int64
		ExpectedStatus CreditStatus
	}

	testCases := []testCase{
		{Balance: 1000, ExpectedStatus: CreditStatusGood},
		{Balance: 51, ExpectedStatus: CreditStatusGood},
		{Balance: 50, ExpectedStatus: CreditStatusWarning},
		{Balance: 11, ExpectedStatus: CreditStatusWarning},
		{Balance: 10, ExpectedStatus: CreditStatusCritical},
		{Balance: 0, ExpectedStatus: CreditStatusCritical},
	}

	for _, tc := range testCases {
		if e, g := tc.ExpectedStatus, StatusOf(tc.Balance); e != g {
			t.Errorf("StatusOf(%d): expected '%v', got '%v'", tc.Balance, e, g)
		}
	}
}

func TestNewCreditTransaction(t *testing.T) {
	first := NewCreditTransaction("alice", TransactionKindUsage, 10, "search")
	second := NewCreditTransaction("alice", TransactionKindUsage, 10, "search")

	if first.ID() == second.ID() {
		t.Errorf("transaction identifiers should be unique, got '%s' twice", first.ID())
	}

	if e, g := int64(10), first.Amount(); e != g {
		t.Errorf("first.Amount(): expected '%v', got '%v'", e, g)
	}

	if first.CreatedAt().IsZero() {
		t.Errorf("first.CreatedAt() should not be zero value")
	}
}

func TestDailyPeriod(t *testing.T) {
	day := time.Date(2024, time.June, 1, 23, 59, 0, 0, time.UTC)

	if e, g := "2024-06-01", DailyPeriod(day); e != g {
		t.Errorf("DailyPeriod(): expected '%v', got '%v'", e, g)
	}
}
