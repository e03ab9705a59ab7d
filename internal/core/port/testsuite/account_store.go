package testsuite

import (
	"context"
	"testing"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

type AccountStore interface {
	port.BalanceStore
	port.TransactionLog
	port.AccountRegistry
}

func TestAccountStore(t *testing.T, factory func(t *testing.T) (AccountStore, error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store AccountStore) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "UnknownSubject",
			Run: func(t *testing.T, ctx context.Context, store AccountStore) error {
				if _, err := store.ReadBalance(ctx, "nobody"); !errors.Is(err, port.ErrNotAuthenticated) {
					t.Errorf("store.ReadBalance(\"nobody\"): expected port.ErrNotAuthenticated, got '%+v'", err)
				}

				if err := store.WriteBalance(ctx, "nobody", 10); !errors.Is(err, port.ErrNotAuthenticated) {
					t.Errorf("store.WriteBalance(\"nobody\"): expected port.ErrNotAuthenticated, got '%+v'", err)
				}

				return nil
			},
		},
		{
			Name: "RegisterReadWrite",
			Run: func(t *testing.T, ctx context.Context, store AccountStore) error {
				if err := store.RegisterAccount(ctx, "alice", 50); err != nil {
					return errors.WithStack(err)
				}

				// Registering twice must not reset the balance
				if err := store.WriteBalance(ctx, "alice", 40); err != nil {
					return errors.WithStack(err)
				}

				if err := store.RegisterAccount(ctx, "alice", 50); err != nil {
					return errors.WithStack(err)
				}

				balance, err := store.ReadBalance(ctx, "alice")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(40), balance; e != g {
					t.Errorf("store.ReadBalance(\"alice\"): expected '%v', got '%v'", e, g)
				}

				return nil
			},
		},
		{
			Name: "TransactionHistory",
			Run: func(t *testing.T, ctx context.Context, store AccountStore) error {
				if err := store.RegisterAccount(ctx, "alice", 0); err != nil {
					return errors.WithStack(err)
				}

				if err := store.RegisterAccount(ctx, "bob", 0); err != nil {
					return errors.WithStack(err)
				}

				txs := []model.CreditTransaction{
					model.NewCreditTransaction("alice", model.TransactionKindPurchase, 50, "purchase"),
					model.NewCreditTransaction("alice", model.TransactionKindUsage, 10, "search"),
					model.NewCreditTransaction("bob", model.TransactionKindUsage, 5, "download"),
					model.NewCreditTransaction("alice", model.TransactionKindUsage, 3, "view"),
				}

				for _, tx := range txs {
					if err := store.AppendTransaction(ctx, tx); err != nil {
						return errors.WithStack(err)
					}
				}

				history, err := store.QueryTransactions(ctx, "alice", port.QueryTransactionsOptions{})
				if err != nil {
					return errors.WithStack(err)
				}

				t.Logf("history: %s", spew.Sdump(history))

				if e, g := 3, len(history); e != g {
					t.Fatalf("len(history): expected '%v', got '%v'", e, g)
				}

				if e, g := txs[3].ID(), history[0].ID(); e != g {
					t.Errorf("history[0].ID(): expected '%v', got '%v'", e, g)
				}

				if e, g := "view", history[0].Description(); e != g {
					t.Errorf("history[0].Description(): expected '%v', got '%v'", e, g)
				}

				limit := 1
				usage := model.TransactionKindUsage

				filtered, err := store.QueryTransactions(ctx, "alice", port.QueryTransactionsOptions{
					Limit: &limit,
					Kind:  &usage,
				})
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 1, len(filtered); e != g {
					t.Fatalf("len(filtered): expected '%v', got '%v'", e, g)
				}

				if e, g := model.TransactionKindUsage, filtered[0].Kind(); e != g {
					t.Errorf("filtered[0].Kind(): expected '%v', got '%v'", e, g)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := context.Background()

			store, err := factory(t)
			if err != nil {
				t.Fatalf("could not create store: %+v", errors.WithStack(err))
			}

			if err := tc.Run(t, ctx, store); err != nil {
				t.Fatalf("could not run test: %+v", errors.WithStack(err))
			}
		})
	}
}
