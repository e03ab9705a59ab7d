package gorm

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/bornholm/casecache/internal/core/port/testsuite"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
)

func TestBinaryStore(t *testing.T) {
	testsuite.TestBinaryStore(t, func(t *testing.T) (port.BinaryStore, error) {
		return newTestStore(t)
	})
}

func TestAccountStore(t *testing.T) {
	testsuite.TestAccountStore(t, func(t *testing.T) (testsuite.AccountStore, error) {
		return newTestStore(t)
	})
}

func TestGrantStore(t *testing.T) {
	testsuite.TestGrantStore(t, func(t *testing.T) (port.GrantStore, error) {
		return newTestStore(t)
	})
}

func TestCommitTransaction(t *testing.T) {
	ctx := context.Background()

	store, err := newTestStore(t)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := store.RegisterAccount(ctx, "alice", 50); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	debit := model.NewCreditTransaction("alice", model.TransactionKindUsage, 10, "search")

	if err := store.CommitTransaction(ctx, 50, 40, debit); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	// The balance is now 40, committing against a stale balance must fail
	stale := model.NewCreditTransaction("alice", model.TransactionKindUsage, 10, "search")

	if err := store.CommitTransaction(ctx, 50, 40, stale); !errors.Is(err, port.ErrBalanceConflict) {
		t.Fatalf("expected port.ErrBalanceConflict, got '%+v'", err)
	}

	unknown := model.NewCreditTransaction("nobody", model.TransactionKindUsage, 10, "search")

	if err := store.CommitTransaction(ctx, 50, 40, unknown); !errors.Is(err, port.ErrNotAuthenticated) {
		t.Fatalf("expected port.ErrNotAuthenticated, got '%+v'", err)
	}

	balance, err := store.ReadBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(40), balance; e != g {
		t.Errorf("balance: expected '%v', got '%v'", e, g)
	}

	history, err := store.QueryTransactions(ctx, "alice", port.QueryTransactionsOptions{})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(history); e != g {
		t.Fatalf("len(history): expected '%v', got '%v'", e, g)
	}

	if e, g := debit.ID(), history[0].ID(); e != g {
		t.Errorf("history[0].ID(): expected '%v', got '%v'", e, g)
	}
}

func TestCommitTransactionConcurrent(t *testing.T) {
	ctx := context.Background()

	store, err := newTestStore(t)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := store.RegisterAccount(ctx, "alice", 5); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)

	// All writers observed the same balance, only one of them may win
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			tx := model.NewCreditTransaction("alice", model.TransactionKindUsage, 5, "download")

			err := store.CommitTransaction(ctx, 5, 0, tx)
			if err != nil {
				if !errors.Is(err, port.ErrBalanceConflict) {
					t.Errorf("unexpected error: %+v", err)
				}
				return
			}

			mu.Lock()
			committed++
			mu.Unlock()
		}()
	}

	wg.Wait()

	if e, g := 1, committed; e != g {
		t.Errorf("committed: expected '%v', got '%v'", e, g)
	}
}

func newTestStore(t *testing.T) (*Store, error) {
	dsn := filepath.Join(t.TempDir(), "test.sqlite")

	db, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	internalDB, err := db.DB()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	internalDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode=wal; PRAGMA foreign_keys=on; PRAGMA busy_timeout=5000").Error; err != nil {
		return nil, errors.WithStack(err)
	}

	t.Cleanup(func() {
		if err := internalDB.Close(); err != nil {
			t.Logf("could not close database: %+v", errors.WithStack(err))
		}
	})

	return NewStore(db), nil
}
