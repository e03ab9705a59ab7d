package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bornholm/casecache/internal/adapter/memory"
	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/pkg/errors"
)

func TestAccessGateAuthorize(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t, map[model.SubjectID]int64{"alice": 1})
	gate := NewAccessGate(ledger, memory.NewGrantStore())

	today := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	authorization, err := gate.Authorize(ctx, "case-law", model.DailyPeriod(today), "alice", 1, "daily case law access")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.DecisionAuthorized, authorization.Decision; e != g {
		t.Errorf("authorization.Decision: expected '%v', got '%v'", e, g)
	}

	authorization, err = gate.Authorize(ctx, "case-law", model.DailyPeriod(today), "alice", 1, "daily case law access")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.DecisionAlreadyAuthorized, authorization.Decision; e != g {
		t.Errorf("authorization.Decision: expected '%v', got '%v'", e, g)
	}

	if !authorization.Granted() {
		t.Errorf("expected authorization to be granted")
	}

	balance, err := ledger.Balance(ctx, "alice")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(0), balance; e != g {
		t.Errorf("balance: expected '%v', got '%v'", e, g)
	}

	authorization, err = gate.Authorize(ctx, "case-law", model.DailyPeriod(tomorrow), "alice", 1, "daily case law access")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.DecisionDenied, authorization.Decision; e != g {
		t.Fatalf("authorization.Decision: expected '%v', got '%v'", e, g)
	}

	var insufficient *port.InsufficientCreditsError
	if !errors.As(authorization.Reason, &insufficient) {
		t.Fatalf("expected *port.InsufficientCreditsError reason, got '%+v'", authorization.Reason)
	}

	if e, g := int64(1), insufficient.Required; e != g {
		t.Errorf("insufficient.Required: expected '%v', got '%v'", e, g)
	}

	if e, g := int64(0), insufficient.Available; e != g {
		t.Errorf("insufficient.Available: expected '%v', got '%v'", e, g)
	}
}

func TestAccessGateUnknownSubject(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t, nil)
	gate := NewAccessGate(ledger, memory.NewGrantStore())

	authorization, err := gate.Authorize(ctx, "case-law", "2026-03-14", "mallory", 1, "")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.DecisionDenied, authorization.Decision; e != g {
		t.Errorf("authorization.Decision: expected '%v', got '%v'", e, g)
	}

	if !errors.Is(authorization.Reason, port.ErrNotAuthenticated) {
		t.Errorf("expected port.ErrNotAuthenticated reason, got '%+v'", authorization.Reason)
	}

	if _, err := gate.Authorize(ctx, "case-law", "2026-03-14", "mallory", 0, ""); !errors.Is(err, port.ErrInvalidAmount) {
		t.Errorf("expected port.ErrInvalidAmount, got '%+v'", err)
	}
}

func TestAccessGateConcurrentAuthorize(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t, map[model.SubjectID]int64{"alice": 20})
	gate := NewAccessGate(ledger, memory.NewGrantStore())

	var (
		wg        sync.WaitGroup
		mutex     sync.Mutex
		decisions = map[model.Decision]int{}
	)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			authorization, err := gate.Authorize(ctx, "case-law", "2026-03-14", "alice", 5, "")
			if err != nil {
				t.Errorf("%+v", errors.WithStack(err))
				return
			}

			mutex.Lock()
			decisions[authorization.Decision]++
			mutex.Unlock()
		}()
	}

	wg.Wait()

	if e, g := 1, decisions[model.DecisionAuthorized]; e != g {
		t.Errorf("authorized decisions: expected '%v', got '%v'", e, g)
	}

	if e, g := 19, decisions[model.DecisionAlreadyAuthorized]; e != g {
		t.Errorf("already authorized decisions: expected '%v', got '%v'", e, g)
	}

	balance, err := ledger.Balance(ctx, "alice")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(15), balance; e != g {
		t.Errorf("balance: expected '%v', got '%v'", e, g)
	}
}

func TestAccessGatePrunesOldPeriods(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t, map[model.SubjectID]int64{"alice": 100})
	grants := memory.NewGrantStore()
	gate := NewAccessGate(ledger, grants, WithAccessGateRetention(3))

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for day := range 6 {
		if _, err := gate.Authorize(ctx, "case-law", model.DailyPeriod(start.AddDate(0, 0, day)), "alice", 1, ""); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	// Pruning happens before the new grant is saved, so one more period may
	// remain until the next authorization.
	for day, expected := range []bool{false, false, true, true, true, true} {
		exists, err := grants.GrantExists(ctx, "alice", "case-law", model.DailyPeriod(start.AddDate(0, 0, day)))
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		if e, g := expected, exists; e != g {
			t.Errorf("day %d: expected grant existence '%v', got '%v'", day, e, g)
		}
	}
}

func TestAccessGateChargesOncePerPeriod(t *testing.T) {
	type testCase struct {
		Name    string
		Periods []string
		Repeat  string
	}

	testCases := []testCase{
		{
			// "day-10" sorts before "day-2" as a string
			Name:    "NonSortableKeys",
			Periods: []string{"day-2", "day-3", "day-4", "day-5", "day-6", "day-7", "day-8", "day-9", "day-10"},
			Repeat:  "day-10",
		},
		{
			// Device clock moved back more than the retention window
			Name:    "BackdatedPeriod",
			Periods: []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06", "2026-03-07", "2026-03-08", "2026-03-09", "2026-02-20"},
			Repeat:  "2026-02-20",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := context.Background()
			ledger, _ := newTestLedger(t, map[model.SubjectID]int64{"alice": 100})
			gate := NewAccessGate(ledger, memory.NewGrantStore())

			for _, period := range tc.Periods {
				authorization, err := gate.Authorize(ctx, "page", period, "alice", 1, "")
				if err != nil {
					t.Fatalf("%+v", errors.WithStack(err))
				}

				if e, g := model.DecisionAuthorized, authorization.Decision; e != g {
					t.Fatalf("authorization.Decision for '%s': expected '%v', got '%v'", period, e, g)
				}
			}

			for range 3 {
				authorization, err := gate.Authorize(ctx, "page", tc.Repeat, "alice", 1, "")
				if err != nil {
					t.Fatalf("%+v", errors.WithStack(err))
				}

				if e, g := model.DecisionAlreadyAuthorized, authorization.Decision; e != g {
					t.Errorf("authorization.Decision for '%s': expected '%v', got '%v'", tc.Repeat, e, g)
				}
			}

			balance, err := ledger.Balance(ctx, "alice")
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := int64(100-len(tc.Periods)), balance; e != g {
				t.Errorf("balance: expected '%v', got '%v'", e, g)
			}
		})
	}
}

type failingGrantStore struct {
	port.GrantStore
}

func (s *failingGrantStore) SaveGrant(ctx context.Context, grant model.AccessGrant) error {
	return errors.WithStack(port.ErrStorageUnavailable)
}

func TestAccessGateGrantSaveFailure(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t, map[model.SubjectID]int64{"alice": 10})
	gate := NewAccessGate(ledger, &failingGrantStore{memory.NewGrantStore()})

	authorization, err := gate.Authorize(ctx, "case-law", "2026-03-14", "alice", 1, "")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.DecisionAuthorized, authorization.Decision; e != g {
		t.Errorf("authorization.Decision: expected '%v', got '%v'", e, g)
	}
}
