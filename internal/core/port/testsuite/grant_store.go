package testsuite

import (
	"context"
	"fmt"
	"testing"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/pkg/errors"
)

func TestGrantStore(t *testing.T, factory func(t *testing.T) (port.GrantStore, error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store port.GrantStore) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "SaveAndExists",
			Run: func(t *testing.T, ctx context.Context, store port.GrantStore) error {
				exists, err := store.GrantExists(ctx, "alice", "case-laws", "2024-06-01")
				if err != nil {
					return errors.WithStack(err)
				}

				if exists {
					t.Errorf("grant should not exist yet")
				}

				grant := model.NewAccessGrant("alice", "case-laws", "2024-06-01")

				if err := store.SaveGrant(ctx, grant); err != nil {
					return errors.WithStack(err)
				}

				// Saving twice is a no-op
				if err := store.SaveGrant(ctx, grant); err != nil {
					return errors.WithStack(err)
				}

				exists, err = store.GrantExists(ctx, "alice", "case-laws", "2024-06-01")
				if err != nil {
					return errors.WithStack(err)
				}

				if !exists {
					t.Errorf("grant should exist")
				}

				for _, other := range [][3]string{
					{"bob", "case-laws", "2024-06-01"},
					{"alice", "judgments", "2024-06-01"},
					{"alice", "case-laws", "2024-06-02"},
				} {
					exists, err := store.GrantExists(ctx, model.SubjectID(other[0]), other[1], other[2])
					if err != nil {
						return errors.WithStack(err)
					}

					if exists {
						t.Errorf("grant %v should not exist", other)
					}
				}

				return nil
			},
		},
		{
			Name: "Prune",
			Run: func(t *testing.T, ctx context.Context, store port.GrantStore) error {
				for day := 1; day <= 10; day++ {
					period := fmt.Sprintf("2024-06-%02d", day)

					if err := store.SaveGrant(ctx, model.NewAccessGrant("alice", "case-laws", period)); err != nil {
						return errors.WithStack(err)
					}

					if err := store.SaveGrant(ctx, model.NewAccessGrant("alice", "judgments", period)); err != nil {
						return errors.WithStack(err)
					}
				}

				pruned, err := store.PruneGrants(ctx, "alice", "case-laws", 7, "")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(3), pruned; e != g {
					t.Errorf("pruned: expected '%v', got '%v'", e, g)
				}

				for day := 1; day <= 10; day++ {
					period := fmt.Sprintf("2024-06-%02d", day)

					exists, err := store.GrantExists(ctx, "alice", "case-laws", period)
					if err != nil {
						return errors.WithStack(err)
					}

					if e, g := day > 3, exists; e != g {
						t.Errorf("case-laws grant for '%s': expected exists=%v, got %v", period, e, g)
					}

					exists, err = store.GrantExists(ctx, "alice", "judgments", period)
					if err != nil {
						return errors.WithStack(err)
					}

					if !exists {
						t.Errorf("judgments grant for '%s' should not have been pruned", period)
					}
				}

				pruned, err = store.PruneGrants(ctx, "alice", "case-laws", 7, "")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(0), pruned; e != g {
					t.Errorf("second prune: expected '%v', got '%v'", e, g)
				}

				return nil
			},
		},
		{
			Name: "PruneByCreationOrder",
			Run: func(t *testing.T, ctx context.Context, store port.GrantStore) error {
				// "day-10" sorts before "day-2" as a string
				for day := 1; day <= 10; day++ {
					if err := store.SaveGrant(ctx, model.NewAccessGrant("alice", "page", fmt.Sprintf("day-%d", day))); err != nil {
						return errors.WithStack(err)
					}
				}

				pruned, err := store.PruneGrants(ctx, "alice", "page", 7, "")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(3), pruned; e != g {
					t.Errorf("pruned: expected '%v', got '%v'", e, g)
				}

				for day := 1; day <= 10; day++ {
					period := fmt.Sprintf("day-%d", day)

					exists, err := store.GrantExists(ctx, "alice", "page", period)
					if err != nil {
						return errors.WithStack(err)
					}

					if e, g := day > 3, exists; e != g {
						t.Errorf("grant for '%s': expected exists=%v, got %v", period, e, g)
					}
				}

				return nil
			},
		},
		{
			Name: "PruneKeepsBackdatedPeriod",
			Run: func(t *testing.T, ctx context.Context, store port.GrantStore) error {
				for day := 1; day <= 10; day++ {
					if err := store.SaveGrant(ctx, model.NewAccessGrant("alice", "case-laws", fmt.Sprintf("2024-06-%02d", day))); err != nil {
						return errors.WithStack(err)
					}
				}

				// Device clock moved back
				if err := store.SaveGrant(ctx, model.NewAccessGrant("alice", "case-laws", "2024-05-20")); err != nil {
					return errors.WithStack(err)
				}

				pruned, err := store.PruneGrants(ctx, "alice", "case-laws", 7, "2024-05-20")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(4), pruned; e != g {
					t.Errorf("pruned: expected '%v', got '%v'", e, g)
				}

				exists, err := store.GrantExists(ctx, "alice", "case-laws", "2024-05-20")
				if err != nil {
					return errors.WithStack(err)
				}

				if !exists {
					t.Errorf("backdated grant should not have been pruned")
				}

				exists, err = store.GrantExists(ctx, "alice", "case-laws", "2024-06-04")
				if err != nil {
					return errors.WithStack(err)
				}

				if exists {
					t.Errorf("grant for '2024-06-04' should have been pruned")
				}

				return nil
			},
		},
		{
			Name: "PruneSparesPeriod",
			Run: func(t *testing.T, ctx context.Context, store port.GrantStore) error {
				for day := 1; day <= 10; day++ {
					if err := store.SaveGrant(ctx, model.NewAccessGrant("alice", "page", fmt.Sprintf("day-%d", day))); err != nil {
						return errors.WithStack(err)
					}
				}

				pruned, err := store.PruneGrants(ctx, "alice", "page", 7, "day-2")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(2), pruned; e != g {
					t.Errorf("pruned: expected '%v', got '%v'", e, g)
				}

				exists, err := store.GrantExists(ctx, "alice", "page", "day-2")
				if err != nil {
					return errors.WithStack(err)
				}

				if !exists {
					t.Errorf("spared grant should not have been pruned")
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
