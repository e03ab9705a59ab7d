package workflow

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

func TestWorkflowCompensatesCompletedSteps(t *testing.T) {
	ctx := context.Background()

	executed := make([]string, 0)
	compensated := make([]string, 0)

	record := func(name string, fail bool) Step {
		return StepFunc(
			func(ctx context.Context) error {
				executed = append(executed, name)
				if fail {
					return errors.New(name + " failed")
				}
				return nil
			},
			func(ctx context.Context) error {
				compensated = append(compensated, name)
				return nil
			},
		)
	}

	err := New(record("first", false), record("second", false), record("third", true), record("fourth", false)).Execute(ctx)
	if err == nil {
		t.Fatalf("expected an error")
	}

	if e, g := "third failed", errors.Cause(err).Error(); e != g {
		t.Errorf("errors.Cause(err): expected '%v', got '%v'", e, g)
	}

	if e, g := 3, len(executed); e != g {
		t.Errorf("len(executed): expected '%v', got '%v'", e, g)
	}

	if e, g := []string{"second", "first"}, compensated; len(e) != len(g) || e[0] != g[0] || e[1] != g[1] {
		t.Errorf("compensated: expected '%v', got '%v'", e, g)
	}
}

func TestWorkflowCompensationError(t *testing.T) {
	ctx := context.Background()
	errExecution := errors.New("execution failed")

	err := New(
		StepFunc(nil, func(ctx context.Context) error {
			return errors.New("rollback failed")
		}),
		StepFunc(func(ctx context.Context) error {
			return errExecution
		}, nil),
	).Execute(ctx)

	var compensationErr *CompensationError
	if !errors.As(err, &compensationErr) {
		t.Fatalf("expected *CompensationError, got '%+v'", err)
	}

	if e, g := 1, len(compensationErr.CompensationErrors()); e != g {
		t.Errorf("len(compensationErr.CompensationErrors()): expected '%v', got '%v'", e, g)
	}

	if !errors.Is(err, errExecution) {
		t.Errorf("expected execution error to be matched")
	}
}
