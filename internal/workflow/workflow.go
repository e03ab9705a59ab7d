package workflow

import (
	"context"

	"github.com/pkg/errors"
)

// Workflow executes steps in order. When a step fails, the steps completed
// before it are compensated in reverse order.
type Workflow struct {
	steps []Step
}

func (w *Workflow) Execute(ctx context.Context) error {
	for idx, step := range w.steps {
		if executionErr := step.Execute(ctx); executionErr != nil {
			if compensationErrs := w.compensate(ctx, idx-1); len(compensationErrs) > 0 {
				return errors.WithStack(NewCompensationError(executionErr, compensationErrs...))
			}

			return errors.WithStack(executionErr)
		}
	}

	return nil
}

func (w *Workflow) compensate(ctx context.Context, fromIndex int) []error {
	// Rollbacks must run even if the execution was canceled
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for idx := fromIndex; idx >= 0; idx-- {
		if err := w.steps[idx].Compensate(ctx); err != nil {
			errs = append(errs, errors.WithStack(err))
		}
	}

	return errs
}

func New(steps ...Step) *Workflow {
	return &Workflow{steps: steps}
}
