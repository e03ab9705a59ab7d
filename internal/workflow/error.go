package workflow

import (
	"strconv"
	"strings"
)

// CompensationError reports a failed step whose completed predecessors could
// not all be rolled back.
type CompensationError struct {
	executionErr     error
	compensationErrs []error
}

func (e *CompensationError) ExecutionError() error {
	return e.executionErr
}

func (e *CompensationError) CompensationErrors() []error {
	return e.compensationErrs
}

func (e *CompensationError) Error() string {
	var sb strings.Builder

	sb.WriteString("execution error '")
	sb.WriteString(e.executionErr.Error())
	sb.WriteString("' could not be compensated: ")

	for idx, err := range e.compensationErrs {
		if idx > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString("[")
		sb.WriteString(strconv.Itoa(idx))
		sb.WriteString("] ")
		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Unwrap exposes the execution error, so that callers can still match it.
func (e *CompensationError) Unwrap() error {
	return e.executionErr
}

func NewCompensationError(executionErr error, compensationErrs ...error) *CompensationError {
	return &CompensationError{
		executionErr:     executionErr,
		compensationErrs: compensationErrs,
	}
}

var _ error = &CompensationError{}
