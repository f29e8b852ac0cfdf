package saga

import (
	"fmt"
	"strings"
)

// CompensateFailure records a single compensate function that failed
// during an unwind.
type CompensateFailure struct {
	Step  string
	Index int
	Err   error
}

// Error implements the error interface for CompensateFailure.
func (f *CompensateFailure) Error() string {
	return fmt.Sprintf("compensate %q (step %d) failed: %v", f.Step, f.Index, f.Err)
}

// Unwrap returns the underlying compensate error.
func (f *CompensateFailure) Unwrap() error {
	return f.Err
}

// CompensationError aggregates the compensate failures of one unwind.
// Execute never returns it; it surfaces only through Rollback and through
// run reports, so a failing unwind cannot mask the original forward
// error.
type CompensationError struct {
	Failures []*CompensateFailure
}

func (e *CompensationError) addFailure(f *CompensateFailure) {
	e.Failures = append(e.Failures, f)
}

func (e *CompensationError) hasFailures() bool {
	return len(e.Failures) > 0
}

// Error implements the error interface for CompensationError.
func (e *CompensationError) Error() string {
	if !e.hasFailures() {
		return ""
	}

	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("error(s) in saga compensation: %s", strings.Join(msgs, "; "))
}
