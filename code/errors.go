package code

import (
	"errors"
	"fmt"
	"time"
)

// ErrWorkerCrashed reports that the interpreter process died or broke the
// wire protocol mid-execution. The namespace is retired and rebuilt on the
// next call.
var ErrWorkerCrashed = errors.New("code: worker process crashed")

// PolicyViolationError is returned when the static scan rejects code before
// it reaches the interpreter. The namespace is guaranteed unchanged.
type PolicyViolationError struct {
	Symbol string
	Level  SecurityLevel
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("code: policy violation: %q is not allowed at security level %s", e.Symbol, e.Level)
}

// TimeoutError is returned when execution exceeded its wall-clock budget and
// the interpreter's process group was killed.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("code: execution exceeded %s and was killed", e.Limit)
}

// RuntimeError carries a Python exception raised by the executed code. The
// namespace keeps whatever mutations happened before the raise.
type RuntimeError struct {
	Message   string
	Traceback string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("code: runtime error: %s", e.Message)
}

// NoCodeFoundError is returned when a Request carried only a Source message
// and no fenced code block could be extracted from it.
type NoCodeFoundError struct{}

func (e *NoCodeFoundError) Error() string {
	return "code: no code block found in message"
}
