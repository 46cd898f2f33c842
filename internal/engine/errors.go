package engine

import "fmt"

// ErrorCode categorizes engine failures.
type ErrorCode string

const (
	// ErrCodeApplyInFlight indicates another apply or rollback holds the
	// instance's commit lock.
	ErrCodeApplyInFlight ErrorCode = "APPLY_IN_FLIGHT"

	// ErrCodeEmptyQueue indicates apply was requested with nothing queued.
	ErrCodeEmptyQueue ErrorCode = "EMPTY_QUEUE"

	// ErrCodeBadCommand indicates a queued command could not be parsed
	// against the gateway CLI vocabulary.
	ErrCodeBadCommand ErrorCode = "BAD_COMMAND"

	// ErrCodeNotRollbackable indicates the target snapshot's
	// preconditions for safe reversal no longer hold.
	ErrCodeNotRollbackable ErrorCode = "NOT_ROLLBACKABLE"

	// ErrCodeRestoreFailed indicates the rollback restore itself failed:
	// the configuration may be half-applied. The one fatal state.
	ErrCodeRestoreFailed ErrorCode = "RESTORE_FAILED"
)

// Error is a structured engine failure.
type Error struct {
	Code     ErrorCode
	Message  string
	Instance string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Instance != "" {
		msg += fmt.Sprintf(" (instance=%s)", e.Instance)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, instance, message string) *Error {
	return &Error{Code: code, Message: message, Instance: instance}
}
