package query

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural failures recorded by fluent calls and for
// terminal outcomes. Compare with errors.Is.
var (
	// ErrInvalidArgumentCount is recorded when a filter method receives too few or too many arguments.
	ErrInvalidArgumentCount = errors.New("invalid number of arguments")

	// ErrUnsupportedOperator is recorded when an operator is outside the allow-list.
	ErrUnsupportedOperator = errors.New("invalid operator")

	// ErrInvalidOrderDirection is recorded when OrderBy receives anything but ASC or DESC.
	ErrInvalidOrderDirection = errors.New("invalid order direction")

	// ErrInvalidArgumentType is recorded when an argument has the right position but the wrong type.
	ErrInvalidArgumentType = errors.New("invalid argument type")

	// ErrUnsupportedJoinType is recorded when Join receives an unknown join kind.
	ErrUnsupportedJoinType = errors.New("invalid join type")

	// ErrEmptyPayload is returned by Create and Update when no columns are given.
	ErrEmptyPayload = errors.New("payload must contain at least one column")

	// ErrNoConnection is returned by terminal operations on a builder without a connector.
	ErrNoConnection = errors.New("builder has no connector")

	// ErrNotFound is returned by First and Find when the statement matched no rows.
	ErrNotFound = errors.New("no rows found")
)

// Execution phases reported by ExecutionError.
const (
	OpConnect    = "connect"
	OpQuery      = "query"
	OpDisconnect = "disconnect"
)

// ExecutionError reports a failure of the connector while running a rendered statement.
type ExecutionError struct {
	Op  string // connect, query or disconnect
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed during %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsExecutionFailure reports whether err came from the connector rather than from the builder.
func IsExecutionFailure(err error) bool {
	var execErr *ExecutionError
	return errors.As(err, &execErr)
}
