package decision

import "errors"

var (
	// ErrCapacityExceeded is returned when the decision pool is full.
	// Callers get it immediately; nothing is queued.
	ErrCapacityExceeded = errors.New("decision capacity exceeded")

	// ErrTerminalAction marks an action failure that must not be retried,
	// such as content validation or authorization.
	ErrTerminalAction = errors.New("terminal action failure")
)
