package session

import "errors"

// ErrNotFound is returned when the requested session, client or specialist
// does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned on missing or unresolvable input. Operations
// returning it have no side effect.
var ErrValidation = errors.New("invalid request")

// ErrInvalidState is returned when an operation is not valid for the
// session's current status. The session is left unchanged.
var ErrInvalidState = errors.New("operation not valid for current session state")

// ErrConflict is returned when a concurrent modification won the race: the
// caller's view of the session is stale and the write was rejected.
var ErrConflict = errors.New("session modified concurrently")
