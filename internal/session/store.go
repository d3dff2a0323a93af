package session

import "context"

// Store persists training sessions.
//
// Writes use optimistic concurrency: Save succeeds only when the caller's
// Version matches the stored one, increments it, and reflects the new value
// on the passed session. A stale write returns [ErrConflict].
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Save inserts the session when Version is zero, otherwise updates it.
	// Returns [ErrConflict] when the stored version differs from the
	// session's, or when inserting while the client already has a session
	// in an active status (at most one active session per client).
	// Returns [ErrNotFound] when updating a session that does not exist.
	Save(ctx context.Context, s *TrainingSession) error

	// FindByID retrieves a session by ID.
	// Returns [ErrNotFound] when no session with that ID exists.
	FindByID(ctx context.Context, id string) (*TrainingSession, error)

	// FindActiveByClient returns the client's session in an active status
	// (INITIATED, AWAITING_AUDIO or PROCESSING).
	// Returns [ErrNotFound] when the client has no active session.
	FindActiveByClient(ctx context.Context, clientID string) (*TrainingSession, error)

	// FindAllByClient returns every session of the client, ordered by start
	// time ascending. The result is empty, not an error, for an unknown
	// client.
	FindAllByClient(ctx context.Context, clientID string) ([]*TrainingSession, error)
}
