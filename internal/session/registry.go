package session

import (
	"context"

	"github.com/fundlens/fundlens/pkg/types"
)

// Registry manages session lifecycle.
//
// Implementations must treat an expired session as nonexistent for reads,
// regardless of whether a sweep has run.
type Registry interface {
	// Touch creates the session if needed and slides its expiry forward.
	// An empty sessionID creates a session with a fresh ID. Touching an
	// expired session resurrects it as a brand new one: the old analysis
	// counter does not carry over.
	Touch(ctx context.Context, sessionID string) (*types.Session, error)

	// Get returns the live session and slides its expiry forward, the
	// same renewal a Touch performs. Missing or expired sessions yield a
	// not-found error.
	Get(ctx context.Context, sessionID string) (*types.Session, error)

	// IncrementAnalyses bumps the session's analysis counter.
	IncrementAnalyses(ctx context.Context, sessionID string) error

	// Delete removes the session and cascades to its analyses and
	// rankings. It returns the number of analyses removed. Deleting a
	// missing session is not an error.
	Delete(ctx context.Context, sessionID string) (int, error)

	// SweepExpired removes every expired session, cascading each one,
	// and returns how many sessions were removed.
	SweepExpired(ctx context.Context) (int, error)

	// ActiveCount returns the number of live sessions.
	ActiveCount(ctx context.Context) (int, error)

	// Close releases resources held by the registry.
	Close() error
}
