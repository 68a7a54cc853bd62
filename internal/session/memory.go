package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fundlens/fundlens/internal/store"
	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

// MemoryRegistry implements Registry with an in-process map.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]*types.Session
	analyses store.Store
	ttl      time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryRegistry creates an in-memory registry that cascades deletes
// through the given analysis store.
func NewMemoryRegistry(cfg Config, analyses store.Store) *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[string]*types.Session),
		analyses: analyses,
		ttl:      cfg.ttl(),
		now:      time.Now,
	}
}

// Touch creates or refreshes the session, sliding its expiry forward.
func (r *MemoryRegistry) Touch(ctx context.Context, sessionID string) (*types.Session, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	r.mu.Lock()
	now := r.now()
	sess, ok := r.sessions[sessionID]
	resurrected := ok && sess.Expired(now)
	if resurrected {
		delete(r.sessions, sessionID)
		ok = false
	}
	if !ok {
		sess = &types.Session{
			ID:        sessionID,
			CreatedAt: now,
		}
		r.sessions[sessionID] = sess
	}
	sess.LastActivity = now
	sess.ExpiresAt = now.Add(r.ttl)
	out := *sess
	r.mu.Unlock()

	// A resurrected session must not see the previous incarnation's data.
	if resurrected {
		if _, err := r.analyses.DeleteBySession(ctx, sessionID); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// Get returns the live session, sliding its expiry forward.
func (r *MemoryRegistry) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	sess, ok := r.sessions[sessionID]
	if !ok || sess.Expired(now) {
		return nil, errors.NewNotFound("session.get", "session not found")
	}
	sess.LastActivity = now
	sess.ExpiresAt = now.Add(r.ttl)
	out := *sess
	return &out, nil
}

// IncrementAnalyses bumps the session's analysis counter.
func (r *MemoryRegistry) IncrementAnalyses(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok || sess.Expired(r.now()) {
		return errors.NewNotFound("session.increment", "session not found")
	}
	sess.TotalAnalyses++
	return nil
}

// Delete removes the session and cascades to its analyses.
func (r *MemoryRegistry) Delete(ctx context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	return r.analyses.DeleteBySession(ctx, sessionID)
}

// SweepExpired removes every expired session, cascading each one.
func (r *MemoryRegistry) SweepExpired(ctx context.Context) (int, error) {
	r.mu.Lock()
	now := r.now()
	var expired []string
	for id, sess := range r.sessions {
		if sess.Expired(now) {
			expired = append(expired, id)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		if _, err := r.analyses.DeleteBySession(ctx, id); err != nil {
			return len(expired), err
		}
	}
	return len(expired), nil
}

// ActiveCount returns the number of live sessions.
func (r *MemoryRegistry) ActiveCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	count := 0
	for _, sess := range r.sessions {
		if !sess.Expired(now) {
			count++
		}
	}
	return count, nil
}

// Close is a no-op for the in-memory registry.
func (r *MemoryRegistry) Close() error {
	return nil
}
