package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fundlens/fundlens/internal/store"
	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

// PostgresRegistry implements Registry using PostgreSQL.
//
// Expiry is enforced in the queries themselves: every read predicates on
// expires_at > now(), so an expired row is invisible before any sweep.
type PostgresRegistry struct {
	db       *sql.DB
	analyses store.Store
	ttl      time.Duration
}

// NewPostgresRegistry creates a registry over an existing handle that
// cascades deletes through the given analysis store.
func NewPostgresRegistry(cfg Config, db *sql.DB, analyses store.Store) *PostgresRegistry {
	return &PostgresRegistry{
		db:       db,
		analyses: analyses,
		ttl:      cfg.ttl(),
	}
}

// Touch creates or refreshes the session, sliding its expiry forward.
func (r *PostgresRegistry) Touch(ctx context.Context, sessionID string) (*types.Session, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// An expired row is replaced rather than refreshed so the analysis
	// counter starts over.
	var stale bool
	err := r.db.QueryRowContext(ctx,
		`SELECT expires_at <= now() FROM sessions WHERE session_id = $1`,
		sessionID).Scan(&stale)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if stale {
		if _, err := r.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	query := `
		INSERT INTO sessions (session_id, total_analyses, created_at, last_activity, expires_at)
		VALUES ($1, 0, now(), now(), now() + $2 * interval '1 second')
		ON CONFLICT (session_id) DO UPDATE SET
			last_activity = now(),
			expires_at    = now() + $2 * interval '1 second'
		RETURNING session_id, total_analyses, created_at, last_activity, expires_at`

	sess, err := scanSession(r.db.QueryRowContext(ctx, query, sessionID, r.ttl.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return sess, nil
}

// Get returns the live session, sliding its expiry forward.
func (r *PostgresRegistry) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE sessions SET
			last_activity = now(),
			expires_at    = now() + $2 * interval '1 second'
		WHERE session_id = $1 AND expires_at > now()
		RETURNING session_id, total_analyses, created_at, last_activity, expires_at`,
		sessionID, r.ttl.Seconds())

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("session.get", "session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return sess, nil
}

// IncrementAnalyses bumps the session's analysis counter.
func (r *PostgresRegistry) IncrementAnalyses(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET total_analyses = total_analyses + 1
		WHERE session_id = $1 AND expires_at > now()`, sessionID)
	if err != nil {
		return fmt.Errorf("increment analyses: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("session.increment", "session not found")
	}
	return nil
}

// Delete removes the session and cascades to its analyses.
func (r *PostgresRegistry) Delete(ctx context.Context, sessionID string) (int, error) {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = $1`, sessionID); err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	return r.analyses.DeleteBySession(ctx, sessionID)
}

// SweepExpired removes every expired session, cascading each one.
func (r *PostgresRegistry) SweepExpired(ctx context.Context) (int, error) {
	rows, err := r.db.QueryContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= now() RETURNING session_id`)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	defer rows.Close()

	var expired []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan swept session: %w", err)
		}
		expired = append(expired, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}

	for _, id := range expired {
		if _, err := r.analyses.DeleteBySession(ctx, id); err != nil {
			return len(expired), err
		}
	}
	return len(expired), nil
}

// ActiveCount returns the number of live sessions.
func (r *PostgresRegistry) ActiveCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE expires_at > now()`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// Close is a no-op; the shared database handle is owned by the caller.
func (r *PostgresRegistry) Close() error {
	return nil
}

func scanSession(row *sql.Row) (*types.Session, error) {
	var sess types.Session
	err := row.Scan(&sess.ID, &sess.TotalAnalyses, &sess.CreatedAt,
		&sess.LastActivity, &sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
