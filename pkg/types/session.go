package types

import "time"

// Session tracks one analysis session. Unlike cache entries, sessions use a
// sliding expiry window: every access pushes ExpiresAt forward.
type Session struct {
	ID            string    `json:"session_id"`
	TotalAnalyses int       `json:"total_analyses"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `json:"last_activity"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the session has outlived its sliding window.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
