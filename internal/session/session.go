// Package session tracks analysis sessions with sliding expiry.
//
// A session is created implicitly on first touch and its expiry is pushed
// forward by every touch. An expired session behaves as nonexistent even
// before a sweep physically removes it. Deleting a session cascades to its
// analyses and rankings.
package session

import "time"

const defaultSessionTTL = time.Hour

// Config configures a session registry.
type Config struct {
	// TTL is the sliding inactivity window. Zero means the default of
	// one hour.
	TTL time.Duration
}

// DefaultConfig returns the default session registry configuration.
func DefaultConfig() Config {
	return Config{TTL: defaultSessionTTL}
}

func (c Config) ttl() time.Duration {
	if c.TTL <= 0 {
		return defaultSessionTTL
	}
	return c.TTL
}
