// Package httputil provides helpers for working with HTTP payloads safely.
package httputil

import (
	"errors"
	"io"
	"net/http"
	"strconv"
)

const (
	// DefaultMaxRequestBodyBytes caps inbound request bodies to 1MB.
	// Analysis records are a few KB; anything near the cap is garbage.
	DefaultMaxRequestBodyBytes int64 = 1 * 1024 * 1024
)

var ErrBodyTooLarge = errors.New("request body too large")

// ReadLimitedBody reads up to maxBytes from reader and returns
// ErrBodyTooLarge when exceeded.
func ReadLimitedBody(reader io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(reader)
	}

	limited := io.LimitReader(reader, maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return body, err
	}
	if int64(len(body)) > maxBytes {
		body = body[:int(maxBytes)]
		return body, ErrBodyTooLarge
	}
	return body, nil
}

// QueryInt parses an integer query parameter, returning def when absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// QueryFloat parses a float query parameter, returning def when absent.
func QueryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}
