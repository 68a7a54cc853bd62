package httputil

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadLimitedBody_AllowsWithinLimit(t *testing.T) {
	body, err := ReadLimitedBody(strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("unexpected body: %s", string(body))
	}
}

func TestReadLimitedBody_RejectsOversize(t *testing.T) {
	body, err := ReadLimitedBody(strings.NewReader("helloworld"), 5)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("unexpected body: %s", string(body))
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=7", nil)
	got, err := QueryInt(r, "limit", 5)
	if err != nil || got != 7 {
		t.Fatalf("QueryInt = %d, %v", got, err)
	}

	got, err = QueryInt(r, "missing", 5)
	if err != nil || got != 5 {
		t.Fatalf("QueryInt default = %d, %v", got, err)
	}

	r = httptest.NewRequest("GET", "/?limit=abc", nil)
	if _, err := QueryInt(r, "limit", 5); err == nil {
		t.Fatal("expected error for non-integer")
	}
}

func TestQueryFloat(t *testing.T) {
	r := httptest.NewRequest("GET", "/?min_similarity=0.75", nil)
	got, err := QueryFloat(r, "min_similarity", 0)
	if err != nil || got != 0.75 {
		t.Fatalf("QueryFloat = %v, %v", got, err)
	}

	r = httptest.NewRequest("GET", "/?min_similarity=high", nil)
	if _, err := QueryFloat(r, "min_similarity", 0); err == nil {
		t.Fatal("expected error for non-number")
	}
}
