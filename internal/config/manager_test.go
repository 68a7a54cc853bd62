package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerGet(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9191
`)
	mgr, err := NewManager(path, discardLogger())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer mgr.Close()

	if got := mgr.Get().Server.Port; got != 9191 {
		t.Errorf("Get().Server.Port = %d, want 9191", got)
	}
}

func TestManagerRejectsInvalidInitialConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: -1
`)
	if _, err := NewManager(path, discardLogger()); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestManagerHotReload(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9191
`)
	mgr, err := NewManager(path, discardLogger())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	changed := make(chan *Config, 1)
	mgr.OnChange(func(c *Config) { changed <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Watch(ctx); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("server:\n  port: 9292\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.Server.Port != 9292 {
			t.Errorf("reloaded port = %d, want 9292", cfg.Server.Port)
		}
		if mgr.Get().Server.Port != 9292 {
			t.Errorf("Get() not swapped, port = %d", mgr.Get().Server.Port)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestManagerKeepsCurrentOnBadReload(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9191
`)
	mgr, err := NewManager(path, discardLogger())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Watch(ctx); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("server:\n  port: -5\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	// Give the debounced reload time to run and fail.
	time.Sleep(time.Second)
	if got := mgr.Get().Server.Port; got != 9191 {
		t.Errorf("Get().Server.Port = %d, want previous 9191", got)
	}
}
