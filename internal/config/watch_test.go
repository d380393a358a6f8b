// internal/config/watch_test.go
package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, host string) {
	t.Helper()
	data := []byte("bridge:\n  primary: {host: " + host + "}\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWatcher_ReloadsValidEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	writeConfig(t, path, "10.0.0.10")

	got := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { got <- c }, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Invalid edit: rejected, previous configuration kept.
	if err := os.WriteFile(path, []byte("bridge: [\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case c := <-got:
		t.Fatalf("unexpected reload of invalid file: %+v", c)
	case <-time.After(200 * time.Millisecond):
	}

	writeConfig(t, path, "10.0.0.20")
	select {
	case c := <-got:
		if c.Bridge.Primary.Host != "10.0.0.20" {
			t.Fatalf("host=%q", c.Bridge.Primary.Host)
		}
		if c.Bridge.Primary.Port != DefaultPort {
			t.Fatalf("reloaded config not normalized: port=%d", c.Bridge.Primary.Port)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload after valid edit")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	writeConfig(t, path, "10.0.0.10")

	got := make(chan *Config, 1)
	w, err := NewWatcher(path, func(c *Config) { got <- c }, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeConfig(t, filepath.Join(dir, "other.yaml"), "10.0.0.30")
	select {
	case <-got:
		t.Fatalf("reload triggered by a sibling file")
	case <-time.After(200 * time.Millisecond):
	}
}
