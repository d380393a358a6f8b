// internal/logging/logger.go
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tamzrod/qrc-bridge/internal/protocol"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console", "text":
		return slog.New(slog.NewTextHandler(out, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, hopts)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a config string onto a slog level. Unknown values are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ---- attribute helpers ----

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func Role(r protocol.Role) slog.Attr { return slog.String("role", r.String()) }

// ---- throttling ----

// Throttle lets one log line through per interval for each key and
// counts the ones it swallowed. A disconnected core otherwise produces a
// send-failed warning every keepalive tick.
type Throttle struct {
	interval time.Duration

	mu      sync.Mutex
	gates   map[string]*rate.Sometimes
	dropped map[string]int
}

// NewThrottle returns a throttle with the given per-key interval.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		gates:    make(map[string]*rate.Sometimes),
		dropped:  make(map[string]int),
	}
}

// Log emits msg at level unless key already logged within the interval.
// The first emission after a quiet period carries the suppressed count.
func (t *Throttle) Log(ctx context.Context, l *slog.Logger, level slog.Level, key, msg string, attrs ...slog.Attr) {
	t.mu.Lock()
	g, ok := t.gates[key]
	if !ok {
		g = &rate.Sometimes{First: 1, Interval: t.interval}
		t.gates[key] = g
	}
	emitted := false
	g.Do(func() { emitted = true })
	suppressed := 0
	if emitted {
		suppressed = t.dropped[key]
		t.dropped[key] = 0
	} else {
		t.dropped[key]++
	}
	t.mu.Unlock()

	if !emitted {
		return
	}
	if suppressed > 0 {
		attrs = append(attrs, slog.Int("suppressed", suppressed))
	}
	l.LogAttrs(ctx, level, msg, attrs...)
}

// Forget resets key, so its next line logs immediately.
func (t *Throttle) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.gates, key)
	delete(t.dropped, key)
}
