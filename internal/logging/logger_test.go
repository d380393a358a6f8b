// internal/logging/logger_test.go
package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)
	l.Debug("hello", String("k", "v"))
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestThrottle_SuppressesWithinInterval(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "info", Output: &buf})
	require.NoError(t, err)

	th := NewThrottle(50 * time.Millisecond)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		th.Log(ctx, l, slog.LevelWarn, "send:primary", "send failed")
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "send failed"))

	// other keys are independent
	th.Log(ctx, l, slog.LevelWarn, "send:secondary", "send failed")
	assert.Equal(t, 2, strings.Count(buf.String(), "send failed"))

	time.Sleep(60 * time.Millisecond)
	th.Log(ctx, l, slog.LevelWarn, "send:primary", "send failed")
	assert.Contains(t, buf.String(), "suppressed=4")
}

func TestThrottle_ForgetReopensKey(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "info", Output: &buf})
	require.NoError(t, err)

	th := NewThrottle(time.Hour)
	ctx := context.Background()
	th.Log(ctx, l, slog.LevelWarn, "a", "dropped")
	th.Log(ctx, l, slog.LevelWarn, "b", "dropped")
	th.Log(ctx, l, slog.LevelWarn, "a", "dropped")
	require.Equal(t, 2, strings.Count(buf.String(), "dropped"))

	th.Forget("a")
	th.Log(ctx, l, slog.LevelWarn, "a", "dropped")
	th.Log(ctx, l, slog.LevelWarn, "b", "dropped")
	assert.Equal(t, 3, strings.Count(buf.String(), "dropped"))
	assert.NotContains(t, buf.String(), "suppressed")
}
