// internal/metrics/metrics_test.go
package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/qrc-bridge/internal/protocol"
	"github.com/tamzrod/qrc-bridge/internal/status"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Connected(protocol.Secondary, true)
	m.Frame(protocol.Primary)
	m.Frame(protocol.Primary)
	m.Command(protocol.Primary, "Control.Set", ResultSkipped)
	m.Cleared(3)
	m.Status(status.OK)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionConnected.WithLabelValues("secondary")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesReceived.WithLabelValues("primary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("primary", "Control.Set", "skipped")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.QueueCleared))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModuleStatus.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ModuleStatus.WithLabelValues("connecting")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "qrc_frames_received_total"))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Connected(protocol.Primary, true)
		m.Frame(protocol.Primary)
		m.ProtocolError(protocol.Primary)
		m.Command(protocol.Primary, "NoOp", ResultSent)
		m.Cleared(1)
		m.Status(status.OK)
		m.Controls(4)
	})
}

func TestMetrics_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
