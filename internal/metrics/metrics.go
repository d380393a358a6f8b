// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/qrc-bridge/internal/protocol"
	"github.com/tamzrod/qrc-bridge/internal/status"
)

// Command results as recorded in CommandsTotal.
const (
	ResultSent    = "sent"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Metrics contains every bridge metric. A nil *Metrics is valid and
// records nothing, which keeps tests free of registries.
type Metrics struct {
	SessionConnected *prometheus.GaugeVec
	FramesReceived   *prometheus.CounterVec
	ProtocolErrors   *prometheus.CounterVec
	CommandsTotal    *prometheus.CounterVec
	QueueCleared     prometheus.Counter
	ModuleStatus     *prometheus.GaugeVec
	ControlsCached   prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SessionConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "qrc",
				Subsystem: "session",
				Name:      "connected",
				Help:      "1 while the session to the core is connected",
			},
			[]string{"role"},
		),
		FramesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "qrc",
				Name:      "frames_received_total",
				Help:      "Complete JSON documents decoded from a core",
			},
			[]string{"role"},
		),
		ProtocolErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "qrc",
				Name:      "protocol_errors_total",
				Help:      "Frames dropped because they were not valid JSON",
			},
			[]string{"role"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "qrc",
				Name:      "commands_total",
				Help:      "Per-role command write outcomes (sent, skipped, failed)",
			},
			[]string{"role", "method", "result"},
		),
		QueueCleared: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "qrc",
				Subsystem: "queue",
				Name:      "cleared_total",
				Help:      "Queued commands discarded by reconfiguration or shutdown",
			},
		),
		ModuleStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "qrc",
				Name:      "module_status",
				Help:      "1 for the currently reported module status code",
			},
			[]string{"code"},
		),
		ControlsCached: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "qrc",
				Name:      "controls_cached",
				Help:      "Controls currently held in the control cache",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.SessionConnected, m.FramesReceived, m.ProtocolErrors,
		m.CommandsTotal, m.QueueCleared, m.ModuleStatus, m.ControlsCached,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the given registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) Connected(r protocol.Role, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.SessionConnected.WithLabelValues(r.String()).Set(v)
}

func (m *Metrics) Frame(r protocol.Role) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(r.String()).Inc()
}

func (m *Metrics) ProtocolError(r protocol.Role) {
	if m == nil {
		return
	}
	m.ProtocolErrors.WithLabelValues(r.String()).Inc()
}

func (m *Metrics) Command(r protocol.Role, method, result string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(r.String(), method, result).Inc()
}

func (m *Metrics) Cleared(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.QueueCleared.Add(float64(n))
}

var allCodes = []status.Code{
	status.Connecting, status.OK, status.BadConfig, status.ConnectionFailure,
	status.Disconnected, status.UnknownWarning, status.UnknownError,
}

func (m *Metrics) Status(c status.Code) {
	if m == nil {
		return
	}
	for _, code := range allCodes {
		v := 0.0
		if code == c {
			v = 1
		}
		m.ModuleStatus.WithLabelValues(string(code)).Set(v)
	}
}

func (m *Metrics) Controls(n int) {
	if m == nil {
		return
	}
	m.ControlsCached.Set(float64(n))
}
