// internal/manager/manager.go
package manager

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tamzrod/qrc-bridge/internal/config"
	"github.com/tamzrod/qrc-bridge/internal/controls"
	"github.com/tamzrod/qrc-bridge/internal/debounce"
	"github.com/tamzrod/qrc-bridge/internal/dispatch"
	"github.com/tamzrod/qrc-bridge/internal/logging"
	"github.com/tamzrod/qrc-bridge/internal/metrics"
	"github.com/tamzrod/qrc-bridge/internal/poller"
	"github.com/tamzrod/qrc-bridge/internal/protocol"
	"github.com/tamzrod/qrc-bridge/internal/session"
	"github.com/tamzrod/qrc-bridge/internal/status"
)

var (
	// ErrShutdown is returned by Apply after Shutdown.
	ErrShutdown = errors.New("manager: shut down")

	// ErrNilConfig is returned by Apply without a config.
	ErrNilConfig = errors.New("manager: nil config")
)

// Debounce windows for the two coalescing emitters.
const (
	StatusWait     = time.Second
	StatusMaxWait  = 2 * time.Second
	VarDefWait     = time.Second
	VarDefMaxWait  = 5 * time.Second
	configVarOwner = "config"
)

// Options wires the manager's collaborators. Every member is optional.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Observer Observer

	// Keepalive overrides the per-session NoOp interval.
	Keepalive time.Duration
	// StatusWait/StatusMaxWait and VarDefWait/VarDefMaxWait override the
	// emitter windows. Zero keeps the defaults.
	StatusWait, StatusMaxWait time.Duration
	VarDefWait, VarDefMaxWait time.Duration
}

// Manager owns the sessions to one core pair and everything derived from
// them: the command queue, the reconciled status and the control cache.
type Manager struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	observer  Observer
	keepalive time.Duration

	queue   *dispatch.Dispatcher
	cache   *controls.Cache
	status  *debounce.Emitter[status.Snapshot]
	varDefs *debounce.Emitter[[]VariableDefinition]

	mu       sync.Mutex
	cfg      config.BridgeConfig
	gen      uint64
	tracker  *status.Tracker
	sessions [2]*session.Session
	vars     []VariableDefinition
	defined  map[string]struct{}
	cancel   context.CancelFunc
	closed   bool
}

// New builds an idle manager. Nothing connects until Apply.
func New(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = Nop{}
	}
	m := &Manager{
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		observer:  opts.Observer,
		keepalive: opts.Keepalive,
		cache:     controls.New(),
		tracker:   status.NewTracker(false),
	}
	m.queue = dispatch.New(m.endpoints, opts.Logger, opts.Metrics)
	m.status = debounce.New(
		orDefault(opts.StatusWait, StatusWait),
		orDefault(opts.StatusMaxWait, StatusMaxWait),
		m.emitStatus,
	)
	m.varDefs = debounce.New(
		orDefault(opts.VarDefWait, VarDefWait),
		orDefault(opts.VarDefMaxWait, VarDefMaxWait),
		m.emitVariableSet,
	)
	return m
}

// Apply tears down the current configuration and brings up cfg.
// Queued commands are discarded, pending emissions cancelled, timers
// stopped and sockets closed before anything new starts. Apply is also
// the only way to reconnect after a transport failure.
func (m *Manager) Apply(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return ErrNilConfig
	}
	b := cfg.Bridge

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrShutdown
	}
	m.teardownLocked()

	m.gen++
	gen := m.gen
	m.cfg = b
	m.tracker.Reset(b.Redundant)
	m.cache.Reset()
	m.cache.DropSubscriber(configVarOwner)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel

	if b.Feedback.Enabled {
		for _, name := range b.Feedback.Variables {
			m.cache.Subscribe(name, configVarOwner)
		}
	}
	m.vars = m.definitionsLocked()
	defs := cloneDefs(m.vars)
	engineVals := m.engineValuesLocked()

	m.sessions = [2]*session.Session{}
	for _, role := range m.rolesLocked() {
		ep := m.endpointConfigLocked(role)
		m.sessions[role] = session.New(session.Config{
			Role:         role,
			Host:         ep.Host,
			Port:         ep.Port,
			DialTimeout:  b.DialTimeout(),
			WriteTimeout: b.WriteTimeout(),
			Keepalive:    m.keepalive,
		}, &link{m: m, gen: gen}, m.logger)
	}

	changed := false
	for _, role := range m.rolesLocked() {
		s := m.sessions[role]
		var ok bool
		if err := s.Start(runCtx); err != nil {
			msg := "No host defined for " + role.String() + " core"
			m.logger.Warn(msg, logging.Role(role))
			_, ok = m.tracker.SetTransport(role, status.BadConfig, msg)
		} else {
			_, ok = m.tracker.SetTransport(role, status.Connecting, "Connecting to "+s.Host())
		}
		changed = changed || ok
	}

	p, err := poller.Build(b, m.cache.Names, m.queue.Submit)
	if err != nil {
		m.logger.Warn("feedback polling disabled", logging.Error(err))
	}
	if p != nil {
		go p.Run(runCtx, m.pollCycle)
	}
	if changed {
		m.status.Schedule(m.tracker.Snapshot())
	}
	m.mu.Unlock()

	m.metrics.Controls(m.cache.Len())
	m.observer.VariableSetChanged(defs)
	m.observer.VariableValuesChanged(engineVals)

	m.logger.Info("configuration applied",
		slog.Bool("redundant", b.Redundant),
		logging.String("primary", b.Primary.Host),
		slog.Bool("feedback", b.Feedback.Enabled),
	)
	return nil
}

// Shutdown stops everything. Idempotent.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.teardownLocked()
	m.mu.Unlock()

	m.queue.Close()
	m.logger.Info("bridge shut down")
}

// teardownLocked cancels in the required order: queue, emitters, poll
// and keepalive timers, then sockets. Caller holds mu.
func (m *Manager) teardownLocked() {
	m.queue.Clear()
	m.status.Cancel()
	m.varDefs.Cancel()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	for i, s := range m.sessions {
		if s != nil {
			s.Close()
			m.metrics.Connected(s.Role(), false)
		}
		m.sessions[i] = nil
	}
}

// ---- collaborator calls ----

// Enqueue queues cmd. The channel receives true iff at least one core
// accepted the write.
func (m *Manager) Enqueue(cmd protocol.Command) <-chan bool {
	return m.queue.Submit(cmd)
}

// Send queues a method call and waits for its write outcome.
func (m *Manager) Send(ctx context.Context, method string, params any) (bool, error) {
	return m.queue.Call(ctx, protocol.Generic(method, params))
}

// Subscribe registers subscriber against a control name. A newly created
// control gets its variables defined on the next variable-set emission.
func (m *Manager) Subscribe(name, subscriber string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	m.mu.Lock()
	created := m.cache.Subscribe(name, subscriber)
	if m.defineLocked(name) {
		m.varDefs.Schedule(cloneDefs(m.vars))
	}
	m.mu.Unlock()

	m.metrics.Controls(m.cache.Len())
	return created
}

// Unsubscribe removes subscriber from name. The control is forgotten when
// nobody references it any more.
func (m *Manager) Unsubscribe(name, subscriber string) bool {
	deleted := m.cache.Unsubscribe(strings.TrimSpace(name), subscriber)
	m.metrics.Controls(m.cache.Len())
	return deleted
}

// Control returns a copy of the cached control.
func (m *Manager) Control(name string) (controls.Control, bool) {
	return m.cache.Get(name)
}

// CoreState returns the last engine state reported by role.
func (m *Manager) CoreState(role protocol.Role) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Engine(role).State
}

// Status returns the current module and role states.
func (m *Manager) Status() status.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Snapshot()
}

// Variables returns the current variable definitions.
func (m *Manager) Variables() []VariableDefinition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneDefs(m.vars)
}

// ---- dispatcher endpoints ----

type endpoint struct {
	m *Manager
	s *session.Session
}

func (e endpoint) Role() protocol.Role { return e.s.Role() }

func (e endpoint) Active() bool {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	return e.m.tracker.Active(e.s.Role())
}

func (e endpoint) Send(payload []byte) error { return e.s.Send(payload) }

func (m *Manager) endpoints() []dispatch.Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []dispatch.Endpoint
	for _, role := range m.rolesLocked() {
		if s := m.sessions[role]; s != nil {
			out = append(out, endpoint{m: m, s: s})
		}
	}
	return out
}

// ---- emitters ----

func (m *Manager) emitStatus(snap status.Snapshot) {
	r := snap.Module
	if r.LogMessage != "" {
		m.logger.Log(context.Background(), r.LogLevel, r.LogMessage)
	}
	m.metrics.Status(r.Code)
	m.observer.StatusChanged(snap)
}

func (m *Manager) emitVariableSet(defs []VariableDefinition) {
	m.observer.VariableSetChanged(defs)

	m.mu.Lock()
	vals := m.engineValuesLocked()
	m.mu.Unlock()
	m.observer.VariableValuesChanged(vals)
}

func (m *Manager) pollCycle(res poller.PollResult) {
	if res.Skipped {
		m.logger.Debug("poll skipped, previous requests still queued")
	}
}

// ---- helpers ----

func (m *Manager) rolesLocked() []protocol.Role {
	if m.cfg.Redundant {
		return protocol.Roles[:]
	}
	return protocol.Roles[:1]
}

func (m *Manager) endpointConfigLocked(role protocol.Role) config.EndpointConfig {
	if role == protocol.Secondary {
		if m.cfg.Secondary == nil {
			return config.EndpointConfig{}
		}
		return *m.cfg.Secondary
	}
	return m.cfg.Primary
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
