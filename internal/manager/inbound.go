// internal/manager/inbound.go
package manager

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tamzrod/qrc-bridge/internal/controls"
	"github.com/tamzrod/qrc-bridge/internal/logging"
	"github.com/tamzrod/qrc-bridge/internal/protocol"
	"github.com/tamzrod/qrc-bridge/internal/status"
)

// link is the session.Handler of one configuration generation. Events
// from a superseded generation are dropped.
type link struct {
	m   *Manager
	gen uint64
}

// current returns the session host when gen is still live.
func (l *link) current(role protocol.Role) (string, bool) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	if l.m.closed || l.m.gen != l.gen || l.m.sessions[role] == nil {
		return "", false
	}
	return l.m.sessions[role].Host(), true
}

func (l *link) Connected(role protocol.Role) {
	if _, ok := l.current(role); !ok {
		return
	}
	m := l.m
	m.metrics.Connected(role, true)

	m.mu.Lock()
	creds := m.cfg.Credentials
	m.mu.Unlock()

	logon := protocol.Logon(creds.User, creds.Password)
	logon.Target = protocol.TargetOf(role)
	m.queue.Submit(logon)

	get := protocol.StatusGet()
	get.Target = protocol.TargetOf(role)
	m.queue.Submit(get)

	l.setTransport(role, status.OK, "")
}

func (l *link) Failed(role protocol.Role, err error) {
	host, ok := l.current(role)
	if !ok {
		return
	}
	l.m.metrics.Connected(role, false)
	l.m.logger.Error(fmt.Sprintf("Network error from %s: %v", host, err), logging.Role(role))
	l.setTransport(role, status.ConnectionFailure, err.Error())
}

func (l *link) Ended(role protocol.Role) {
	host, ok := l.current(role)
	if !ok {
		return
	}
	msg := "Connection to " + host + " ended"
	l.m.metrics.Connected(role, false)
	l.m.logger.Warn(msg, logging.Role(role))
	l.setTransport(role, status.Disconnected, msg)
}

func (l *link) Keepalive(role protocol.Role) {
	if _, ok := l.current(role); !ok {
		return
	}
	noop := protocol.NoOp()
	noop.Target = protocol.TargetOf(role)
	l.m.queue.Submit(noop)
}

func (l *link) ProtocolError(role protocol.Role, err error) {
	if _, ok := l.current(role); !ok {
		return
	}
	l.m.metrics.ProtocolError(role)
	l.m.logger.Warn("dropped malformed frame", logging.Role(role), logging.Error(err))
}

// Frame routes one inbound document by shape.
func (l *link) Frame(role protocol.Role, doc json.RawMessage) {
	host, ok := l.current(role)
	if !ok {
		return
	}
	m := l.m
	m.metrics.Frame(role)

	m.mu.Lock()
	verbose := m.cfg.Verbose
	m.mu.Unlock()
	if verbose {
		m.logger.Debug("message received", logging.Role(role), logging.String("host", host), logging.String("frame", string(doc)))
	}

	var in protocol.Inbound
	if err := json.Unmarshal(doc, &in); err != nil {
		l.ProtocolError(role, err)
		return
	}

	switch {
	case in.HasID(protocol.KindGet) && in.ResultIsArray():
		var updates []protocol.ControlUpdate
		if err := json.Unmarshal(in.Result, &updates); err != nil {
			l.ProtocolError(role, fmt.Errorf("control result: %w", err))
			return
		}
		for _, u := range updates {
			l.applyControl(u)
		}

	case in.HasID(protocol.KindGet) && in.HasError():
		e, _ := in.RPCError()
		m.logger.Error("control request failed", logging.Role(role), rpcErrorAttrs(e))

	case in.Method == protocol.MethodEngineStatus:
		l.engineReport(role, in.Params)

	case in.Method == protocol.MethodLoopPlayerError:
		m.logger.Warn("Loop Player Error "+string(in.Params), logging.Role(role))

	case in.HasID(protocol.KindSet) && in.IsStatusResult():
		m.logger.Info(fmt.Sprintf("StatusGet Response from %s: %s", host, in.Result), logging.Role(role))
		l.engineReport(role, in.Result)

	case in.HasError():
		e, _ := in.RPCError()
		m.logger.Warn("command returned an error", logging.Role(role), rpcErrorAttrs(e))
	}
}

func rpcErrorAttrs(e protocol.RPCError) slog.Attr {
	return slog.Group("error", slog.Int("code", e.Code), slog.String("message", e.Message))
}

// ---- state updates ----

func (l *link) setTransport(role protocol.Role, code status.Code, msg string) {
	m := l.m
	m.mu.Lock()
	if m.gen != l.gen {
		m.mu.Unlock()
		return
	}
	if _, changed := m.tracker.SetTransport(role, code, msg); changed {
		m.status.Schedule(m.tracker.Snapshot())
	}
	m.mu.Unlock()
}

func (l *link) engineReport(role protocol.Role, raw json.RawMessage) {
	var es protocol.EngineStatus
	if err := json.Unmarshal(raw, &es); err != nil {
		l.ProtocolError(role, fmt.Errorf("engine status: %w", err))
		return
	}

	m := l.m
	m.mu.Lock()
	if m.gen != l.gen {
		m.mu.Unlock()
		return
	}
	_, changed := m.tracker.SetEngine(role, status.EngineState{
		State:      es.State,
		DesignName: es.DesignName,
		DesignCode: es.DesignCode,
		Redundant:  es.IsRedundant,
		Emulator:   es.IsEmulator,
	})
	if changed {
		m.status.Schedule(m.tracker.Snapshot())
	}
	vals := m.engineValuesLocked()
	m.mu.Unlock()

	m.observer.VariableValuesChanged(vals)
}

func (l *link) applyControl(u protocol.ControlUpdate) {
	if u.Name == nil {
		return
	}
	up := controls.Update{
		Name:     *u.Name,
		Position: u.Position,
		String:   u.String,
	}
	if u.Value != nil {
		up.Value = *u.Value
		up.HasValue = true
	}

	m := l.m
	c := m.cache.Apply(up)
	m.metrics.Controls(m.cache.Len())
	m.observer.VariableValuesChanged(controlValues(c))
	m.observer.ControlChanged(c.Name, c)
}
