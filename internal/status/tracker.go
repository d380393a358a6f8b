// internal/status/tracker.go
package status

import "github.com/tamzrod/qrc-bridge/internal/protocol"

// Tracker owns both role states and the last reconciled result.
// It recomputes on every mutation and reports whether the reported
// {Code, Message} changed. Not safe for concurrent use.
type Tracker struct {
	redundant bool
	roles     [2]RoleStatus
	current   Result
}

// NewTracker returns a tracker in the boot (connecting) state.
func NewTracker(redundant bool) *Tracker {
	t := &Tracker{}
	t.Reset(redundant)
	return t
}

// Reset returns every role to the boot state.
func (t *Tracker) Reset(redundant bool) {
	t.redundant = redundant
	t.roles = [2]RoleStatus{initialRole(), initialRole()}
	t.current = initialResult()
}

// SetTransport records a transport-level status for one role.
func (t *Tracker) SetTransport(role protocol.Role, code Code, message string) (Result, bool) {
	rs := &t.roles[role]
	rs.Code = code
	rs.Message = message
	return t.recompute()
}

// SetEngine records a fresh engine report for one role. A report proves
// the transport is up, so the role's transport status becomes OK with the
// engine state as its message.
func (t *Tracker) SetEngine(role protocol.Role, e EngineState) (Result, bool) {
	rs := &t.roles[role]
	rs.Engine = e
	rs.Code = OK
	rs.Message = e.State
	return t.recompute()
}

// Engine returns the last engine report for role.
func (t *Tracker) Engine(role protocol.Role) EngineState {
	return t.roles[role].Engine
}

// Active reports whether role's engine last said it was Active.
func (t *Tracker) Active(role protocol.Role) bool {
	return t.roles[role].Engine.State == protocol.StateActive
}

// Current returns the last reconciled result.
func (t *Tracker) Current() Result {
	return t.current
}

// Snapshot returns a copy of everything tracked.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Redundant: t.redundant,
		Module:    t.current,
		Primary:   t.roles[protocol.Primary],
		Secondary: t.roles[protocol.Secondary],
	}
}

func (t *Tracker) recompute() (Result, bool) {
	next := Reconcile(t.redundant, t.roles[protocol.Primary], t.roles[protocol.Secondary])
	if next.Same(t.current) {
		return t.current, false
	}
	t.current = next
	return next, true
}
