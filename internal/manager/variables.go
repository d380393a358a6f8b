// internal/manager/variables.go
package manager

import (
	"github.com/tamzrod/qrc-bridge/internal/controls"
	"github.com/tamzrod/qrc-bridge/internal/protocol"
)

// Engine variable ids. The secondary set carries the Secondary suffix.
const (
	VarState      = "state"
	VarDesignName = "design_name"
	VarRedundant  = "redundant"
	VarEmulator   = "emulator"

	secondarySuffix = "Secondary"
)

var engineVars = []VariableDefinition{
	{Name: "State", VariableID: VarState},
	{Name: "Design Name", VariableID: VarDesignName},
	{Name: "Redundant", VariableID: VarRedundant},
	{Name: "Emulator", VariableID: VarEmulator},
}

// definitionsLocked rebuilds the full variable set: engine variables for
// every configured role, then three variables per cached control.
// Caller holds mu.
func (m *Manager) definitionsLocked() []VariableDefinition {
	var defs []VariableDefinition
	defs = append(defs, engineVars...)
	if m.cfg.Redundant {
		for _, v := range engineVars {
			defs = append(defs, VariableDefinition{
				Name:       v.Name + " - Secondary",
				VariableID: v.VariableID + secondarySuffix,
			})
		}
	}

	m.vars = defs
	m.defined = make(map[string]struct{})
	for _, name := range m.cache.Names() {
		m.defineLocked(name)
	}
	return m.vars
}

// defineLocked appends the variables of one control unless already
// defined. Reports whether anything was added. Caller holds mu.
func (m *Manager) defineLocked(name string) bool {
	if m.defined == nil {
		m.defined = make(map[string]struct{})
	}
	if _, ok := m.defined[name]; ok {
		return false
	}
	m.defined[name] = struct{}{}
	m.vars = append(m.vars, controlDefinitions(name)...)
	return true
}

func controlDefinitions(name string) []VariableDefinition {
	id := controls.VariableID(name)
	return []VariableDefinition{
		{Name: name + " Value", VariableID: id + "_value"},
		{Name: name + " Position", VariableID: id + "_position"},
		{Name: name + " String", VariableID: id + "_string"},
	}
}

// engineValuesLocked returns the engine variables of every configured
// role. Caller holds mu.
func (m *Manager) engineValuesLocked() map[string]any {
	vals := make(map[string]any, 8)
	put := func(role protocol.Role, suffix string) {
		e := m.tracker.Engine(role)
		vals[VarState+suffix] = e.State
		vals[VarDesignName+suffix] = e.DesignName
		vals[VarRedundant+suffix] = e.Redundant
		vals[VarEmulator+suffix] = e.Emulator
	}
	put(protocol.Primary, "")
	if m.cfg.Redundant {
		put(protocol.Secondary, secondarySuffix)
	}
	return vals
}

// controlValues returns the three variables of one control.
func controlValues(c controls.Control) map[string]any {
	id := controls.VariableID(c.Name)
	var pos any
	if c.Position != nil {
		pos = *c.Position
	}
	return map[string]any{
		id + "_value":    c.Value,
		id + "_position": pos,
		id + "_string":   c.String,
	}
}

func cloneDefs(defs []VariableDefinition) []VariableDefinition {
	out := make([]VariableDefinition, len(defs))
	copy(out, defs)
	return out
}
