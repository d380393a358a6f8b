// internal/manager/observer.go
package manager

import (
	"github.com/tamzrod/qrc-bridge/internal/controls"
	"github.com/tamzrod/qrc-bridge/internal/status"
)

// VariableDefinition is one variable the bridge publishes.
type VariableDefinition struct {
	Name       string
	VariableID string
}

// Observer receives core events. Calls happen outside the manager lock,
// from session, dispatcher or timer goroutines. Implementations must not
// block for long.
type Observer interface {
	ControlChanged(name string, c controls.Control)
	StatusChanged(s status.Snapshot)
	VariableSetChanged(defs []VariableDefinition)
	VariableValuesChanged(values map[string]any)
}

// Nop ignores every event.
type Nop struct{}

func (Nop) ControlChanged(string, controls.Control) {}
func (Nop) StatusChanged(status.Snapshot) {}
func (Nop) VariableSetChanged([]VariableDefinition) {}
func (Nop) VariableValuesChanged(map[string]any) {}

// Funcs adapts plain functions to Observer. Nil members are skipped.
type Funcs struct {
	OnControl   func(name string, c controls.Control)
	OnStatus    func(s status.Snapshot)
	OnVarSet    func(defs []VariableDefinition)
	OnVarValues func(values map[string]any)
}

func (f Funcs) ControlChanged(name string, c controls.Control) {
	if f.OnControl != nil {
		f.OnControl(name, c)
	}
}

func (f Funcs) StatusChanged(s status.Snapshot) {
	if f.OnStatus != nil {
		f.OnStatus(s)
	}
}

func (f Funcs) VariableSetChanged(defs []VariableDefinition) {
	if f.OnVarSet != nil {
		f.OnVarSet(defs)
	}
}

func (f Funcs) VariableValuesChanged(values map[string]any) {
	if f.OnVarValues != nil {
		f.OnVarValues(values)
	}
}

// Multi fans every event out to each observer in order.
type Multi []Observer

func (m Multi) ControlChanged(name string, c controls.Control) {
	for _, o := range m {
		o.ControlChanged(name, c)
	}
}

func (m Multi) StatusChanged(s status.Snapshot) {
	for _, o := range m {
		o.StatusChanged(s)
	}
}

func (m Multi) VariableSetChanged(defs []VariableDefinition) {
	for _, o := range m {
		o.VariableSetChanged(defs)
	}
}

func (m Multi) VariableValuesChanged(values map[string]any) {
	for _, o := range m {
		o.VariableValuesChanged(values)
	}
}
