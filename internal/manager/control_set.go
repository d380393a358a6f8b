// internal/manager/control_set.go
package manager

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tamzrod/qrc-bridge/internal/controls"
	"github.com/tamzrod/qrc-bridge/internal/logging"
	"github.com/tamzrod/qrc-bridge/internal/protocol"
)

// relativeOwner subscribes controls a relative change needed but had no
// value for, so the poll loop learns them.
const relativeOwner = "relative"

var (
	// ErrNoControlName is returned by SetControl without a name.
	ErrNoControlName = errors.New("manager: control name required")

	// ErrFeedbackDisabled is returned for relative changes while
	// feedback polling is off: there is no current value to add to.
	ErrFeedbackDisabled = errors.New("manager: relative changes need feedback enabled")
)

// ControlChange is one Control.Set as entered by an operator.
type ControlChange struct {
	Name string
	// Value is converted by Type ("number", "boolean", anything else
	// is sent as a string). For a relative change it is the delta.
	Value string
	Type  string

	Relative bool
	// Min and Max clamp a relative result. Nil means unbounded.
	Min, Max *float64

	Ramp *float64
}

// SetControl writes one named control. A relative change adds Value to
// the cached value and clamps the sum. Once a core accepted the write
// the cached value is updated, so a following relative change builds on
// it without waiting for the next poll.
func (m *Manager) SetControl(ctx context.Context, c ControlChange) (bool, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return false, ErrNoControlName
	}

	var value any
	if c.Relative {
		v, err := m.relativeValue(name, c)
		if err != nil {
			return false, err
		}
		value = v
	} else {
		v, err := controls.Convert(c.Value, c.Type)
		if err != nil {
			return false, err
		}
		value = v
	}

	sent, err := m.queue.Call(ctx, protocol.ControlSet(protocol.ControlSetParams{
		Name:  name,
		Value: value,
		Ramp:  c.Ramp,
	}))
	if err != nil || !sent {
		return sent, err
	}

	if _, known := m.cache.Get(name); known {
		ctl := m.cache.Apply(controls.Update{Name: name, Value: value, HasValue: true})
		m.observer.VariableValuesChanged(controlValues(ctl))
	}
	return true, nil
}

func (m *Manager) relativeValue(name string, c ControlChange) (float64, error) {
	m.mu.Lock()
	feedback := m.cfg.Feedback.Enabled
	m.mu.Unlock()
	if !feedback {
		return 0, ErrFeedbackDisabled
	}

	delta, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("manager: relative delta %q is not a number", c.Value)
	}

	cur, ok := m.cache.Get(name)
	if !ok || cur.Value == nil {
		m.Subscribe(name, relativeOwner)
		m.logger.Warn("no current value, relative change dropped", logging.String("control", name))
		return 0, fmt.Errorf("%w: %s", controls.ErrNoValue, name)
	}

	return controls.Relative(cur.Value, delta, bound(c.Min), bound(c.Max))
}

func bound(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
