// internal/mirror/status_writer.go
package mirror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/qrc-bridge/internal/status"
)

// endpointClient is the only Modbus operation the mirror needs.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Plan locates one status block in the status memory.
type Plan struct {
	UnitID uint8
	Slot   uint16
	Name   string
}

// StatusWriter delivers a status.Mirror verbatim into holding registers.
// No logic, no interpretation: changed slots only, or the full block
// when its state is in doubt.
type StatusWriter struct {
	plan Plan
	cli  endpointClient

	needFull bool
	last     status.Mirror
}

// NewStatusWriter returns a writer that re-asserts the full block on its
// first successful write.
func NewStatusWriter(plan Plan, cli endpointClient) (*StatusWriter, error) {
	if cli == nil {
		return nil, errors.New("status writer: client required")
	}
	return &StatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true,
	}, nil
}

// WriteStatus writes m. On any write failure the next call re-asserts
// the full block.
func (sw *StatusWriter) WriteStatus(m status.Mirror) error {
	base := sw.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		regs := status.Encode(m, sw.plan.Name)

		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base, regs); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = m
		return nil
	}

	slots := []struct {
		slot uint16
		name string
		want uint16
		have *uint16
	}{
		{status.SlotHealthCode, "health", m.Health, &sw.last.Health},
		{status.SlotStatusCode, "status_code", m.StatusCode, &sw.last.StatusCode},
		{status.SlotSecondsInError, "seconds", m.SecondsInError, &sw.last.SecondsInError},
		{status.SlotPrimaryState, "primary_state", m.PrimaryState, &sw.last.PrimaryState},
		{status.SlotSecondaryState, "secondary_state", m.SecondaryState, &sw.last.SecondaryState},
		{status.SlotFlags, "flags", m.Flags, &sw.last.Flags},
	}

	var errs []string
	for _, s := range slots {
		if *s.have == s.want {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base+s.slot, []uint16{s.want}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", s.slot, s.name, err))
			continue
		}
		*s.have = s.want
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

func (sw *StatusWriter) baseAddr() uint16 {
	// Each mirrored bridge owns a fixed SlotsPerBlock block.
	return sw.plan.Slot * status.SlotsPerBlock
}
