// internal/status/encode.go
package status

import "github.com/tamzrod/qrc-bridge/internal/protocol"

// Mirror is the register-level view of a Snapshot.
type Mirror struct {
	Health         uint16
	StatusCode     uint16
	SecondsInError uint16
	PrimaryState   uint16
	SecondaryState uint16
	Flags          uint16
}

// Health maps a status Code onto the coarse health scale.
func Health(c Code) uint16 {
	switch c {
	case OK:
		return HealthOK
	case UnknownWarning:
		return HealthWarning
	case UnknownError, BadConfig:
		return HealthError
	case Disconnected, ConnectionFailure:
		return HealthOffline
	default:
		return HealthUnknown
	}
}

// RegisterCode maps a status Code onto a stable register value.
func RegisterCode(c Code) uint16 {
	switch c {
	case Connecting:
		return 1
	case OK:
		return 2
	case BadConfig:
		return 3
	case ConnectionFailure:
		return 4
	case Disconnected:
		return 5
	case UnknownWarning:
		return 6
	case UnknownError:
		return 7
	default:
		return 0
	}
}

// EngineStateCode maps an engine lifecycle state onto a register value.
func EngineStateCode(state string) uint16 {
	switch state {
	case protocol.StateActive:
		return 1
	case protocol.StateStandby:
		return 2
	case protocol.StateIdle:
		return 3
	default:
		return 0
	}
}

// MirrorOf converts a Snapshot into its register view.
// No IO. No side effects.
func MirrorOf(s Snapshot, secondsInError uint16) Mirror {
	m := Mirror{
		Health:         Health(s.Module.Code),
		StatusCode:     RegisterCode(s.Module.Code),
		SecondsInError: secondsInError,
		PrimaryState:   EngineStateCode(s.Primary.Engine.State),
	}
	if s.Primary.Engine.Redundant {
		m.Flags |= FlagPrimaryRedundant
	}
	if s.Primary.Engine.Emulator {
		m.Flags |= FlagPrimaryEmulator
	}
	if s.Redundant {
		m.SecondaryState = EngineStateCode(s.Secondary.Engine.State)
		if s.Secondary.Engine.Redundant {
			m.Flags |= FlagSecondaryRedundant
		}
		if s.Secondary.Engine.Emulator {
			m.Flags |= FlagSecondaryEmulator
		}
	}
	return m
}

// Encode converts a Mirror into a full status block.
// Layout is locked.
func Encode(m Mirror, name string) []uint16 {
	regs := make([]uint16, SlotsPerBlock)

	regs[SlotHealthCode] = m.Health
	regs[SlotStatusCode] = m.StatusCode
	regs[SlotSecondsInError] = m.SecondsInError
	regs[SlotPrimaryState] = m.PrimaryState
	regs[SlotSecondaryState] = m.SecondaryState
	regs[SlotFlags] = m.Flags

	// reserved slots stay zero

	copy(regs[SlotNameStart:SlotNameEnd+1], EncodeName(name))
	return regs
}

// EncodeName packs up to 16 ASCII characters into 8 registers.
// Each register stores two ASCII bytes in big-endian order.
func EncodeName(name string) []uint16 {
	out := make([]uint16, SlotNameSlots)

	b := []byte(name)
	if len(b) > NameMaxChars {
		b = b[:NameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < NameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
