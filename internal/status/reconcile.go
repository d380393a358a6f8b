// internal/status/reconcile.go
package status

import (
	"fmt"
	"log/slog"

	"github.com/tamzrod/qrc-bridge/internal/protocol"
)

// Reconcile folds both roles into one module status.
// Pure: no IO, no state; identical input always yields identical output.
func Reconcile(redundant bool, pri, sec RoleStatus) Result {
	if !redundant {
		return single(pri)
	}

	switch {
	case pri.Code == OK && sec.Code == OK:
		return pair(pri.Engine, sec.Engine)

	case pri.Code == OK || sec.Code == OK:
		return Result{
			Code:       UnknownWarning,
			Message:    "Redundancy compromised",
			LogLevel:   slog.LevelWarn,
			LogMessage: "Redundancy compromised",
		}

	case pri.Code == sec.Code:
		combined := pri.Message + " : " + sec.Message
		return Result{
			Code:       pri.Code,
			Message:    combined,
			LogLevel:   slog.LevelInfo,
			LogMessage: "Core states: " + combined,
		}

	default:
		return Result{
			Code:       UnknownError,
			Message:    "Core connections in unexpected & inconsistent states",
			LogLevel:   slog.LevelWarn,
			LogMessage: "Core states: " + pri.Message + " : " + sec.Message,
		}
	}
}

// pair evaluates two transport-OK cores. The state pairing decides first;
// each later check overwrites the result when it applies (last wins).
func pair(p, s EngineState) Result {
	var r Result

	switch {
	case p.State == protocol.StateActive && s.State == protocol.StateStandby:
		r = Result{Code: OK, Message: "Primary core active", LogLevel: slog.LevelInfo}
	case p.State == protocol.StateStandby && s.State == protocol.StateActive:
		r = Result{Code: OK, Message: "Secondary core active", LogLevel: slog.LevelInfo}
	case p.State == protocol.StateActive && s.State == protocol.StateActive:
		r = Result{Code: UnknownError, Message: "Both cores active", LogLevel: slog.LevelError, LogMessage: "Both cores active"}
	case p.State == protocol.StateStandby && s.State == protocol.StateStandby:
		r = Result{Code: UnknownError, Message: "Both cores in standby", LogLevel: slog.LevelError, LogMessage: "Both cores in standby"}
	default:
		msg := fmt.Sprintf("Unexpected state. Primary: %s. Secondary: %s", stateText(p.State), stateText(s.State))
		r = Result{Code: UnknownWarning, Message: msg, LogLevel: slog.LevelWarn, LogMessage: msg}
	}

	if p.DesignCode != s.DesignCode {
		r = Result{
			Code:       UnknownWarning,
			Message:    "Cores reporting different designs",
			LogLevel:   slog.LevelError,
			LogMessage: fmt.Sprintf("Cores running different designs. Primary: %s. Secondary: %s", p.DesignName, s.DesignName),
		}
	}
	if p.Emulator {
		r = Result{Code: UnknownWarning, Message: "Primary core in Emulator mode", LogLevel: slog.LevelWarn, LogMessage: "Primary core in Emulator mode"}
	}
	if s.Emulator {
		r = Result{Code: UnknownWarning, Message: "Secondary core in Emulator mode", LogLevel: slog.LevelWarn, LogMessage: "Secondary core in Emulator mode"}
	}
	if !p.Redundant || !s.Redundant {
		r = Result{Code: UnknownWarning, Message: "Cores not configured for redundant mode", LogLevel: slog.LevelError, LogMessage: "Cores not configured for redundant mode"}
	}

	return r
}

// single derives status from the primary alone.
func single(p RoleStatus) Result {
	switch p.Engine.State {
	case protocol.StateActive:
		return Result{Code: OK, Message: "Core active", LogLevel: slog.LevelInfo}
	case protocol.StateStandby:
		return Result{Code: UnknownWarning, Message: "Core state standby", LogLevel: slog.LevelWarn, LogMessage: "Core state standby"}
	case protocol.StateIdle:
		return Result{Code: UnknownError, Message: "Core state idle", LogLevel: slog.LevelWarn, LogMessage: "Core state Idle"}
	default:
		return Result{Code: p.Code, Message: p.Message, LogLevel: slog.LevelInfo, LogMessage: p.Message}
	}
}

func stateText(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
