// internal/status/snapshot.go
package status

import "log/slog"

// EngineState is what a core last told us about itself.
// Only frames received on that core's own session may change it.
type EngineState struct {
	State      string // Active, Standby, Idle, or "" when unknown
	DesignName string
	DesignCode string
	Redundant  bool
	Emulator   bool
}

// RoleStatus is the transport-level status of one role plus its engine state.
type RoleStatus struct {
	Code    Code
	Message string
	Engine  EngineState
}

// Result is the reconciled module status.
type Result struct {
	Code       Code
	Message    string
	LogLevel   slog.Level
	LogMessage string
}

// Same reports whether two results would be reported identically.
// Log fields do not participate.
func (r Result) Same(o Result) bool {
	return r.Code == o.Code && r.Message == o.Message
}

// Snapshot is the full picture exposed to callers.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Redundant bool
	Module    Result
	Primary   RoleStatus
	Secondary RoleStatus
}

// initialRole is the boot state of both roles.
func initialRole() RoleStatus {
	return RoleStatus{Code: Connecting}
}

// initialResult is the boot state of the module.
func initialResult() Result {
	return Result{Code: Connecting, LogLevel: slog.LevelDebug}
}
