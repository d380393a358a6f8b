// internal/status/reconcile_test.go
package status

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/qrc-bridge/internal/protocol"
)

func healthy(state string) RoleStatus {
	return RoleStatus{
		Code:    OK,
		Message: state,
		Engine: EngineState{
			State:      state,
			DesignName: "Auditorium",
			DesignCode: "c1",
			Redundant:  true,
		},
	}
}

func TestReconcile_RedundantPairings(t *testing.T) {
	cases := []struct {
		name     string
		pri, sec string
		code     Code
		msg      string
		level    slog.Level
	}{
		{"primary active", "Active", "Standby", OK, "Primary core active", slog.LevelInfo},
		{"secondary active", "Standby", "Active", OK, "Secondary core active", slog.LevelInfo},
		{"both active", "Active", "Active", UnknownError, "Both cores active", slog.LevelError},
		{"both standby", "Standby", "Standby", UnknownError, "Both cores in standby", slog.LevelError},
		{"idle pair", "Idle", "Standby", UnknownWarning, "Unexpected state. Primary: Idle. Secondary: Standby", slog.LevelWarn},
		{"unknown pair", "", "Active", UnknownWarning, "Unexpected state. Primary: unknown. Secondary: Active", slog.LevelWarn},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Reconcile(true, healthy(tc.pri), healthy(tc.sec))
			assert.Equal(t, tc.code, r.Code)
			assert.Equal(t, tc.msg, r.Message)
			assert.Equal(t, tc.level, r.LogLevel)
		})
	}
}

func TestReconcile_OverridesLastWins(t *testing.T) {
	pri, sec := healthy("Active"), healthy("Standby")
	sec.Engine.DesignCode = "c2"
	sec.Engine.DesignName = "Lobby"

	r := Reconcile(true, pri, sec)
	assert.Equal(t, UnknownWarning, r.Code)
	assert.Equal(t, "Cores reporting different designs", r.Message)
	assert.Equal(t, "Cores running different designs. Primary: Auditorium. Secondary: Lobby", r.LogMessage)

	pri.Engine.Emulator = true
	r = Reconcile(true, pri, sec)
	assert.Equal(t, "Primary core in Emulator mode", r.Message)

	sec.Engine.Emulator = true
	r = Reconcile(true, pri, sec)
	assert.Equal(t, "Secondary core in Emulator mode", r.Message)

	pri.Engine.Redundant = false
	r = Reconcile(true, pri, sec)
	assert.Equal(t, UnknownWarning, r.Code)
	assert.Equal(t, "Cores not configured for redundant mode", r.Message)
	assert.Equal(t, slog.LevelError, r.LogLevel)
}

func TestReconcile_TransportDegraded(t *testing.T) {
	down := RoleStatus{Code: ConnectionFailure, Message: "refused"}

	r := Reconcile(true, healthy("Active"), down)
	assert.Equal(t, UnknownWarning, r.Code)
	assert.Equal(t, "Redundancy compromised", r.Message)

	r = Reconcile(true, RoleStatus{Code: Disconnected, Message: "a ended"}, RoleStatus{Code: Disconnected, Message: "b ended"})
	assert.Equal(t, Disconnected, r.Code)
	assert.Equal(t, "a ended : b ended", r.Message)
	assert.Equal(t, "Core states: a ended : b ended", r.LogMessage)

	r = Reconcile(true, down, RoleStatus{Code: Connecting, Message: "Connecting to b"})
	assert.Equal(t, UnknownError, r.Code)
	assert.Equal(t, "Core connections in unexpected & inconsistent states", r.Message)
}

func TestReconcile_SingleCore(t *testing.T) {
	assert.Equal(t, Result{Code: OK, Message: "Core active", LogLevel: slog.LevelInfo},
		Reconcile(false, healthy("Active"), RoleStatus{}))

	r := Reconcile(false, healthy("Standby"), RoleStatus{})
	assert.Equal(t, UnknownWarning, r.Code)
	assert.Equal(t, "Core state standby", r.Message)

	r = Reconcile(false, healthy("Idle"), RoleStatus{})
	assert.Equal(t, UnknownError, r.Code)

	r = Reconcile(false, RoleStatus{Code: BadConfig, Message: "No host defined for primary core"}, RoleStatus{})
	assert.Equal(t, BadConfig, r.Code)
	assert.Equal(t, "No host defined for primary core", r.Message)

	// secondary is ignored entirely
	assert.Equal(t, Reconcile(false, healthy("Active"), RoleStatus{}),
		Reconcile(false, healthy("Active"), healthy("Active")))
}

func TestReconcile_Deterministic(t *testing.T) {
	pri, sec := healthy("Active"), healthy("Standby")
	first := Reconcile(true, pri, sec)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Reconcile(true, pri, sec))
	}
}

func TestTracker_ReportsOnlyChanges(t *testing.T) {
	tr := NewTracker(true)
	assert.Equal(t, Connecting, tr.Current().Code)

	_, changed := tr.SetTransport(protocol.Primary, OK, "")
	assert.True(t, changed, "connecting -> redundancy compromised")

	// second identical transport update does not change the result
	_, changed = tr.SetTransport(protocol.Primary, OK, "")
	assert.False(t, changed)

	e := healthy("Active").Engine
	_, _ = tr.SetEngine(protocol.Primary, e)
	e.State = "Standby"
	r, changed := tr.SetEngine(protocol.Secondary, e)
	assert.True(t, changed)
	assert.Equal(t, "Primary core active", r.Message)

	assert.True(t, tr.Active(protocol.Primary))
	assert.False(t, tr.Active(protocol.Secondary))
	assert.Equal(t, "Standby", tr.Snapshot().Secondary.Message)

	// engine state of one role never touches the other
	assert.Equal(t, "Active", tr.Engine(protocol.Primary).State)
}

func TestEncode_Layout(t *testing.T) {
	snap := Snapshot{
		Redundant: true,
		Module:    Result{Code: OK, Message: "Primary core active"},
		Primary:   healthy("Active"),
		Secondary: healthy("Standby"),
	}

	regs := Encode(MirrorOf(snap, 0), "CORE-A")
	require.Len(t, regs, SlotsPerBlock)
	assert.Equal(t, HealthOK, regs[SlotHealthCode])
	assert.Equal(t, uint16(1), regs[SlotPrimaryState])
	assert.Equal(t, uint16(2), regs[SlotSecondaryState])
	assert.Equal(t, FlagPrimaryRedundant|FlagSecondaryRedundant, regs[SlotFlags])
	assert.Equal(t, uint16('C')<<8|uint16('O'), regs[SlotNameStart])
	for i := SlotReservedStart; i <= SlotReservedEnd; i++ {
		assert.Zero(t, regs[i])
	}
}
