// internal/mirror/mirror.go
package mirror

import (
	"context"
	"log/slog"
	"time"

	cfg "github.com/tamzrod/qrc-bridge/internal/config"
	"github.com/tamzrod/qrc-bridge/internal/logging"
	mmodbus "github.com/tamzrod/qrc-bridge/internal/mirror/modbus"
	"github.com/tamzrod/qrc-bridge/internal/status"
)

const maxSecondsInError = 65535

// Mirror owns the status block for one bridge: it receives reconciled
// snapshots and counts seconds spent not OK on a 1Hz ticker.
type Mirror struct {
	w      *StatusWriter
	logger *slog.Logger
	tick   time.Duration
	close  func() error

	updates chan status.Snapshot
}

// Build wires the Modbus client and status writer for c.
func Build(c *cfg.MirrorConfig, logger *slog.Logger) (*Mirror, error) {
	cli, err := mmodbus.NewEndpointClient(mmodbus.Config{
		Endpoint: c.Endpoint,
		Timeout:  time.Duration(c.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	w, err := NewStatusWriter(Plan{UnitID: c.UnitID, Slot: c.Slot, Name: c.Name}, cli)
	if err != nil {
		_ = cli.Close()
		return nil, err
	}
	m := New(w, logger)
	m.close = cli.Close
	return m, nil
}

// New returns a mirror around an existing writer.
func New(w *StatusWriter, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Mirror{
		w:       w,
		logger:  logger.With(logging.String("component", "mirror")),
		tick:    time.Second,
		updates: make(chan status.Snapshot, 1),
	}
}

// StatusChanged hands the latest snapshot to Run. Never blocks: an
// unread older snapshot is replaced.
func (m *Mirror) StatusChanged(s status.Snapshot) {
	for {
		select {
		case m.updates <- s:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}

// Run writes the block until ctx is done. Runner-owned state only.
func (m *Mirror) Run(ctx context.Context) {
	var (
		snap    status.Snapshot
		seconds uint16
	)

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	// Full block write on start (identity re-assert).
	m.write(snap, seconds, "start")

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-m.updates:
			snap = s
			// Reset seconds-in-error on recovery.
			if snap.Module.Code == status.OK {
				seconds = 0
			}
			m.write(snap, seconds, "update")

		case <-ticker.C:
			// Tick 1 Hz while not OK.
			if snap.Module.Code != status.OK && seconds < maxSecondsInError {
				seconds++
				m.write(snap, seconds, "tick")
			}
		}
	}
}

// Close releases the Modbus connection.
func (m *Mirror) Close() error {
	if m.close == nil {
		return nil
	}
	return m.close()
}

func (m *Mirror) write(s status.Snapshot, seconds uint16, reason string) {
	if err := m.w.WriteStatus(status.MirrorOf(s, seconds)); err != nil {
		m.logger.Warn("status mirror write failed", logging.String("reason", reason), logging.Error(err))
	}
}
