// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/qrc-bridge/internal/protocol"
)

// Names returns the control names to poll, sorted. Called once per cycle.
type Names func() []string

// Submit queues one command without waiting for it.
type Submit func(protocol.Command) <-chan bool

// PollResult describes one poll cycle.
type PollResult struct {
	At time.Time

	// Controls is the number of names enumerated this cycle.
	Controls int
	// Commands is the number of Control.Get requests queued.
	Commands int
	// Skipped is set when the previous cycle's requests were still
	// queued; nothing was submitted.
	Skipped bool
}
