// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop. One goroutine per bridge. No overlap. No retries.
// Results go to onCycle when it is non-nil.
func (p *Poller) Run(ctx context.Context, onCycle func(PollResult)) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := p.PollOnce()
			if onCycle != nil {
				onCycle(res)
			}
		}
	}
}
