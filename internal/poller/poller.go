// internal/poller/poller.go
package poller

import (
	"errors"
	"time"

	"github.com/tamzrod/qrc-bridge/internal/protocol"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Interval time.Duration
	// Bundle sends every name in one Control.Get instead of one per name.
	Bundle bool
}

// Poller is a dumb, clock-driven Control.Get source.
// It never reads responses; those arrive on the session like any other frame.
type Poller struct {
	cfg    Config
	names  Names
	submit Submit

	outstanding []<-chan bool
}

// New creates a poller with immutable config.
func New(cfg Config, names Names, submit Submit) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if names == nil || submit == nil {
		return nil, errors.New("poller: names and submit required")
	}
	return &Poller{cfg: cfg, names: names, submit: submit}, nil
}

// Interval returns the tick period.
func (p *Poller) Interval() time.Duration { return p.cfg.Interval }

// PollOnce performs exactly one poll cycle.
// No overlap: while any request of the previous cycle is still queued the
// cycle is skipped. An empty cache sends nothing.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{At: time.Now()}

	if p.busy() {
		res.Skipped = true
		return res
	}

	names := p.names()
	res.Controls = len(names)
	if len(names) == 0 {
		return res
	}

	if p.cfg.Bundle {
		p.outstanding = append(p.outstanding, p.submit(protocol.ControlGet(names...)))
		res.Commands = 1
		return res
	}

	for _, n := range names {
		p.outstanding = append(p.outstanding, p.submit(protocol.ControlGet(n)))
	}
	res.Commands = len(names)
	return res
}

// busy drops resolved requests and reports whether any remain.
func (p *Poller) busy() bool {
	keep := p.outstanding[:0]
	for _, ch := range p.outstanding {
		select {
		case <-ch:
		default:
			keep = append(keep, ch)
		}
	}
	for i := len(keep); i < len(p.outstanding); i++ {
		p.outstanding[i] = nil
	}
	p.outstanding = keep
	return len(keep) > 0
}
