// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tamzrod/qrc-bridge/internal/frame"
	"github.com/tamzrod/qrc-bridge/internal/logging"
	"github.com/tamzrod/qrc-bridge/internal/metrics"
	"github.com/tamzrod/qrc-bridge/internal/protocol"
	"github.com/tamzrod/qrc-bridge/internal/session"
)

// Endpoint is one writable core connection as the dispatcher sees it.
type Endpoint interface {
	Role() protocol.Role
	// Active reports whether the core last reported itself Active.
	Active() bool
	Send(payload []byte) error
}

// Endpoints returns the endpoints configured right now, primary first.
type Endpoints func() []Endpoint

const warnInterval = 10 * time.Second

type task struct {
	cmd  protocol.Command
	done chan bool
}

// Dispatcher is a FIFO, concurrency-1 command queue owned by one bridge.
// Every outbound command passes through it so that request ids are never
// interleaved on a socket.
type Dispatcher struct {
	endpoints Endpoints
	logger    *slog.Logger
	metrics   *metrics.Metrics
	throttle  *logging.Throttle

	mu      sync.Mutex
	pending []task
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// New starts the worker goroutine. Close stops it.
func New(endpoints Endpoints, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Dispatcher{
		endpoints: endpoints,
		logger:    logger,
		metrics:   m,
		throttle:  logging.NewThrottle(warnInterval),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go d.loop()
	return d
}

// Submit queues cmd and returns a channel that receives exactly one
// result: true iff at least one endpoint accepted the write. After Close
// the result is false immediately.
func (d *Dispatcher) Submit(cmd protocol.Command) <-chan bool {
	t := task{cmd: cmd, done: make(chan bool, 1)}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		t.done <- false
		return t.done
	}
	d.pending = append(d.pending, t)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return t.done
}

// Call submits cmd and waits for its result or ctx.
// A cancelled wait does not unqueue the command.
func (d *Dispatcher) Call(ctx context.Context, cmd protocol.Command) (bool, error) {
	select {
	case ok := <-d.Submit(cmd):
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Len returns the number of queued, not yet started tasks.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Clear discards every queued task that has not started. Each resolves
// false. A task already writing is left to finish.
func (d *Dispatcher) Clear() int {
	d.mu.Lock()
	dropped := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, t := range dropped {
		t.done <- false
	}
	if n := len(dropped); n > 0 {
		d.metrics.Cleared(n)
		d.logger.Debug("command queue cleared", slog.Int("dropped", n))
	}
	return len(dropped)
}

// Close clears the queue and waits for the in-flight task to finish.
// Idempotent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.Clear()
	close(d.stop)
	<-d.done
}

// ---- worker ----

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		t, ok := d.next()
		if !ok {
			select {
			case <-d.stop:
				return
			case <-d.wake:
				continue
			}
		}
		t.done <- d.run(t.cmd)
	}
}

func (d *Dispatcher) next() (task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return task{}, false
	}
	t := d.pending[0]
	d.pending[0] = task{}
	d.pending = d.pending[1:]
	return t, true
}

// run performs one write sequence. It never panics out of the worker.
func (d *Dispatcher) run(cmd protocol.Command) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("command dispatch failed",
				logging.String("method", cmd.Method),
				logging.String("panic", fmt.Sprint(r)),
			)
			sent = false
		}
	}()

	payload, err := frame.Encode(cmd.Envelope())
	if err != nil {
		d.logger.Warn("command encode failed", logging.String("method", cmd.Method), logging.Error(err))
		return false
	}

	for _, ep := range d.endpoints() {
		role := ep.Role()
		if !cmd.Target.Includes(role) {
			continue
		}
		if !Routable(ep.Active(), cmd.Method) {
			d.metrics.Command(role, cmd.Method, metrics.ResultSkipped)
			d.logger.Debug("command not sent to inactive core",
				logging.Role(role), logging.String("method", cmd.Method))
			continue
		}
		if err := ep.Send(payload); err != nil {
			d.metrics.Command(role, cmd.Method, metrics.ResultFailed)
			d.warnSend(role, cmd.Method, err)
			continue
		}
		d.throttle.Forget(notConnectedKey(role))
		d.metrics.Command(role, cmd.Method, metrics.ResultSent)
		d.logger.Debug("command sent", logging.Role(role), logging.String("method", cmd.Method))
		sent = true
	}
	return sent
}

func (d *Dispatcher) warnSend(role protocol.Role, method string, err error) {
	if errors.Is(err, session.ErrNotConnected) {
		d.throttle.Log(context.Background(), d.logger, slog.LevelWarn,
			notConnectedKey(role), "core not connected, command dropped",
			logging.Role(role), logging.String("method", method))
		return
	}
	d.logger.Warn("command write failed",
		logging.Role(role), logging.String("method", method), logging.Error(err))
}

// notConnectedKey throttles drop warnings per role until a write to that
// role succeeds again.
func notConnectedKey(role protocol.Role) string {
	return "not_connected:" + role.String()
}

// Routable reports whether a command may be written to a core: always
// when the core is Active, otherwise only for standby-safe methods.
func Routable(active bool, method string) bool {
	return active || protocol.StandbySafe(method)
}
