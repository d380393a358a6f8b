// internal/debounce/debounce.go
package debounce

import (
	"sync"
	"time"
)

// Emitter coalesces bursts of Schedule calls into one trailing delivery.
//
// Schedule overwrites the pending value and re-arms the deadline to
// now+wait, but never past first-pending+maxWait. Cancel drops the
// pending value synchronously: once it returns no new delivery starts,
// even if the timer already fired and is waiting on the lock.
type Emitter[T any] struct {
	wait    time.Duration
	maxWait time.Duration
	fn      func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	value   T
	first   time.Time
}

// New creates an emitter. maxWait <= 0 disables the cap.
func New[T any](wait, maxWait time.Duration, fn func(T)) *Emitter[T] {
	return &Emitter[T]{wait: wait, maxWait: maxWait, fn: fn}
}

// Schedule stores v as the value to deliver and (re)arms the deadline.
func (e *Emitter[T]) Schedule(v T) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	if !e.pending {
		e.pending = true
		e.first = now
	}
	e.value = v

	delay := e.wait
	if e.maxWait > 0 {
		if limit := e.first.Add(e.maxWait).Sub(now); limit < delay {
			delay = limit
		}
	}
	if delay < 0 {
		delay = 0
	}

	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(delay, func() { e.fire(gen) })
}

// Flush delivers the pending value now, if any.
func (e *Emitter[T]) Flush() {
	e.mu.Lock()
	v, ok := e.take()
	e.mu.Unlock()
	if ok {
		e.fn(v)
	}
}

// Cancel drops the pending value without delivering it.
func (e *Emitter[T]) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _ = e.take()
}

// Pending reports whether a delivery is armed.
func (e *Emitter[T]) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

func (e *Emitter[T]) fire(gen uint64) {
	e.mu.Lock()
	if gen != e.gen {
		// superseded by a later Schedule, Flush or Cancel
		e.mu.Unlock()
		return
	}
	v, ok := e.take()
	e.mu.Unlock()
	if ok {
		e.fn(v)
	}
}

// take clears pending state and invalidates any armed timer.
// Caller holds mu.
func (e *Emitter[T]) take() (T, bool) {
	var zero T
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	if !e.pending {
		return zero, false
	}
	v := e.value
	e.pending = false
	e.value = zero
	return v, true
}
