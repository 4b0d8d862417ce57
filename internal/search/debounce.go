// Package search holds the input coalescing used by the location search:
// a value is only dispatched once it has been left alone for a quiet period.
package search

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the debounce interval of the search field.
const DefaultQuietPeriod = 300 * time.Millisecond

// Debouncer coalesces pushed values. Every Push restarts the countdown;
// when it expires the latest value is handed to the dispatch function,
// unless it equals the previously dispatched value.
type Debouncer[T comparable] struct {
	wait     time.Duration
	dispatch func(T)

	mu         sync.Mutex
	timer      *time.Timer
	gen        uint64
	pending    T
	last       T
	dispatched bool
	stopped    bool
}

// NewDebouncer returns a Debouncer that calls dispatch, on its own
// goroutine, with each settled value.
func NewDebouncer[T comparable](wait time.Duration, dispatch func(T)) *Debouncer[T] {
	if wait <= 0 {
		wait = DefaultQuietPeriod
	}
	return &Debouncer[T]{wait: wait, dispatch: dispatch}
}

// Push records v as the pending value and restarts the quiet period.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending = v
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

// Stop cancels any pending dispatch. Later pushes are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// a newer Push or a Stop superseded this countdown
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.pending
	if d.dispatched && v == d.last {
		d.mu.Unlock()
		return
	}
	d.last = v
	d.dispatched = true
	d.mu.Unlock()

	d.dispatch(v)
}
