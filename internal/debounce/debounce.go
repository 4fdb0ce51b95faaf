// Package debounce runs an action after a quiet period, per key.
package debounce

import (
	"sync"
	"time"
)

type timer struct {
	t          *time.Timer
	generation uint64
}

// Debouncer holds at most one pending action per key. Arming a key again
// cancels its pending action rather than queueing another.
type Debouncer struct {
	mu      sync.Mutex
	timers  map[string]*timer
	next    uint64
	stopped bool
}

func New() *Debouncer {
	return &Debouncer{timers: make(map[string]*timer)}
}

// Arm schedules action to run after delay unless key is armed again,
// canceled, or the debouncer is stopped first.
func (d *Debouncer) Arm(key string, delay time.Duration, action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if prev, ok := d.timers[key]; ok {
		prev.t.Stop()
	}

	d.next++
	gen := d.next
	entry := &timer{generation: gen}
	entry.t = time.AfterFunc(delay, func() {
		if d.claim(key, gen) {
			action()
		}
	})
	d.timers[key] = entry
}

// claim removes the timer for key if it is still the one armed as gen.
// A timer that fired while being replaced loses here.
func (d *Debouncer) claim(key string, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, ok := d.timers[key]
	if !ok || cur.generation != gen || d.stopped {
		return false
	}
	delete(d.timers, key)
	return true
}

// Cancel drops the pending action for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cur, ok := d.timers[key]; ok {
		cur.t.Stop()
		delete(d.timers, key)
	}
}

// Pending reports whether key has an action waiting.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[key]
	return ok
}

// Stop cancels everything and makes later Arm calls no-ops.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, cur := range d.timers {
		cur.t.Stop()
		delete(d.timers, key)
	}
}
