// Package timer is a keyed set of cancellable delayed callbacks.
//
// The typing timeout arms one timer per user; every new typing event for that
// user cancels the pending timer before arming the next one. A callback that
// was cancelled never runs, even when time.AfterFunc already started its
// goroutine: each arm gets a generation number and the callback checks it
// under the registry lock before doing anything.
package timer

import (
	"sync"
	"time"
)

type pending struct {
	timer *time.Timer
	gen   uint64
}

// Registry is safe for concurrent use. The zero value is not usable; call
// NewRegistry.
type Registry struct {
	mu      sync.Mutex
	timers  map[string]pending
	nextGen uint64
	stopped bool
}

func NewRegistry() *Registry {
	return &Registry{timers: make(map[string]pending)}
}

// Arm schedules fn to run after d for key, cancelling whatever was pending
// for the same key. fn runs on its own goroutine, outside the registry lock.
func (r *Registry) Arm(key string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	r.cancelLocked(key)

	r.nextGen++
	gen := r.nextGen
	t := time.AfterFunc(d, func() {
		if !r.claim(key, gen) {
			return
		}
		fn()
	})
	r.timers[key] = pending{timer: t, gen: gen}
}

// Cancel drops the pending timer for key. It reports whether one existed.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cancelLocked(key)
}

// Pending reports whether key has an armed timer.
func (r *Registry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.timers[key]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.timers)
}

// Stop cancels everything and refuses later Arm calls.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.timers {
		r.cancelLocked(key)
	}
	r.stopped = true
}

func (r *Registry) cancelLocked(key string) bool {
	p, ok := r.timers[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(r.timers, key)
	return true
}

// claim removes the entry for key if it still belongs to generation gen.
// A false result means the timer was cancelled or replaced meanwhile.
func (r *Registry) claim(key string, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.timers[key]
	if !ok || p.gen != gen {
		return false
	}
	delete(r.timers, key)
	return true
}
