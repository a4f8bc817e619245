// Package latch provides the fan-out/join primitive used to join N
// concurrently-issued asynchronous lookups into a single continuation.
package latch

import "sync"

// Latch joins N asynchronous units of work into one continuation.
//
// Callers must Add before dispatching each unit, and Resolve exactly once
// per unit on completion. The continuation fires exactly once, after the
// final Resolve. A latch with no registered units never fires.
//
// The latch is agnostic to payloads and errors; fan-out callers that need
// first-failure-wins error reporting share an Outcome across branches.
type Latch struct {
	mu           sync.Mutex
	pending      int
	resolved     int
	fired        bool
	continuation func()
}

// New creates an unsatisfied latch with no registered units
func New() *Latch {
	return &Latch{}
}

// Add registers one outstanding unit of work. It must be called before
// the corresponding unit is dispatched, so the continuation can never
// fire while units are still being issued.
func (l *Latch) Add() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending++
}

// Resolve marks one unit of work complete. When the final registered
// unit resolves, the continuation is invoked exactly once.
//
// Resolving more units than were added is a programming error and panics.
func (l *Latch) Resolve() {
	l.mu.Lock()
	l.resolved++
	if l.resolved > l.pending {
		l.mu.Unlock()
		panic("latch: Resolve called more times than Add")
	}
	fn := l.fireLocked()
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Then sets the continuation. If the latch is already satisfied, the
// continuation fires immediately.
func (l *Latch) Then(continuation func()) {
	l.mu.Lock()
	l.continuation = continuation
	fn := l.fireLocked()
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Reset returns the latch to its identity state, clearing counts and the
// fired flag so the same latch can drive a second join stage chained
// after the first. The continuation is retained until replaced by Then.
func (l *Latch) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = 0
	l.resolved = 0
	l.fired = false
}

// fireLocked returns the continuation to invoke if the latch just became
// satisfied, marking it fired. Must be called with l.mu held; the caller
// invokes the returned function after unlocking, so the continuation is
// free to Reset and reuse the latch.
func (l *Latch) fireLocked() func() {
	if l.fired || l.continuation == nil {
		return nil
	}
	if l.pending == 0 || l.resolved < l.pending {
		return nil
	}
	l.fired = true
	return l.continuation
}
