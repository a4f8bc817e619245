package latch

import "sync"

// Outcome is a result slot settled exactly once, shared across the
// branches of a fan-out. The first branch to settle wins; every branch
// observes the slot before acting, which guarantees at most one outward
// error action even when several branches fail concurrently.
type Outcome struct {
	mu      sync.Mutex
	settled bool
	err     error
}

// NewOutcome creates an unsettled outcome
func NewOutcome() *Outcome {
	return &Outcome{}
}

// Fail settles the outcome with an error. It returns true if this call
// performed the settlement; losers get false and must not take the
// outward error action themselves.
func (o *Outcome) Fail(err error) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.settled {
		return false
	}
	o.settled = true
	o.err = err
	return true
}

// Succeed settles the outcome without an error. It returns true if this
// call performed the settlement.
func (o *Outcome) Succeed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.settled {
		return false
	}
	o.settled = true
	return true
}

// Failed reports whether the outcome has settled with an error. Branches
// check this before performing further side effects.
func (o *Outcome) Failed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settled && o.err != nil
}

// Settled reports whether the outcome has settled at all
func (o *Outcome) Settled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settled
}

// Err returns the settled error, or nil if unsettled or successful
func (o *Outcome) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}
