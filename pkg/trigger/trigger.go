// Package trigger provides signals without a value: something to depend on
// and something to fire.
//
//	t := trigger.New()
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    t.Track()
//	    refresh()
//	    return nil
//	})
//	t.Dirty() // effect re-runs
package trigger

import "github.com/vango-dev/primitives/pkg/reactive"

// Trigger is a dependency with no value.
type Trigger struct {
	sig *reactive.Signal[uint64]
}

// New creates a Trigger.
func New() *Trigger {
	return &Trigger{sig: reactive.NewSignal[uint64](0)}
}

// Track subscribes the current listener.
func (t *Trigger) Track() {
	_ = t.sig.Get()
}

// Dirty notifies every subscriber.
func (t *Trigger) Dirty() {
	t.sig.Update(func(n uint64) uint64 { return n + 1 })
}

// Observed reports whether any listener depends on t.
func (t *Trigger) Observed() bool {
	return t.sig.HasSubscribers()
}

// Create returns Track and Dirty as plain functions.
func Create() (track func(), dirty func()) {
	t := New()
	return t.Track, t.Dirty
}
