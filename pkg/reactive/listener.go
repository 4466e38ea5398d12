package reactive

import "sync/atomic"

// Listener is anything that can be notified when a dependency changes.
// Effects and memos implement it.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a unique identifier used for batch deduplication.
	ID() uint64
}

// Cleanup is returned by effects. It runs before the effect re-runs and
// when the effect is disposed.
type Cleanup func()

var idCounter uint64

// nextID returns a process-wide unique id for a reactive primitive.
func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}
