package reactive

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// LazyMemo is a memo that only stays connected to its sources while it is
// observed.
//
// While at least one listener depends on it, a LazyMemo behaves like a
// Memo: a source change invalidates it and notifies its subscribers. When
// it is invalidated with no subscribers it unsubscribes from every source
// and goes dormant, so further upstream writes cost nothing. The next Get
// recomputes and reconnects.
//
// The computation receives the previous value (initial on the first run).
type LazyMemo[T any] struct {
	base signalBase

	fn func(prev T) T

	value   T
	valueMu sync.RWMutex

	dirty     atomic.Bool
	computing atomic.Bool
	runs      atomic.Int64

	sources   []*signalBase
	sourcesMu sync.Mutex
}

// NewLazyMemo creates a lazy memo. fn runs on the first Get.
func NewLazyMemo[T any](fn func(prev T) T, initial T) *LazyMemo[T] {
	m := &LazyMemo[T]{
		base:  signalBase{id: nextID()},
		fn:    fn,
		value: initial,
	}
	m.dirty.Store(true)
	return m
}

// CreateLazyMemo returns the Get method of a new lazy memo.
func CreateLazyMemo[T any](fn func(prev T) T, initial T) Accessor[T] {
	return NewLazyMemo(fn, initial).Get
}

// Get returns the current value, computing it first if a source changed
// since the last computation.
func (m *LazyMemo[T]) Get() T {
	m.base.track()

	if m.dirty.Load() {
		m.recompute()
	}

	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.value
}

// Peek is Get without subscribing.
func (m *LazyMemo[T]) Peek() T {
	return Untrack(m.Get)
}

// MarkDirty invalidates the memo. Observed memos notify subscribers;
// unobserved ones detach from their sources.
func (m *LazyMemo[T]) MarkDirty() {
	if !m.dirty.CompareAndSwap(false, true) {
		return
	}
	if m.base.subscriberCount() > 0 {
		m.base.notifySubscribers()
		return
	}
	m.detach()
}

// ID returns the unique identifier for this memo.
func (m *LazyMemo[T]) ID() uint64 {
	return m.base.id
}

// Runs returns how many times the computation has executed.
func (m *LazyMemo[T]) Runs() int64 {
	return m.runs.Load()
}

// Dormant reports whether the memo is currently disconnected from its
// sources.
func (m *LazyMemo[T]) Dormant() bool {
	m.sourcesMu.Lock()
	defer m.sourcesMu.Unlock()
	return len(m.sources) == 0
}

func (m *LazyMemo[T]) addSource(source *signalBase) {
	m.sourcesMu.Lock()
	defer m.sourcesMu.Unlock()

	for _, s := range m.sources {
		if s == source {
			return
		}
	}
	m.sources = append(m.sources, source)
}

func (m *LazyMemo[T]) detach() {
	m.sourcesMu.Lock()
	sources := m.sources
	m.sources = nil
	m.sourcesMu.Unlock()

	for _, source := range sources {
		source.unsubscribe(m)
	}
}

func (m *LazyMemo[T]) recompute() {
	if m.computing.Swap(true) {
		logger().Debug("lazy memo read during its own computation",
			zap.Uint64("memo", m.base.id),
			zap.Error(ErrCircularDependency))
		return
	}
	defer m.computing.Store(false)

	m.detach()

	m.valueMu.RLock()
	prev := m.value
	m.valueMu.RUnlock()

	// Clear before computing so a write during fn re-dirties the memo.
	m.dirty.Store(false)

	next := func() T {
		old := setCurrentListener(m)
		defer setCurrentListener(old)
		return m.fn(prev)
	}()

	m.runs.Add(1)

	m.valueMu.Lock()
	m.value = next
	m.valueMu.Unlock()
}

var _ sourceTracker = (*LazyMemo[int])(nil)
