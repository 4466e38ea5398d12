package reactive

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Memo is a cached computation that tracks its own dependencies.
//
// Memos are lazy: the computation runs on the first Get and again on the
// first Get after a dependency changed. Memos can be subscribed to like
// signals, so they chain.
type Memo[T any] struct {
	base signalBase

	compute func() T

	value   T
	valueMu sync.RWMutex

	valid atomic.Bool

	sources   []*signalBase
	sourcesMu sync.Mutex

	computing atomic.Bool
}

// NewMemo creates a memo. compute does not run until the first Get.
func NewMemo[T any](compute func() T) *Memo[T] {
	return &Memo[T]{
		base:    signalBase{id: nextID()},
		compute: compute,
	}
}

// CreateMemo returns the Get method of a new memo.
func CreateMemo[T any](compute func() T) Accessor[T] {
	return NewMemo(compute).Get
}

// Get returns the memo's value, recomputing if necessary, and subscribes
// the current listener.
func (m *Memo[T]) Get() T {
	m.base.track()

	if !m.valid.Load() {
		m.recompute()
	}

	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.value
}

// Peek returns the memo's value without subscribing.
func (m *Memo[T]) Peek() T {
	if !m.valid.Load() {
		m.recompute()
	}

	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.value
}

// MarkDirty invalidates the memo and propagates to its subscribers.
func (m *Memo[T]) MarkDirty() {
	if m.valid.CompareAndSwap(true, false) {
		m.base.notifySubscribers()
	}
}

// ID returns the unique identifier for this memo.
func (m *Memo[T]) ID() uint64 {
	return m.base.id
}

func (m *Memo[T]) addSource(source *signalBase) {
	m.sourcesMu.Lock()
	defer m.sourcesMu.Unlock()

	for _, s := range m.sources {
		if s == source {
			return
		}
	}
	m.sources = append(m.sources, source)
}

func (m *Memo[T]) recompute() {
	if m.computing.Swap(true) {
		logger().Debug("memo read during its own computation",
			zap.Uint64("memo", m.base.id),
			zap.Error(ErrCircularDependency))
		return
	}
	defer m.computing.Store(false)

	m.sourcesMu.Lock()
	for _, source := range m.sources {
		source.unsubscribe(m)
	}
	m.sources = m.sources[:0]
	m.sourcesMu.Unlock()

	next := func() T {
		old := setCurrentListener(m)
		defer setCurrentListener(old)
		return m.compute()
	}()

	m.valueMu.Lock()
	m.value = next
	m.valueMu.Unlock()

	m.valid.Store(true)
}

var _ sourceTracker = (*Memo[int])(nil)
