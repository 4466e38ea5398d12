package list

import (
	"sync"
	"time"

	"github.com/vango-dev/primitives/pkg/reactive"
)

// MapFunc builds the output for a new item. It runs untracked inside the
// item's own scope; cleanups it registers run when the item is disposed.
type MapFunc[T comparable, U any] func(value reactive.Accessor[T], index reactive.Accessor[int]) U

// Mapper reconciles a source slice into mapped outputs. Create it with New
// or Array; the zero value is not usable.
//
// A pass runs under the Mapper's lock. The mapping function must not call
// Get on its own Mapper.
//
// Values are matched with == and used as map keys. When T is an interface
// type every dynamic value must be comparable: a slice, map or func held in
// an interface panics at runtime during a pass.
type Mapper[T comparable, U any] struct {
	mu sync.Mutex

	list  reactive.Accessor[[]T]
	mapFn MapFunc[T, U]
	cfg   config[U]

	owner *reactive.Owner

	// items holds one entry per output slot of the last non-empty pass.
	// Between passes its order is irrelevant; item.index locates the slot.
	items  []*item[T]
	mapped []U

	fallback        []U
	fallbackDispose func()

	disposed bool
}

// New creates a Mapper bound to the current owner. Disposing that owner
// disposes every tracked item and the fallback.
func New[T comparable, U any](list reactive.Accessor[[]T], mapFn MapFunc[T, U], opts ...Option[U]) *Mapper[T, U] {
	m := &Mapper[T, U]{
		list:  list,
		mapFn: mapFn,
		owner: reactive.GetOwner(),
	}
	for _, opt := range opts {
		opt(&m.cfg)
	}
	reactive.OnCleanup(m.Dispose)
	return m
}

// Array returns an accessor over the mapped slice of list. See New.
//
// A nil or empty source yields an empty slice, or a one-element slice with
// the fallback value when WithFallback is set.
func Array[T comparable, U any](list reactive.Accessor[[]T], mapFn MapFunc[T, U], opts ...Option[U]) reactive.Accessor[[]U] {
	return New(list, mapFn, opts...).Get
}

// Get reads the source (tracked) and reconciles (untracked). The returned
// slice is shared with the Mapper and must not be modified.
func (m *Mapper[T, U]) Get() []U {
	next := m.list()

	var (
		out   []U
		stats Stats
		ok    bool
	)
	reactive.Untracked(func() {
		out, stats, ok = m.reconcile(next)
	})

	if ok && m.cfg.observer != nil {
		m.cfg.observer.ObserveReconcile(stats)
	}
	return out
}

// Len returns the number of tracked items, not counting the fallback.
func (m *Mapper[T, U]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Snapshot returns a copy of the last output.
func (m *Mapper[T, U]) Snapshot() []U {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.mapped
	if m.fallback != nil {
		src = m.fallback
	}
	out := make([]U, len(src))
	copy(out, src)
	return out
}

// Tracked describes one tracked item.
type Tracked[T comparable] struct {
	Value T
	Index int

	// ValueObserved and IndexObserved report whether the consumer has read
	// the item's value or index accessor.
	ValueObserved bool
	IndexObserved bool
}

// Tracked returns the tracked items ordered by index.
func (m *Mapper[T, U]) Tracked() []Tracked[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Tracked[T], len(m.items))
	for _, it := range m.items {
		v, i := it.observed()
		out[it.index] = Tracked[T]{
			Value:         it.value,
			Index:         it.index,
			ValueObserved: v,
			IndexObserved: i,
		}
	}
	return out
}

// Dispose releases the fallback and every tracked item. Later calls to Get
// return nil.
func (m *Mapper[T, U]) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	fallbackDispose := m.fallbackDispose
	items := m.items
	m.fallbackDispose = nil
	m.fallback = nil
	m.items = nil
	m.mapped = nil
	m.mu.Unlock()

	if fallbackDispose != nil {
		fallbackDispose()
	}
	for _, it := range items {
		it.release()
	}
}

func (m *Mapper[T, U]) reconcile(next []T) ([]U, Stats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return nil, Stats{}, false
	}

	stats := Stats{Name: m.cfg.name, Len: len(next), Start: time.Now()}
	var out []U
	if len(next) == 0 {
		out = m.empty(&stats)
	} else {
		reactive.Batch(func() {
			out = m.diff(next, &stats)
		})
	}
	stats.Duration = time.Since(stats.Start)
	return out, stats, true
}

// empty handles a nil or empty source.
func (m *Mapper[T, U]) empty(stats *Stats) []U {
	for _, it := range m.items {
		it.release()
		stats.Disposed++
	}
	m.items = nil
	m.mapped = nil

	if m.cfg.fallback == nil {
		return []U{}
	}

	stats.Fallback = true
	if m.fallbackDispose == nil {
		m.fallback = []U{m.root(func(dispose func()) U {
			m.fallbackDispose = dispose
			return m.cfg.fallback()
		})}
		stats.Created++
	}
	return m.fallback
}

func (m *Mapper[T, U]) diff(next []T, stats *Stats) []U {
	if m.fallbackDispose != nil {
		m.fallbackDispose()
		m.fallbackDispose = nil
		m.fallback = nil
		stats.Disposed++
	}

	n := len(next)
	newMapped := make([]U, n)
	filled := make([]bool, n)

	// The unused pool is items[:unused]. Claimed items are swapped past it.
	unused := len(m.items)
	claim := func(j int) {
		unused--
		if unused != j {
			m.items[j], m.items[unused] = m.items[unused], m.items[j]
		}
	}

	// 1) same value, same index
	for j := unused - 1; j >= 0; j-- {
		it := m.items[j]
		if it.index < n && next[it.index] == it.value {
			newMapped[it.index] = m.mapped[it.index]
			filled[it.index] = true
			claim(j)
			stats.Kept++
		}
	}

	// 2) same value, new index. Duplicates are handed out last-in first-out.
	if unused > 0 {
		matcher := make(map[T][]int, unused)
		for j := 0; j < unused; j++ {
			v := m.items[j].value
			matcher[v] = append(matcher[v], j)
		}

		claimed := make([]bool, unused)
		for i := 0; i < n; i++ {
			if filled[i] {
				continue
			}
			pool := matcher[next[i]]
			if len(pool) == 0 {
				continue
			}
			j := pool[len(pool)-1]
			matcher[next[i]] = pool[:len(pool)-1]

			it := m.items[j]
			newMapped[i] = m.mapped[it.index]
			filled[i] = true
			it.setIndex(i)
			claimed[j] = true
			stats.Moved++
		}

		for j := unused - 1; j >= 0; j-- {
			if claimed[j] {
				claim(j)
			}
		}
	}

	// 3) same index, new value
	for j := unused - 1; j >= 0; j-- {
		it := m.items[j]
		if it.index < n && !filled[it.index] {
			newMapped[it.index] = m.mapped[it.index]
			filled[it.index] = true
			it.setValue(next[it.index])
			claim(j)
			stats.Rewritten++
		}
	}

	// 4) recycle whatever is left, then create
	for i := 0; i < n; i++ {
		if filled[i] {
			continue
		}
		if unused > 0 {
			unused--
			it := m.items[unused]
			newMapped[i] = m.mapped[it.index]
			it.setValue(next[i])
			it.setIndex(i)
			stats.Recycled++
		} else {
			newMapped[i] = m.create(next[i], i)
			stats.Created++
		}
		filled[i] = true
	}

	// 5) dispose the surplus
	surplus := make([]*item[T], unused)
	copy(surplus, m.items[:unused])
	m.items = append(m.items[:0], m.items[unused:]...)
	m.mapped = newMapped

	for _, it := range surplus {
		it.release()
		stats.Disposed++
	}
	return newMapped
}

func (m *Mapper[T, U]) create(v T, i int) U {
	it := &item[T]{value: v, index: i}
	out := m.root(func(dispose func()) U {
		it.dispose = dispose
		return m.mapFn(it.getValue, it.getIndex)
	})
	m.items = append(m.items, it)
	return out
}

// root opens a detached scope whose lookup parent is the Mapper's owner.
func (m *Mapper[T, U]) root(fn func(dispose func()) U) U {
	var out U
	reactive.WithOwner(m.owner, func() {
		out = reactive.CreateRoot(fn)
	})
	return out
}
