package list

import (
	"sync"

	"github.com/vango-dev/primitives/pkg/reactive"
)

// item is one tracked output slot.
//
// value and index are always current. valueSig and indexSig stay nil until
// the mapping function's accessors are first called; writes only reach a
// signal once it exists.
type item[T comparable] struct {
	mu sync.Mutex

	value T
	index int

	valueSig *reactive.Signal[T]
	indexSig *reactive.Signal[int]

	dispose  func()
	released bool
}

func identical[T comparable](a, b T) bool { return a == b }

func (it *item[T]) getValue() T {
	it.mu.Lock()
	if it.valueSig == nil && !it.released {
		it.valueSig = reactive.NewSignal(it.value).WithEquals(identical[T])
	}
	sig, v := it.valueSig, it.value
	it.mu.Unlock()

	if sig == nil {
		return v
	}
	return sig.Get()
}

func (it *item[T]) getIndex() int {
	it.mu.Lock()
	if it.indexSig == nil && !it.released {
		it.indexSig = reactive.NewSignal(it.index)
	}
	sig, i := it.indexSig, it.index
	it.mu.Unlock()

	if sig == nil {
		return i
	}
	return sig.Get()
}

func (it *item[T]) setValue(v T) {
	it.mu.Lock()
	it.value = v
	sig := it.valueSig
	it.mu.Unlock()

	if sig != nil {
		sig.Set(v)
	}
}

func (it *item[T]) setIndex(i int) {
	it.mu.Lock()
	it.index = i
	sig := it.indexSig
	it.mu.Unlock()

	if sig != nil {
		sig.Set(i)
	}
}

// release runs the item's disposer at most once.
func (it *item[T]) release() {
	it.mu.Lock()
	if it.released {
		it.mu.Unlock()
		return
	}
	it.released = true
	dispose := it.dispose
	it.mu.Unlock()

	if dispose != nil {
		dispose()
	}
}

// observed reports which cells the consumer has read.
func (it *item[T]) observed() (value, index bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.valueSig != nil, it.indexSig != nil
}
