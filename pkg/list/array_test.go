package list

import (
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/primitives/pkg/reactive"
)

type row struct {
	id    int
	value reactive.Accessor[int]
	index reactive.Accessor[int]
}

type harness struct {
	owner *reactive.Owner
	src   *reactive.Signal[[]int]
	m     *Mapper[int, *row]

	nextID   int
	created  int
	disposed map[int]int
	last     Stats
}

func newHarness(t *testing.T, opts ...Option[*row]) *harness {
	t.Helper()

	h := &harness{
		owner:    reactive.NewOwner(nil),
		src:      reactive.NewSignal[[]int](nil).WithEquals(reactive.NeverEqual[[]int]),
		disposed: map[int]int{},
	}
	opts = append(opts, WithObserver[*row](ObserverFunc(func(s Stats) { h.last = s })))

	reactive.WithOwner(h.owner, func() {
		h.m = New(h.src.Get, func(v reactive.Accessor[int], i reactive.Accessor[int]) *row {
			h.nextID++
			h.created++
			r := &row{id: h.nextID, value: v, index: i}
			reactive.OnCleanup(func() { h.disposed[r.id]++ })
			return r
		}, opts...)
	})
	t.Cleanup(h.owner.Dispose)
	return h
}

func (h *harness) set(items ...int) []*row {
	h.src.Set(items)
	return h.m.Get()
}

func ids(rows []*row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out
}

func (h *harness) totalDisposed() int {
	n := 0
	for _, c := range h.disposed {
		n += c
	}
	return n
}

func TestArrayUnchangedSource(t *testing.T) {
	h := newHarness(t)
	first := h.set(1, 2, 3)
	second := h.set(1, 2, 3)

	if diff := cmp.Diff(ids(first), ids(second)); diff != "" {
		t.Errorf("rows changed (-first +second):\n%s", diff)
	}
	if h.created != 3 || h.totalDisposed() != 0 {
		t.Errorf("created %d disposed %d, want 3 and 0", h.created, h.totalDisposed())
	}
	if h.last.Kept != 3 || h.last.Created != 0 {
		t.Errorf("stats %+v, want 3 kept and no creations", h.last)
	}
}

func TestArrayReverseReusesEveryItem(t *testing.T) {
	h := newHarness(t)
	before := h.set(1, 2, 3)
	for _, r := range before {
		_ = r.index()
	}

	after := h.set(3, 2, 1)

	want := []int{before[2].id, before[1].id, before[0].id}
	if diff := cmp.Diff(want, ids(after)); diff != "" {
		t.Errorf("output order (-want +got):\n%s", diff)
	}
	if h.created != 3 || h.totalDisposed() != 0 {
		t.Errorf("created %d disposed %d, want 3 and 0", h.created, h.totalDisposed())
	}
	for i, r := range after {
		if got := r.index(); got != i {
			t.Errorf("row %d index = %d, want %d", r.id, got, i)
		}
		if got := r.value(); got != 3-i {
			t.Errorf("row %d value = %d, want %d", r.id, got, 3-i)
		}
	}
	if h.last.Kept != 1 || h.last.Moved != 2 {
		t.Errorf("stats %+v, want 1 kept and 2 moved", h.last)
	}
}

func TestArrayShrinkDisposesSurplus(t *testing.T) {
	h := newHarness(t)
	before := h.set(1, 2, 3)
	after := h.set(1, 2)

	if len(after) != 2 {
		t.Fatalf("len = %d, want 2", len(after))
	}
	if h.disposed[before[2].id] != 1 || h.totalDisposed() != 1 {
		t.Errorf("disposals %v, want only row %d once", h.disposed, before[2].id)
	}
	if h.m.Len() != 2 {
		t.Errorf("tracked items = %d, want 2", h.m.Len())
	}
}

func TestArrayDisjointValuesRewriteInPlace(t *testing.T) {
	h := newHarness(t)
	before := h.set(1, 2)
	after := h.set(5, 6)

	if diff := cmp.Diff(ids(before), ids(after)); diff != "" {
		t.Errorf("rows should be reused in place (-before +after):\n%s", diff)
	}
	if h.created != 2 || h.totalDisposed() != 0 {
		t.Errorf("created %d disposed %d, want 2 and 0", h.created, h.totalDisposed())
	}
	if after[0].value() != 5 || after[1].value() != 6 {
		t.Errorf("values = %d,%d, want 5,6", after[0].value(), after[1].value())
	}
	if h.last.Rewritten != 2 {
		t.Errorf("stats %+v, want 2 rewritten", h.last)
	}
}

func TestArrayRecyclesWhenNothingMatches(t *testing.T) {
	h := newHarness(t)
	before := h.set(1, 2, 3)
	after := h.set(7)

	// Index 0 is rewritten in place; the other two are surplus.
	if after[0].id != before[0].id {
		t.Errorf("row %d should be reused, got %d", before[0].id, after[0].id)
	}
	if h.totalDisposed() != 2 {
		t.Errorf("expected 2 disposals, got %d", h.totalDisposed())
	}

	h2 := newHarness(t)
	h2.set(1, 2)
	out := h2.set(9, 8, 7)
	if h2.created != 3 {
		t.Errorf("expected one new row, created total %d", h2.created)
	}
	if h2.last.Rewritten != 2 || h2.last.Created != 1 {
		t.Errorf("stats %+v", h2.last)
	}
	if out[2].value() != 7 {
		t.Errorf("new row value = %d, want 7", out[2].value())
	}
}

func TestArrayRecyclesAcrossPositions(t *testing.T) {
	h := newHarness(t)
	h.set(1, 2, 3)

	// 1 moves to index 1, which leaves index 0 without a positional match.
	// The 4 takes a leftover item and the third item is surplus.
	h.set(4, 1)

	if h.created != 3 {
		t.Errorf("no row should be created, created total %d", h.created)
	}
	if h.last.Moved != 1 || h.last.Recycled != 1 || h.last.Disposed != 1 {
		t.Errorf("stats %+v, want 1 moved, 1 recycled, 1 disposed", h.last)
	}

	h.set(7, 8, 9, 10)
	if h.last.Rewritten != 2 || h.last.Created != 2 {
		t.Errorf("stats %+v, want 2 rewritten and 2 created", h.last)
	}
}

func TestArrayInsertInMiddle(t *testing.T) {
	h := newHarness(t)
	before := h.set(1, 2, 3)
	after := h.set(1, 4, 2, 3)

	want := []int{before[0].id, 4, before[1].id, before[2].id}
	if diff := cmp.Diff(want, ids(after)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if h.last.Kept != 1 || h.last.Moved != 2 || h.last.Created != 1 {
		t.Errorf("stats %+v", h.last)
	}
}

func TestArrayDuplicateValuesReuseLastInFirstOut(t *testing.T) {
	h := newHarness(t)
	before := h.set(1, 2, 1)
	a, b, c := before[0], before[1], before[2]

	after := h.set(2, 1)

	// Both 1-rows are candidates for the 1 at index 1; the most recently
	// pooled one (c) wins and a is disposed.
	if diff := cmp.Diff([]int{b.id, c.id}, ids(after)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if h.disposed[a.id] != 1 || h.totalDisposed() != 1 {
		t.Errorf("disposals %v, want only row %d", h.disposed, a.id)
	}
}

func TestArrayFallback(t *testing.T) {
	fallbacks := 0
	fallbackRow := func() *row {
		fallbacks++
		return &row{id: -fallbacks}
	}
	h := newHarness(t, WithFallback(fallbackRow))

	out := h.set()
	if len(out) != 1 || out[0].id != -1 {
		t.Fatalf("expected the fallback row, got %v", ids(out))
	}
	if !h.last.Fallback || h.last.Created != 1 {
		t.Errorf("stats %+v", h.last)
	}

	out = h.set()
	if len(out) != 1 || fallbacks != 1 {
		t.Errorf("fallback must not be recreated, factory ran %d times", fallbacks)
	}

	out = h.set(1)
	if len(out) != 1 || out[0].id <= 0 {
		t.Errorf("expected a regular row, got %v", ids(out))
	}
	if h.last.Fallback || h.last.Disposed != 1 {
		t.Errorf("leaving the empty state should dispose the fallback, stats %+v", h.last)
	}

	h.set()
	if fallbacks != 2 {
		t.Errorf("fallback should be rebuilt after the list empties again, ran %d", fallbacks)
	}
	if h.totalDisposed() != 1 {
		t.Errorf("the regular row should be disposed, disposals %v", h.disposed)
	}
}

func TestArrayEmptyWithoutFallback(t *testing.T) {
	h := newHarness(t)
	h.set(1, 2)
	out := h.set()

	if out == nil || len(out) != 0 {
		t.Errorf("expected an empty non-nil slice, got %v", out)
	}
	if h.totalDisposed() != 2 || h.m.Len() != 0 {
		t.Errorf("disposed %d tracked %d", h.totalDisposed(), h.m.Len())
	}
}

func TestArrayLazyCells(t *testing.T) {
	h := newHarness(t)
	rows := h.set(10, 20, 30)
	_ = rows[1].index()

	h.set(30, 20, 10)
	tracked := h.m.Tracked()

	want := []Tracked[int]{
		{Value: 30, Index: 0},
		{Value: 20, Index: 1, IndexObserved: true},
		{Value: 10, Index: 2},
	}
	if diff := cmp.Diff(want, tracked); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	// Unobserved rows still report the right position when read later.
	if got := rows[0].index(); got != 2 {
		t.Errorf("row for 10 index = %d, want 2", got)
	}
}

func TestArrayIndexSignalNotifies(t *testing.T) {
	h := newHarness(t)
	rows := h.set(1, 2)

	var seen []int
	reactive.WithOwner(h.owner, func() {
		reactive.CreateEffect(func() reactive.Cleanup {
			seen = append(seen, rows[0].index())
			return nil
		})
	})

	h.set(2, 1)
	h.owner.RunPendingEffects()

	if diff := cmp.Diff([]int{0, 1}, seen); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestArrayDisposedWithOwner(t *testing.T) {
	fallbacks := 0
	h := newHarness(t, WithFallback(func() *row {
		fallbacks++
		return &row{id: -1}
	}))
	h.set(1, 2, 3)
	h.set()
	h.set(4, 5)

	h.owner.Dispose()

	for id, n := range h.disposed {
		if n != 1 {
			t.Errorf("row %d disposed %d times", id, n)
		}
	}
	if h.totalDisposed() != h.created {
		t.Errorf("created %d but disposed %d", h.created, h.totalDisposed())
	}
	if out := h.m.Get(); out != nil {
		t.Errorf("Get after dispose = %v, want nil", ids(out))
	}
}

func TestArrayInsideMemo(t *testing.T) {
	owner := reactive.NewOwner(nil)
	defer owner.Dispose()

	src := reactive.NewSignal([]string{"a", "b"})
	var rendered [][]string

	reactive.WithOwner(owner, func() {
		labels := reactive.NewMemo(Array(src.Get, func(v reactive.Accessor[string], _ reactive.Accessor[int]) reactive.Accessor[string] {
			return func() string { return "<" + v() + ">" }
		}))
		reactive.CreateEffect(func() reactive.Cleanup {
			var out []string
			for _, label := range labels.Get() {
				out = append(out, label())
			}
			rendered = append(rendered, out)
			return nil
		})
	})

	src.Set([]string{"b", "c"})
	owner.RunPendingEffects()

	want := [][]string{{"<a>", "<b>"}, {"<b>", "<c>"}}
	if diff := cmp.Diff(want, rendered, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestArrayMapPanicPropagates(t *testing.T) {
	owner := reactive.NewOwner(nil)
	defer owner.Dispose()

	var get reactive.Accessor[[]int]
	reactive.WithOwner(owner, func() {
		get = Array(func() []int { return []int{1} }, func(reactive.Accessor[int], reactive.Accessor[int]) int {
			panic("boom")
		})
	})

	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recovered %v, want boom", r)
		}
	}()
	get()
	t.Error("Get should have panicked")
}

func TestObservers(t *testing.T) {
	if Observers(nil, nil) != nil {
		t.Error("no observers should collapse to nil")
	}

	var a, b int
	obs := Observers(ObserverFunc(func(Stats) { a++ }), nil, ObserverFunc(func(Stats) { b++ }))
	obs.ObserveReconcile(Stats{})
	if a != 1 || b != 1 {
		t.Errorf("fan-out reached a=%d b=%d", a, b)
	}

	s := Stats{Kept: 1, Moved: 2, Rewritten: 3, Recycled: 4}
	if s.Reused() != 10 {
		t.Errorf("Reused() = %d", s.Reused())
	}
}

func TestArrayDisposerPanicPropagates(t *testing.T) {
	owner := reactive.NewOwner(nil)
	defer owner.Dispose()

	src := reactive.NewSignal([]int{1, 2, 3}).WithEquals(reactive.NeverEqual[[]int])
	disposed := map[int]int{}

	var m *Mapper[int, int]
	reactive.WithOwner(owner, func() {
		m = New(src.Get, func(v reactive.Accessor[int], _ reactive.Accessor[int]) int {
			val := v()
			reactive.OnCleanup(func() {
				disposed[val]++
				if val == 2 {
					panic("cleanup 2")
				}
			})
			return val
		})
	})

	if diff := cmp.Diff([]int{1, 2, 3}, m.Get()); diff != "" {
		t.Fatalf("initial (-want +got):\n%s", diff)
	}

	src.Set([]int{1})
	func() {
		defer func() {
			if r := recover(); r != "cleanup 2" {
				t.Errorf("recovered %v, want cleanup 2", r)
			}
		}()
		m.Get()
		t.Error("Get should have panicked")
	}()

	if diff := cmp.Diff([]int{1}, m.Get()); diff != "" {
		t.Errorf("after panic (-want +got):\n%s", diff)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if disposed[1] != 0 {
		t.Errorf("kept row disposed %d times", disposed[1])
	}
	if disposed[2] != 1 {
		t.Errorf("panicking row disposed %d times, want 1", disposed[2])
	}
	for val, n := range disposed {
		if n > 1 {
			t.Errorf("row %d disposed %d times", val, n)
		}
	}
	if reactive.IsTracking() {
		t.Error("listener left installed after the panic")
	}
}

func TestArrayInterfaceValues(t *testing.T) {
	owner := reactive.NewOwner(nil)
	defer owner.Dispose()

	src := reactive.NewSignal([]any{1, "a"}).WithEquals(reactive.NeverEqual[[]any])
	var (
		m    *Mapper[any, any]
		last Stats
	)
	reactive.WithOwner(owner, func() {
		m = New(src.Get, func(v reactive.Accessor[any], _ reactive.Accessor[int]) any {
			return v()
		}, WithObserver[any](ObserverFunc(func(s Stats) { last = s })))
	})

	if diff := cmp.Diff([]any{1, "a"}, m.Get()); diff != "" {
		t.Fatalf("initial (-want +got):\n%s", diff)
	}

	src.Set([]any{"a", 1})
	m.Get()
	if last.Moved != 2 {
		t.Errorf("Moved = %d, want 2", last.Moved)
	}

	src.Set([]any{[]int{1}})
	defer func() {
		if _, ok := recover().(runtime.Error); !ok {
			t.Error("expected a runtime panic for an uncomparable dynamic value")
		}
	}()
	m.Get()
	t.Error("Get should have panicked")
}
