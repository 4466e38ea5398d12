package masonry

import (
	"github.com/vango-dev/primitives/pkg/list"
	"github.com/vango-dev/primitives/pkg/reactive"
)

// Options configures a reactive Masonry.
type Options[T any] struct {
	// Columns is the column count. Values below 1 count as 1.
	Columns reactive.MaybeAccessor[int]

	// Gap is the vertical space between stacked items.
	Gap reactive.MaybeAccessor[float64]

	// Height maps an item to its height. nil gives every item height 1.
	Height func(T) float64
}

// Item is one laid-out source value.
type Item[T any] struct {
	Value T   `json:"value"`
	Index int `json:"index"`
	Placement
}

type slot[T comparable] struct {
	value reactive.Accessor[T]
}

type state[T any] struct {
	items   []Item[T]
	columns int
	result  Result
}

// Masonry keeps a column layout of a reactive slice up to date.
type Masonry[T comparable] struct {
	layout *reactive.Memo[state[T]]
}

// New lays out source. Per-item slots are reconciled with list.Array, so a
// value that moves keeps its slot. The layout recomputes when the source,
// the column count, the gap or a slot's value changes.
func New[T comparable](source reactive.Accessor[[]T], opts Options[T]) *Masonry[T] {
	height := opts.Height
	if height == nil {
		height = func(T) float64 { return 1 }
	}

	slots := list.Array(source, func(v reactive.Accessor[T], _ reactive.Accessor[int]) *slot[T] {
		return &slot[T]{value: v}
	}, list.WithName[*slot[T]]("masonry"))

	layout := reactive.NewMemo(func() state[T] {
		current := slots()
		columns := reactive.Access(opts.Columns)
		if columns < 1 {
			columns = 1
		}

		values := make([]T, len(current))
		heights := make([]float64, len(current))
		for i, s := range current {
			values[i] = s.value()
			heights[i] = height(values[i])
		}

		res := Layout(heights, columns, reactive.Access(opts.Gap))
		items := make([]Item[T], len(current))
		for i := range current {
			items[i] = Item[T]{Value: values[i], Index: i, Placement: res.Placements[i]}
		}
		return state[T]{items: items, columns: columns, result: res}
	})

	return &Masonry[T]{layout: layout}
}

// Items returns every source value with its placement, in source order.
func (m *Masonry[T]) Items() []Item[T] {
	return m.layout.Get().items
}

// Height returns the height of the tallest column.
func (m *Masonry[T]) Height() float64 {
	return m.layout.Get().result.Height
}

// Columns returns the effective column count.
func (m *Masonry[T]) Columns() int {
	return m.layout.Get().columns
}

// ColumnHeights returns the height of every column.
func (m *Masonry[T]) ColumnHeights() []float64 {
	return m.layout.Get().result.ColumnHeights
}
