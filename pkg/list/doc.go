// Package list maps a reactive slice to a slice of derived values while
// keeping per-item state alive across updates.
//
// Array diffs every new source slice against the items tracked from the
// previous run and reuses them in this order of preference:
//
//  1. same value at the same index (nothing is written)
//  2. same value at a different index (the index cell is updated)
//  3. different value at the same index (the value cell is updated)
//  4. any leftover item (both cells are updated)
//
// Only when no leftover item remains is the mapping function called, inside
// a fresh scope. Items that remain unmatched are disposed once every slot of
// the new slice has been decided.
//
//	rows := list.Array(todos.Get, func(v reactive.Accessor[Todo], i reactive.Accessor[int]) *Row {
//	    return newRow(v, i)
//	}, list.WithFallback(func() *Row { return emptyRow() }))
//
// The value and index accessors handed to the mapping function allocate
// their backing signal on first read, so items whose position is never
// observed cost no signal writes when they move.
package list
