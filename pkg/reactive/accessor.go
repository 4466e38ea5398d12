package reactive

// Accessor is a zero-argument getter. Calling it inside a tracked scope
// registers whatever it reads as a dependency.
type Accessor[T any] func() T

// MaybeAccessor holds either a plain value or an Accessor. The zero value
// yields the zero T.
type MaybeAccessor[T any] struct {
	value T
	fn    Accessor[T]
}

// Static wraps a plain value.
func Static[T any](v T) MaybeAccessor[T] {
	return MaybeAccessor[T]{value: v}
}

// Dynamic wraps an accessor.
func Dynamic[T any](fn Accessor[T]) MaybeAccessor[T] {
	return MaybeAccessor[T]{fn: fn}
}

// Get returns the wrapped value, calling the accessor if there is one.
func (m MaybeAccessor[T]) Get() T {
	if m.fn != nil {
		return m.fn()
	}
	return m.value
}

// IsDynamic reports whether m wraps an accessor.
func (m MaybeAccessor[T]) IsDynamic() bool {
	return m.fn != nil
}

// Access unwraps a MaybeAccessor.
func Access[T any](m MaybeAccessor[T]) T {
	return m.Get()
}

// AccessOr unwraps m and falls back to def when the result is the zero
// value.
func AccessOr[T comparable](m MaybeAccessor[T], def T) T {
	var zero T
	if v := m.Get(); v != zero {
		return v
	}
	return def
}
