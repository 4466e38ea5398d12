package list

import "time"

// Stats describes one reconciliation pass.
type Stats struct {
	// Name is the label set with WithName.
	Name string `json:"name,omitempty"`

	// Len is the length of the source slice.
	Len int `json:"len"`

	// Kept items matched value and index.
	Kept int `json:"kept"`
	// Moved items matched value at a new index.
	Moved int `json:"moved"`
	// Rewritten items kept their index and took a new value.
	Rewritten int `json:"rewritten"`
	// Recycled items took both a new value and a new index.
	Recycled int `json:"recycled"`

	// Created and Disposed count scopes, the fallback scope included.
	Created  int `json:"created"`
	Disposed int `json:"disposed"`

	// Fallback is true when the output is the fallback value.
	Fallback bool `json:"fallback"`

	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
}

// Reused returns the number of items carried over from the previous pass.
func (s Stats) Reused() int {
	return s.Kept + s.Moved + s.Rewritten + s.Recycled
}

// Observer receives the Stats of every pass. It is called synchronously
// after the pass, outside the reconciler's lock.
type Observer interface {
	ObserveReconcile(Stats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Stats)

// ObserveReconcile calls f.
func (f ObserverFunc) ObserveReconcile(s Stats) { f(s) }

type multiObserver []Observer

func (m multiObserver) ObserveReconcile(s Stats) {
	for _, o := range m {
		o.ObserveReconcile(s)
	}
}

// Observers fans out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	var out multiObserver
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

type config[U any] struct {
	name     string
	fallback func() U
	observer Observer
}

// Option configures a Mapper.
type Option[U any] func(*config[U])

// WithFallback sets the factory for the single value shown while the
// source is empty. The factory runs once per empty period, in its own
// scope.
func WithFallback[U any](fn func() U) Option[U] {
	return func(c *config[U]) {
		c.fallback = fn
	}
}

// WithObserver registers an observer for pass statistics.
func WithObserver[U any](o Observer) Option[U] {
	return func(c *config[U]) {
		c.observer = o
	}
}

// WithName labels the Stats this mapper reports.
func WithName[U any](name string) Option[U] {
	return func(c *config[U]) {
		c.name = name
	}
}
