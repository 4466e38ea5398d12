package scenario

import (
	"strconv"
	"sync"

	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/pkg/list"
	"github.com/vango-dev/primitives/pkg/reactive"
)

// Row is the mapped output of one tracked item. ID is assigned when the row
// is created and never changes, so reuse shows up as a stable ID.
type Row struct {
	ID       int
	Value    reactive.Accessor[string]
	Index    reactive.Accessor[int]
	Fallback bool
}

// RowReport is a Row read at the end of a step.
type RowReport struct {
	ID       int    `json:"id"`
	Value    string `json:"value"`
	Index    int    `json:"index"`
	Fallback bool   `json:"fallback,omitempty"`
}

// StepReport describes the outcome of one step.
type StepReport struct {
	Name     string      `json:"name"`
	Items    []string    `json:"items"`
	Rows     []RowReport `json:"rows"`
	Created  []int       `json:"created,omitempty"`
	Disposed []int       `json:"disposed,omitempty"`
	Stats    list.Stats  `json:"stats"`
}

type sessionConfig struct {
	fallback    string
	hasFallback bool
	observer    list.Observer
	listName    string
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

// WithFallback shows a single fallback row with text while the source is
// empty.
func WithFallback(text string) SessionOption {
	return func(c *sessionConfig) {
		c.fallback = text
		c.hasFallback = true
	}
}

// WithObserver forwards pass statistics to o.
func WithObserver(o list.Observer) SessionOption {
	return func(c *sessionConfig) {
		c.observer = o
	}
}

// WithListName reports list Stats under label instead of the session name.
// Metrics label series by list name, so servers pass a fixed label here.
func WithListName(label string) SessionOption {
	return func(c *sessionConfig) {
		c.listName = label
	}
}

// Session owns a root scope with one source signal and one mapped list.
// It is safe for concurrent use; steps are serialized.
type Session struct {
	mu sync.Mutex

	name    string
	source  *reactive.Signal[[]string]
	rows    *list.Mapper[string, *Row]
	dispose func()

	nextID   int
	steps    int
	created  []int
	disposed []int
	last     list.Stats
	closed   bool
}

// NewSession creates a session whose list reports Stats under name, or
// under the WithListName label when one is set.
func NewSession(name string, opts ...SessionOption) *Session {
	cfg := sessionConfig{listName: name}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{name: name}
	s.dispose = reactive.CreateRoot(func(dispose func()) func() {
		s.source = reactive.NewSignal[[]string](nil).WithEquals(reactive.NeverEqual[[]string])

		listOpts := []list.Option[*Row]{
			list.WithName[*Row](cfg.listName),
			list.WithObserver[*Row](list.Observers(list.ObserverFunc(s.record), cfg.observer)),
		}
		if cfg.hasFallback {
			text := cfg.fallback
			listOpts = append(listOpts, list.WithFallback(func() *Row {
				return s.newRow(func() string { return text }, func() int { return 0 }, true)
			}))
		}
		s.rows = list.New(s.source.Get, s.mapRow, listOpts...)
		return dispose
	})
	return s
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.name
}

// Step replaces the source with items and reconciles.
func (s *Session) Step(name string, items []string) (StepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return StepReport{}, errors.New("E403").WithDetail(s.name)
	}
	s.steps++
	if name == "" {
		name = "step " + strconv.Itoa(s.steps)
	}

	s.created, s.disposed = nil, nil
	src := append([]string(nil), items...)
	s.source.Set(src)
	out := s.rows.Get()

	return StepReport{
		Name:     name,
		Items:    src,
		Rows:     readRows(out),
		Created:  s.created,
		Disposed: s.disposed,
		Stats:    s.last,
	}, nil
}

// Rows returns the current output without reconciling.
func (s *Session) Rows() []RowReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return readRows(s.rows.Snapshot())
}

// Tracked returns the tracked items and which of their cells were read.
func (s *Session) Tracked() []list.Tracked[string] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.rows.Tracked()
}

// Close disposes every row and returns their IDs. Later calls return nil.
func (s *Session) Close() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.disposed = nil
	s.dispose()
	return s.disposed
}

func (s *Session) mapRow(value reactive.Accessor[string], index reactive.Accessor[int]) *Row {
	return s.newRow(value, index, false)
}

// newRow runs inside the row's scope with s.mu held by Step.
func (s *Session) newRow(value reactive.Accessor[string], index reactive.Accessor[int], fallback bool) *Row {
	s.nextID++
	r := &Row{ID: s.nextID, Value: value, Index: index, Fallback: fallback}
	s.created = append(s.created, r.ID)
	reactive.OnCleanup(func() {
		s.disposed = append(s.disposed, r.ID)
	})
	return r
}

func (s *Session) record(st list.Stats) {
	s.last = st
}

func readRows(rows []*Row) []RowReport {
	out := make([]RowReport, len(rows))
	for i, r := range rows {
		out[i] = RowReport{
			ID:       r.ID,
			Value:    r.Value(),
			Index:    r.Index(),
			Fallback: r.Fallback,
		}
	}
	return out
}
