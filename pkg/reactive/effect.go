package reactive

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Effect is a side effect that re-runs when the signals or memos it read
// during its last run change.
//
// Effects run once on creation. Later runs are scheduled on the owner and
// executed by Owner.RunPendingEffects. Effects created without an owner run
// once and never re-run.
type Effect struct {
	id uint64

	fn      func() Cleanup
	cleanup Cleanup

	sources   []*signalBase
	sourcesMu sync.Mutex

	owner *Owner

	pending  atomic.Bool
	disposed atomic.Bool

	name string
}

// MarkDirty schedules the effect for re-run.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}
	if e.pending.CompareAndSwap(false, true) && e.owner != nil {
		e.owner.scheduleEffect(e)
	}
}

// ID returns the unique identifier for this effect.
func (e *Effect) ID() uint64 {
	return e.id
}

func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	e.pending.Store(false)

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sourcesMu.Lock()
	for _, source := range e.sources {
		source.unsubscribe(e)
	}
	e.sources = e.sources[:0]
	e.sourcesMu.Unlock()

	var start time.Time
	if Debug.LogEffectRuns {
		start = time.Now()
	}

	oldListener := setCurrentListener(e)
	oldOwner := setCurrentOwner(e.owner)
	defer func() {
		setCurrentOwner(oldOwner)
		setCurrentListener(oldListener)
	}()

	e.cleanup = e.fn()

	if Debug.LogEffectRuns {
		logger().Debug("effect ran",
			zap.Uint64("effect", e.id),
			zap.String("name", e.name),
			zap.Duration("took", time.Since(start)))
	}
}

func (e *Effect) addSource(source *signalBase) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, s := range e.sources {
		if s == source {
			return
		}
	}
	e.sources = append(e.sources, source)
}

func (e *Effect) dispose() {
	if e.disposed.Swap(true) {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sourcesMu.Lock()
	for _, source := range e.sources {
		source.unsubscribe(e)
	}
	e.sources = nil
	e.sourcesMu.Unlock()
}

// EffectOption configures an Effect.
type EffectOption func(*Effect)

// EffectName names the effect in debug logs.
func EffectName(name string) EffectOption {
	return func(e *Effect) {
		e.name = name
	}
}

// CreateEffect creates an effect on the current owner and runs it.
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { fmt.Println("Cleanup") }
//	})
func CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	owner := getCurrentOwner()

	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: owner,
	}
	for _, opt := range opts {
		opt(e)
	}

	if owner != nil {
		owner.registerEffect(e)
	}

	e.run()
	return e
}

// OnMount runs fn once inside an untracked effect.
func OnMount(fn func()) {
	CreateEffect(func() Cleanup {
		Untracked(fn)
		return nil
	})
}
