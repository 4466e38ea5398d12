package reactive

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Owner is a scope that owns effects, cleanups and child owners. Disposing
// an Owner disposes everything it contains.
//
// Owners form a tree. Attached children are disposed with their parent;
// detached children (see CreateRoot) keep a parent link for lookups only
// and are disposed by whoever holds their disposer.
type Owner struct {
	id uint64

	parent   *Owner
	detached bool

	children   []*Owner
	childrenMu sync.Mutex

	effects   []*Effect
	effectsMu sync.Mutex

	cleanups   []func()
	cleanupsMu sync.Mutex

	pendingEffects   []*Effect
	pendingEffectsMu sync.Mutex

	disposed atomic.Bool
}

// NewOwner creates an Owner attached to parent. A nil parent creates a
// root owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		parent.addChild(o)
	}
	return o
}

func newDetachedOwner(parent *Owner) *Owner {
	return &Owner{
		id:       nextID(),
		parent:   parent,
		detached: true,
	}
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed reports whether Dispose has run.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

func (o *Owner) registerEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}

	o.effectsMu.Lock()
	defer o.effectsMu.Unlock()
	o.effects = append(o.effects, e)
}

// OnCleanup registers fn to run when o is disposed. On a disposed owner fn
// runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}

	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// Run executes fn with o as the current owner.
func (o *Owner) Run(fn func()) error {
	if o.disposed.Load() {
		return ErrOwnerDisposed
	}
	WithOwner(o, fn)
	return nil
}

func (o *Owner) scheduleEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}

	o.pendingEffectsMu.Lock()
	defer o.pendingEffectsMu.Unlock()
	o.pendingEffects = append(o.pendingEffects, e)
}

// RunPendingEffects re-runs effects whose dependencies changed, then
// recurses into attached children.
func (o *Owner) RunPendingEffects() {
	if o.disposed.Load() {
		return
	}

	o.pendingEffectsMu.Lock()
	effects := o.pendingEffects
	o.pendingEffects = nil
	o.pendingEffectsMu.Unlock()

	for _, e := range effects {
		if e.pending.Load() {
			e.run()
		}
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.childrenMu.Unlock()

	for _, child := range children {
		child.RunPendingEffects()
	}
}

// HasPendingEffects reports whether o or an attached child has effects
// waiting to re-run.
func (o *Owner) HasPendingEffects() bool {
	if o.disposed.Load() {
		return false
	}

	o.pendingEffectsMu.Lock()
	pending := len(o.pendingEffects) > 0
	o.pendingEffectsMu.Unlock()
	if pending {
		return true
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.childrenMu.Unlock()

	for _, child := range children {
		if child.HasPendingEffects() {
			return true
		}
	}
	return false
}

// Dispose disposes children in reverse order, then effects, then runs
// cleanups in reverse registration order. It is idempotent.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil && !o.detached {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := o.children
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.effectsMu.Lock()
	effects := o.effects
	o.effects = nil
	o.effectsMu.Unlock()

	for _, e := range effects {
		e.dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	o.pendingEffectsMu.Lock()
	o.pendingEffects = nil
	o.pendingEffectsMu.Unlock()

	if Debug.LogDisposals {
		logger().Debug("owner disposed",
			zap.Uint64("owner", o.id),
			zap.Int("children", len(children)),
			zap.Int("cleanups", len(cleanups)))
	}
}

// CreateRoot runs fn inside a new detached scope and passes it the scope's
// disposer. The scope is not disposed with the current owner; the holder of
// dispose owns it. Signal reads inside fn are not tracked.
func CreateRoot[T any](fn func(dispose func()) T) T {
	root := newDetachedOwner(getCurrentOwner())

	oldOwner := setCurrentOwner(root)
	oldListener := setCurrentListener(nil)
	defer func() {
		setCurrentListener(oldListener)
		setCurrentOwner(oldOwner)
	}()

	return fn(root.Dispose)
}

// OnCleanup registers fn on the current owner. Without an owner the call is
// dropped.
func OnCleanup(fn func()) {
	owner := getCurrentOwner()
	if owner == nil {
		logger().Debug("OnCleanup called without an owner; cleanup dropped")
		return
	}
	owner.OnCleanup(fn)
}
