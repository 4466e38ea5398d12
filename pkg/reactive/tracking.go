package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state of one goroutine.
type trackingContext struct {
	// owner receives effects and cleanups created on this goroutine.
	owner *Owner

	// listener subscribes to every signal read. nil disables tracking.
	listener Listener

	// batchDepth counts nested Batch calls.
	batchDepth int

	// pending collects listeners notified while batchDepth > 0.
	pending []Listener
}

var trackingContexts sync.Map

// goroutineID parses the current goroutine id from the stack header
// ("goroutine <id> [...").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func currentContext() *trackingContext {
	gid := goroutineID()
	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}
	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

func getCurrentListener() Listener {
	return currentContext().listener
}

func setCurrentListener(l Listener) Listener {
	ctx := currentContext()
	old := ctx.listener
	ctx.listener = l
	return old
}

func getCurrentOwner() *Owner {
	return currentContext().owner
}

func setCurrentOwner(o *Owner) *Owner {
	ctx := currentContext()
	old := ctx.owner
	ctx.owner = o
	return old
}

// IsTracking reports whether signal reads on this goroutine currently
// register a dependency.
func IsTracking() bool {
	return getCurrentListener() != nil
}

// GetOwner returns the owner that new effects and cleanups attach to.
func GetOwner() *Owner {
	return getCurrentOwner()
}

// WithOwner runs fn with owner as the current owner. Goroutines that create
// effects or register cleanups use it to attach to a parent scope:
//
//	go func() {
//	    WithOwner(parent, func() {
//	        OnCleanup(stop)
//	    })
//	}()
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// WithListener runs fn with l tracking every signal read.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// ReleaseGoroutine drops the tracking context of the calling goroutine.
// Long-lived worker goroutines call it before exiting.
func ReleaseGoroutine() {
	trackingContexts.Delete(goroutineID())
}
