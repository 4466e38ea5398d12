package reactive

import "go.uber.org/zap"

// Batch groups signal updates into one notification phase. Listeners
// notified inside fn are collected, deduplicated and marked dirty once the
// outermost batch returns.
//
//	Batch(func() {
//	    first.Set("John")
//	    last.Set("Doe")
//	})
func Batch(fn func()) {
	ctx := currentContext()
	ctx.batchDepth++

	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth == 0 {
			flushPending(ctx)
		}
	}()

	fn()
}

// BatchNamed is Batch with a name logged at debug level around the batch.
func BatchNamed(name string, fn func()) {
	if DebugMode {
		logger().Debug("batch start", zap.String("batch", name))
		defer logger().Debug("batch end", zap.String("batch", name))
	}
	Batch(fn)
}

func flushPending(ctx *trackingContext) {
	updates := ctx.pending
	ctx.pending = nil
	if len(updates) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(updates))
	for _, l := range updates {
		id := l.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		l.MarkDirty()
	}
}

// Untracked runs fn without registering dependencies on the current
// listener.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}

// Untrack is Untracked for functions that return a value.
func Untrack[T any](fn func() T) T {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	return fn()
}
