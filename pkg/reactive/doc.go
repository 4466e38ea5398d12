// Package reactive provides the fine-grained reactivity runtime the
// primitives in this module are built on.
//
// Dependencies are tracked automatically at runtime: reading a Signal or Memo
// while a listener (an Effect or a Memo computation) is running subscribes
// that listener to the value's changes.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//
// Memo[T] is a cached derived computation:
//
//	doubled := NewMemo(func() int { return count.Get() * 2 })
//
// LazyMemo[T] is a memo that detaches from its sources while nobody
// observes it.
//
// Effect runs side effects when dependencies change:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return nil
//	})
//
// # Scopes
//
// Every effect and cleanup belongs to an Owner. Disposing an Owner disposes
// its children, its effects and runs its cleanups. CreateRoot opens a
// detached scope and hands the caller its disposer:
//
//	out := CreateRoot(func(dispose func()) string {
//	    OnCleanup(func() { fmt.Println("released") })
//	    return "row"
//	})
//
// # Thread Safety
//
// Primitives may be shared between goroutines. The tracking context is
// per-goroutine, so goroutines that create effects need WithOwner.
package reactive
