package reactive

import "errors"

// ErrOwnerDisposed is returned when work is submitted to a disposed Owner.
var ErrOwnerDisposed = errors.New("reactive: owner disposed")

// ErrCircularDependency is logged when a memo is read during its own
// computation. The read returns the previous value.
var ErrCircularDependency = errors.New("reactive: circular dependency")
