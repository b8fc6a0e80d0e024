// Package lock provides an optional serialisation wrapper: every raw
// allocator in this module is single-threaded by default, and Locked
// wraps one behind a caller-chosen sync.Locker for the rare case where
// concurrent access is needed.
package lock

import (
	"unsafe"

	"github.com/flier/saltmem/pkg/memory"
)

// NoopMutex satisfies sync.Locker while doing nothing: the default lock
// for allocators that are never shared across goroutines, used so
// [Locked] can wrap a stateless allocator without forcing real
// synchronization on callers who don't need it.
type NoopMutex struct{}

// Lock does nothing.
func (NoopMutex) Lock() {}

// Unlock does nothing.
func (NoopMutex) Unlock() {}

// Locker is the minimal mutual-exclusion contract Locked serialises
// around - satisfied by sync.Mutex, sync.RWMutex (via its Lock/Unlock
// pair) and NoopMutex alike.
type Locker interface {
	Lock()
	Unlock()
}

// Locked wraps a memory.RawAllocator (optionally an
// memory.ArrayAllocator too) with a caller-supplied Locker, serialising
// every operation around it. It exists purely as an opt-in: nothing in
// this module requires an allocator to be wrapped in one.
type Locked[A memory.RawAllocator] struct {
	mu    Locker
	inner A
}

var _ memory.RawAllocator = (*Locked[memory.RawAllocator])(nil)

// New wraps inner with mu, locking and unlocking mu around every
// RawAllocator call made through the returned Locked.
func New[A memory.RawAllocator](inner A, mu Locker) *Locked[A] {
	if mu == nil {
		mu = NoopMutex{}
	}
	return &Locked[A]{mu: mu, inner: inner}
}

// AllocateNode locks mu, delegates to the wrapped allocator, and unlocks.
func (l *Locked[A]) AllocateNode(size, align int) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.AllocateNode(size, align)
}

// DeallocateNode locks mu, delegates to the wrapped allocator, and
// unlocks.
func (l *Locked[A]) DeallocateNode(p unsafe.Pointer, size, align int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.DeallocateNode(p, size, align)
}

// MaxNodeSize delegates to the wrapped allocator under lock.
func (l *Locked[A]) MaxNodeSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.MaxNodeSize()
}

// MaxAlignment delegates to the wrapped allocator under lock.
func (l *Locked[A]) MaxAlignment() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.MaxAlignment()
}

// Stateful always reports true: a Locked allocator holds a mutex, so two
// instances are never interchangeable even if the wrapped allocator is
// stateless.
func (l *Locked[A]) Stateful() bool { return true }

// arrayAllocator is the subset of memory.ArrayAllocator Locked forwards
// when the wrapped allocator supports it.
type arrayAllocator interface {
	AllocateArray(n, nodeSize, align int) unsafe.Pointer
	DeallocateArray(p unsafe.Pointer, n, nodeSize, align int)
}

// AllocateArray delegates to the wrapped allocator under lock. It panics
// if the wrapped allocator does not implement array allocation.
func (l *Locked[A]) AllocateArray(n, nodeSize, align int) unsafe.Pointer {
	aa, ok := any(l.inner).(arrayAllocator)
	if !ok {
		panic("lock: wrapped allocator does not support array allocation")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return aa.AllocateArray(n, nodeSize, align)
}

// DeallocateArray delegates to the wrapped allocator under lock. It
// panics if the wrapped allocator does not implement array allocation.
func (l *Locked[A]) DeallocateArray(p unsafe.Pointer, n, nodeSize, align int) {
	aa, ok := any(l.inner).(arrayAllocator)
	if !ok {
		panic("lock: wrapped allocator does not support array allocation")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	aa.DeallocateArray(p, n, nodeSize, align)
}
