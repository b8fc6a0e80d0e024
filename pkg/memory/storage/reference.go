// Package storage implements the allocator-storage layer that erases the
// stateful/stateless distinction behind a uniform handle
// ([Reference]/[AnyReference]), and the adapters that let any raw
// allocator in this module stand in for a per-type standard-library
// container allocator ([StdAllocator]) or a smart-pointer disposer
// ([Deallocator]/[Deleter]).
package storage

import (
	"unsafe"

	"github.com/flier/saltmem/pkg/memory"
)

// Reference borrows a raw allocator of type A for forwarding.
//
// The C++ source this is modeled on distinguishes stateful allocators
// (the reference holds a pointer) from stateless ones (the reference is
// empty, a zero-size type). Every raw allocator in this module is used
// through a Go pointer-receiver type regardless of what [memory.
// RawAllocator.Stateful] reports for it (compare [github.com/flier/
// saltmem/pkg/memory/lowlevel.LowLevel], which is stateless yet still
// handle-shaped) - so that empty-base-optimization case has no
// observable Go analogue, and Reference simply stores A directly for
// every allocator, stateful or not. This is a deliberate, documented
// simplification, not a dropped feature: the distinction still affects
// behavior through [Reference.Stateful], just not through Reference's
// own memory layout.
type Reference[A memory.RawAllocator] struct {
	allocator A
}

// NewReference wraps a for forwarding through a Reference.
func NewReference[A memory.RawAllocator](a A) Reference[A] {
	return Reference[A]{allocator: a}
}

var _ memory.RawAllocator = Reference[memory.RawAllocator]{}

// Get returns the underlying allocator instance.
func (r Reference[A]) Get() A { return r.allocator }

// AllocateNode forwards to the underlying allocator.
func (r Reference[A]) AllocateNode(size, align int) unsafe.Pointer {
	return r.allocator.AllocateNode(size, align)
}

// DeallocateNode forwards to the underlying allocator.
func (r Reference[A]) DeallocateNode(p unsafe.Pointer, size, align int) {
	r.allocator.DeallocateNode(p, size, align)
}

// AllocateArray forwards to the underlying allocator's AllocateArray if it
// implements [memory.ArrayAllocator], otherwise falls through to
// AllocateNode with n*nodeSize bytes.
func (r Reference[A]) AllocateArray(n, nodeSize, align int) unsafe.Pointer {
	if aa, ok := any(r.allocator).(memory.ArrayAllocator); ok {
		return aa.AllocateArray(n, nodeSize, align)
	}
	return r.allocator.AllocateNode(n*nodeSize, align)
}

// DeallocateArray is the counterpart of [Reference.AllocateArray].
func (r Reference[A]) DeallocateArray(p unsafe.Pointer, n, nodeSize, align int) {
	if aa, ok := any(r.allocator).(memory.ArrayAllocator); ok {
		aa.DeallocateArray(p, n, nodeSize, align)
		return
	}
	r.allocator.DeallocateNode(p, n*nodeSize, align)
}

// MaxNodeSize forwards to the underlying allocator.
func (r Reference[A]) MaxNodeSize() int { return r.allocator.MaxNodeSize() }

// MaxAlignment forwards to the underlying allocator.
func (r Reference[A]) MaxAlignment() int { return r.allocator.MaxAlignment() }

// Stateful forwards to the underlying allocator.
func (r Reference[A]) Stateful() bool { return r.allocator.Stateful() }
