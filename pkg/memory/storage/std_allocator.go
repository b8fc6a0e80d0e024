package storage

import "unsafe"

// StatefulComparable is the constraint [StdAllocator] requires of its
// underlying allocator type: a raw allocator whose instances can be
// compared for identity, needed for [StdAllocator.Equal]. Every concrete
// allocator type in this module (all pointer-receiver types) satisfies
// it automatically.
type StatefulComparable interface {
	AllocateNode(size, align int) unsafe.Pointer
	DeallocateNode(p unsafe.Pointer, size, align int)
	MaxNodeSize() int
	MaxAlignment() int
	Stateful() bool
	comparable
}

// StdAllocator turns a raw allocator of type A into a per-type allocator
// for T, the shape standard library-style generic containers expect:
// Allocate/Deallocate sized and aligned for T instead of in raw bytes.
type StdAllocator[T any, A StatefulComparable] struct {
	ref Reference[A]
}

// NewStdAllocator wraps a as a StdAllocator[T, A].
func NewStdAllocator[T any, A StatefulComparable](a A) StdAllocator[T, A] {
	return StdAllocator[T, A]{ref: NewReference[A](a)}
}

func elemSizeAlign[T any]() (size, alignment int) {
	var zero T
	return int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
}

// Allocate reserves room for n contiguous values of T, using the
// underlying allocator's array allocation if available (see
// [Reference.AllocateArray]).
func (s StdAllocator[T, A]) Allocate(n int) *T {
	size, alignment := elemSizeAlign[T]()
	p := s.ref.AllocateArray(n, size, alignment)
	return (*T)(p)
}

// Deallocate releases memory returned by [StdAllocator.Allocate]. n must
// match the original allocation's count exactly.
func (s StdAllocator[T, A]) Deallocate(p *T, n int) {
	size, alignment := elemSizeAlign[T]()
	s.ref.DeallocateArray(unsafe.Pointer(p), n, size, alignment)
}

// PropagateOnCopy reports whether a container copy should carry this
// allocator along with it rather than default-constructing a new one -
// true unless the underlying allocator is stateful, matching
// propagate_on_container_copy_assignment = !stateful.
func (s StdAllocator[T, A]) PropagateOnCopy() bool { return !s.ref.Stateful() }

// PropagateOnMove is the move-assignment analogue of
// [StdAllocator.PropagateOnCopy].
func (s StdAllocator[T, A]) PropagateOnMove() bool { return !s.ref.Stateful() }

// PropagateOnSwap is always false.
func (s StdAllocator[T, A]) PropagateOnSwap() bool { return false }

// Equal reports whether s and other reference the same underlying
// allocator instance - or are both stateless wrappers of the same type,
// since stateless allocators are interchangeable by definition.
func (s StdAllocator[T, A]) Equal(other StdAllocator[T, A]) bool {
	if !s.ref.Stateful() {
		return true
	}
	return s.ref.Get() == other.ref.Get()
}

// Rebind produces a StdAllocator for a different element type U sharing
// the same underlying allocator instance as s.
func Rebind[U any, T any, A StatefulComparable](s StdAllocator[T, A]) StdAllocator[U, A] {
	return StdAllocator[U, A]{ref: s.ref}
}
