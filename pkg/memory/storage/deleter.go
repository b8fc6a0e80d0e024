package storage

import (
	"unsafe"

	"github.com/flier/saltmem/pkg/memory"
)

// closer is the Go duck-typed stand-in for "invoke T's destructor": Go
// values have no destructors, so [Deleter] and [ArrayDeleter] call Close
// when T implements it, the same convention
// [github.com/flier/saltmem/pkg/memory/lowlevel.LowLevel] uses for its
// own teardown.
type closer interface{ Close() }

// Deallocator is a pass-by-value, one-reference disposer that frees a
// single T-sized node via the underlying allocator without running any
// destructor - the smart-pointer "just free the memory" functor.
type Deallocator[T any, A memory.RawAllocator] struct {
	ref Reference[A]
}

// NewDeallocator wraps a as a Deallocator[T, A].
func NewDeallocator[T any, A memory.RawAllocator](a A) Deallocator[T, A] {
	return Deallocator[T, A]{ref: NewReference[A](a)}
}

// Deallocate releases the single node at p.
func (d Deallocator[T, A]) Deallocate(p *T) {
	size, alignment := elemSizeAlign[T]()
	d.ref.DeallocateNode(unsafe.Pointer(p), size, alignment)
}

// Deleter additionally invokes T's Close (if it implements one) before
// deallocating, the disposer used behind an owning smart pointer.
type Deleter[T any, A memory.RawAllocator] struct {
	Deallocator[T, A]
}

// NewDeleter wraps a as a Deleter[T, A].
func NewDeleter[T any, A memory.RawAllocator](a A) Deleter[T, A] {
	return Deleter[T, A]{Deallocator: NewDeallocator[T, A](a)}
}

// Delete closes p (if T implements [closer]) then deallocates it.
func (d Deleter[T, A]) Delete(p *T) {
	if c, ok := any(p).(closer); ok {
		c.Close()
	}
	d.Deallocate(p)
}

// ArrayDeallocator is the array-allocation counterpart of [Deallocator]:
// it remembers the element count n so it can release the whole run in
// one [Reference.DeallocateArray] call.
type ArrayDeallocator[T any, A memory.RawAllocator] struct {
	ref Reference[A]
	n   int
}

// NewArrayDeallocator wraps a as an ArrayDeallocator for a run of n
// elements.
func NewArrayDeallocator[T any, A memory.RawAllocator](a A, n int) ArrayDeallocator[T, A] {
	return ArrayDeallocator[T, A]{ref: NewReference[A](a), n: n}
}

// Deallocate releases the n-element run starting at p.
func (d ArrayDeallocator[T, A]) Deallocate(p *T) {
	size, alignment := elemSizeAlign[T]()
	d.ref.DeallocateArray(unsafe.Pointer(p), d.n, size, alignment)
}

// ArrayDeleter additionally closes each element (if T implements
// [closer]) in forward order before deallocating the run.
type ArrayDeleter[T any, A memory.RawAllocator] struct {
	ArrayDeallocator[T, A]
}

// NewArrayDeleter wraps a as an ArrayDeleter for a run of n elements.
func NewArrayDeleter[T any, A memory.RawAllocator](a A, n int) ArrayDeleter[T, A] {
	return ArrayDeleter[T, A]{ArrayDeallocator: NewArrayDeallocator[T, A](a, n)}
}

// Delete closes each of the n elements starting at p, in forward order,
// then deallocates the whole run.
func (d ArrayDeleter[T, A]) Delete(p *T) {
	size, _ := elemSizeAlign[T]()
	for i := 0; i < d.n; i++ {
		elem := (*T)(unsafe.Add(unsafe.Pointer(p), uintptr(i)*uintptr(size)))
		if c, ok := any(elem).(closer); ok {
			c.Close()
		}
	}
	d.Deallocate(p)
}
