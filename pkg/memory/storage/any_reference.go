package storage

import (
	"math"
	"unsafe"

	"github.com/flier/saltmem/pkg/memory"
	"github.com/flier/saltmem/pkg/memory/align"
)

// StdLike is the duck-typed standard-library allocator contract
// [AnyReference] also accepts besides a [memory.RawAllocator]: a bare
// Alloc(size)/Dealloc(ptr, size) pair with no alignment parameter.
type StdLike interface {
	Alloc(size int) unsafe.Pointer
	Dealloc(p unsafe.Pointer, size int)
}

// AnyReference is a type-erased handle over any [memory.RawAllocator], or
// a [StdLike] standard allocator. Unlike the generic [Reference], its
// concrete allocator type isn't visible in its own type parameters.
//
// The C++ source composes this out of one pointer plus a three-entry
// vtable. The Go realization keeps the "one instance, fixed dispatch
// table" shape but writes the table as a set of closures captured over
// the concrete value at construction time (see [NewAnyReference]) rather
// than function pointers taking an explicit `this` - closures are the
// idiomatic Go way to erase a concrete receiver while keeping static
// dispatch inside each slot.
type AnyReference struct {
	allocateNode      func(size, align int) unsafe.Pointer
	deallocateNode    func(p unsafe.Pointer, size, align int)
	maxNodeSize       func() int
	maxAlignment      func() int
	stateful          func() bool
	tryAllocateNode   func(size, align int) (unsafe.Pointer, bool)
	tryDeallocateNode func(p unsafe.Pointer, size, align int) bool
	composable        bool
}

var _ memory.RawAllocator = (*AnyReference)(nil)

// NewAnyReference probes a's concrete type once, at construction time,
// and writes the vtable entry matching whichever contract it satisfies:
// [memory.RawAllocator] (optionally also [memory.Composable]), or the
// duck-typed [StdLike] pair. It panics if a satisfies neither.
func NewAnyReference(a any) *AnyReference {
	ref := &AnyReference{}

	switch v := a.(type) {
	case memory.RawAllocator:
		ref.allocateNode = v.AllocateNode
		ref.deallocateNode = v.DeallocateNode
		ref.maxNodeSize = v.MaxNodeSize
		ref.maxAlignment = v.MaxAlignment
		ref.stateful = v.Stateful
		if c, ok := v.(memory.Composable); ok {
			ref.tryAllocateNode = c.TryAllocateNode
			ref.tryDeallocateNode = c.TryDeallocateNode
			ref.composable = true
		}
	case StdLike:
		ref.allocateNode = func(size, _ int) unsafe.Pointer { return v.Alloc(size) }
		ref.deallocateNode = func(p unsafe.Pointer, size, _ int) { v.Dealloc(p, size) }
		ref.maxNodeSize = func() int { return math.MaxInt }
		ref.maxAlignment = func() int { return align.MaxAlignment }
		ref.stateful = func() bool { return true }
	default:
		panic("storage: value implements neither memory.RawAllocator nor storage.StdLike")
	}

	return ref
}

// AllocateNode dispatches through the installed vtable entry.
func (r *AnyReference) AllocateNode(size, align int) unsafe.Pointer {
	return r.allocateNode(size, align)
}

// DeallocateNode dispatches through the installed vtable entry.
func (r *AnyReference) DeallocateNode(p unsafe.Pointer, size, align int) {
	r.deallocateNode(p, size, align)
}

// MaxNodeSize dispatches through the installed vtable entry.
func (r *AnyReference) MaxNodeSize() int { return r.maxNodeSize() }

// MaxAlignment dispatches through the installed vtable entry.
func (r *AnyReference) MaxAlignment() int { return r.maxAlignment() }

// Stateful dispatches through the installed vtable entry.
func (r *AnyReference) Stateful() bool { return r.stateful() }

// IsComposable reports whether the underlying allocator supports the
// try_* family - always false for a [StdLike]-backed reference, since the
// duck-typed contract has no absence-reporting variant.
func (r *AnyReference) IsComposable() bool { return r.composable }

// TryAllocateNode dispatches through the installed vtable entry. It
// panics if [AnyReference.IsComposable] is false.
func (r *AnyReference) TryAllocateNode(size, align int) (unsafe.Pointer, bool) {
	if !r.composable {
		panic("storage: underlying allocator is not composable")
	}
	return r.tryAllocateNode(size, align)
}

// TryDeallocateNode dispatches through the installed vtable entry. It
// panics if [AnyReference.IsComposable] is false.
func (r *AnyReference) TryDeallocateNode(p unsafe.Pointer, size, align int) bool {
	if !r.composable {
		panic("storage: underlying allocator is not composable")
	}
	return r.tryDeallocateNode(p, size, align)
}
