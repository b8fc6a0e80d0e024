// Package static implements a bump allocator over a caller-supplied
// fixed-size buffer: it never asks for more memory and never frees any,
// since the whole buffer is reclaimed at once by whoever owns it.
//
// Its bump-pointer cursor follows the same alignment arithmetic as
// pkg/memory/stack's fixedStack, implemented separately here without
// fence padding and without the block-growth layer on top.
package static

import (
	"unsafe"

	"github.com/flier/saltmem/pkg/memory"
	"github.com/flier/saltmem/pkg/memory/align"
	"github.com/flier/saltmem/pkg/memory/debugging"
)

// Static is a bump allocator over a single caller-supplied byte slice.
// DeallocateNode is a no-op: there is no free list and no way to give
// memory back short of discarding the whole Static.
type Static struct {
	storage []byte
	cur     uintptr
	end     uintptr
}

var _ memory.RawAllocator = (*Static)(nil)

// New creates a Static allocator carving allocations out of storage. The
// caller retains ownership of storage and must keep it alive for as long
// as the Static (and any memory it hands out) is in use.
func New(storage []byte) *Static {
	s := &Static{storage: storage}
	if len(storage) > 0 {
		s.cur = uintptr(unsafe.Pointer(&storage[0]))
		s.end = s.cur + uintptr(len(storage))
	}
	return s
}

// AllocateNode reserves size bytes aligned to alignment from the
// remaining storage. Exhaustion is fatal - a Static never grows.
func (s *Static) AllocateNode(size, alignment int) unsafe.Pointer {
	offset := align.AlignOffset(s.cur, uintptr(alignment))
	needed := offset + uintptr(size)
	if needed > s.end-s.cur {
		panic("static: storage exhausted")
	}

	if offset > 0 {
		debugging.Fill(unsafe.Pointer(s.cur), int(offset), debugging.Alignment)
	}
	start := s.cur + offset
	debugging.Fill(unsafe.Pointer(start), size, debugging.New)
	s.cur = start + uintptr(size)
	return unsafe.Pointer(start)
}

// DeallocateNode is a no-op: a Static allocator never frees memory.
func (s *Static) DeallocateNode(unsafe.Pointer, int, int) {}

// MaxNodeSize reports the number of bytes still unused in storage.
func (s *Static) MaxNodeSize() int { return int(s.end - s.cur) }

// MaxAlignment reports the strictest alignment this allocator supports
// without additional padding.
func (s *Static) MaxAlignment() int { return align.MaxAlignment }

// Stateful reports true: a Static holds a mutable cursor over its
// specific backing storage.
func (s *Static) Stateful() bool { return true }
