// Package stack implements a LIFO memory-stack allocator over a sequence
// of blocks drawn from an arena: allocation bumps a cursor within the
// current block, and unwinding to a previously captured marker releases
// every block newer than it back to the arena in one step.
package stack

import (
	"unsafe"

	"github.com/flier/saltmem/pkg/memory"
	"github.com/flier/saltmem/pkg/memory/align"
	"github.com/flier/saltmem/pkg/memory/block"
	"github.com/flier/saltmem/pkg/memory/debugging"
)

// fixedStack is a bump-pointer cursor over a single block; it never
// grows on its own.
type fixedStack struct {
	cur uintptr
	end uintptr
}

func (s *fixedStack) init(b block.Block) {
	s.cur = uintptr(b.Memory)
	s.end = uintptr(b.Memory) + uintptr(b.Size)
}

// allocate reserves size bytes aligned to alignment, bracketed by
// debugging.FenceSize fence bytes on either side, returning the interior
// (payload) pointer and whether there was room.
func (s *fixedStack) allocate(size, alignment int) (unsafe.Pointer, bool) {
	if s.cur == 0 {
		return nil, false
	}

	fence := uintptr(debugging.FenceSize)
	remaining := s.end - s.cur
	offset := align.AlignOffset(s.cur+fence, uintptr(alignment))

	needed := fence + offset + uintptr(size) + fence
	if needed > remaining {
		return nil, false
	}

	start := s.cur
	debugging.Fill(unsafe.Pointer(start), int(fence), debugging.Fence)
	payloadStart := start + fence + offset
	debugging.Fill(unsafe.Pointer(start+fence), int(offset), debugging.Alignment)
	debugging.Fill(unsafe.Pointer(payloadStart), size, debugging.New)
	debugging.Fill(unsafe.Pointer(payloadStart+uintptr(size)), int(fence), debugging.Fence)

	s.cur = payloadStart + uintptr(size) + fence
	return unsafe.Pointer(payloadStart), true
}

func (s *fixedStack) top() uintptr { return s.cur }

func (s *fixedStack) unwindTo(pos uintptr) {
	if s.cur > pos {
		debugging.Fill(unsafe.Pointer(pos), int(s.cur-pos), debugging.Freed)
	}
	s.cur = pos
}

// Marker identifies a point in a Stack's allocation history, captured by
// [Stack.Top] and consumed by [Stack.Unwind]. Markers are comparable in
// program order: one created no later than another compares less-or-equal
// to it via [Marker.LessEqual].
type Marker struct {
	blockIndex int
	cursor     uintptr
}

// LessEqual reports whether m was captured no later than other in program
// order on the same Stack.
func (m Marker) LessEqual(other Marker) bool {
	if m.blockIndex != other.blockIndex {
		return m.blockIndex < other.blockIndex
	}
	return m.cursor <= other.cursor
}

// Stack is a growing LIFO memory-stack allocator: an arena (any
// [block.BlockAllocator]) supplying blocks, plus a cursor bump-allocating
// within the most recent one.
type Stack struct {
	blocksOf block.BlockAllocator
	blocks   []block.Block
	cur      fixedStack
}

// New creates a Stack that draws its blocks from blockAlloc.
func New(blockAlloc block.BlockAllocator) *Stack {
	return &Stack{blocksOf: blockAlloc}
}

var _ memory.RawAllocator = (*Stack)(nil)

func (s *Stack) growBlock() {
	b := s.blocksOf.Allocate()
	s.blocks = append(s.blocks, b)
	s.cur.init(b)
}

// AllocateNode reserves size bytes aligned to align. If the current block
// has no room, a new block is requested from the arena and allocation is
// retried once; failing that is fatal, since the block allocator itself
// is the last line of defense against running out of memory.
func (s *Stack) AllocateNode(size, alignment int) unsafe.Pointer {
	if len(s.blocks) == 0 {
		s.growBlock()
	}

	if p, ok := s.cur.allocate(size, alignment); ok {
		return p
	}

	s.growBlock()
	if p, ok := s.cur.allocate(size, alignment); ok {
		return p
	}

	panic("stack: allocation request too large for a freshly grown block")
}

// DeallocateNode is a no-op: a memory stack only ever releases memory in
// bulk, via [Stack.Unwind].
func (s *Stack) DeallocateNode(unsafe.Pointer, int, int) {}

// MaxNodeSize reports the total size of the current block, or 0 before
// the first block is drawn. Bytes already allocated from the block and
// fence padding are not subtracted, so a request of this size can still
// need a new block.
func (s *Stack) MaxNodeSize() int {
	if len(s.blocks) == 0 {
		return 0
	}
	return s.blocks[len(s.blocks)-1].Size
}

// MaxAlignment reports the strictest alignment this stack guarantees
// without additional padding.
func (s *Stack) MaxAlignment() int { return align.MaxAlignment }

// Stateful reports true: a Stack holds mutable cursor state.
func (s *Stack) Stateful() bool { return true }

// Top captures the stack's current position as a [Marker].
func (s *Stack) Top() Marker {
	return Marker{blockIndex: len(s.blocks) - 1, cursor: s.cur.top()}
}

// Unwind releases every block newer than m's block back to the arena,
// then rewinds the cursor within m's block to m's captured position.
func (s *Stack) Unwind(m Marker) {
	poppedAny := false
	for len(s.blocks)-1 > m.blockIndex {
		b := s.blocks[len(s.blocks)-1]
		s.blocks = s.blocks[:len(s.blocks)-1]
		s.blocksOf.Deallocate(b)
		poppedAny = true
	}

	if poppedAny {
		// The top block changed, so cur/end (last set by growBlock for the
		// since-released block) no longer describe the block m.cursor
		// belongs to. Reinitialize from the block that is now on top
		// before rewinding into it.
		if len(s.blocks) > 0 {
			s.cur.init(s.blocks[len(s.blocks)-1])
		} else {
			s.cur = fixedStack{}
		}
	}

	s.cur.unwindTo(m.cursor)
}

// ShrinkToFit drains the underlying arena's cache of returned blocks, if
// it supports doing so.
func (s *Stack) ShrinkToFit() {
	if sa, ok := s.blocksOf.(interface{ ShrinkToFit() }); ok {
		sa.ShrinkToFit()
	}
}
