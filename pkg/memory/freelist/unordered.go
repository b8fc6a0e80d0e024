package freelist

import "unsafe"

// Unordered is a singly-linked free list: insert pushes node-sized chunks
// of a memory region onto the front in no particular order, and allocate
// pops from the front. It is the cheaper of the two list flavors, used
// wherever double-free detection and contiguous-run array allocation are
// not required.
//
// Nodes link via a single next-pointer stored in each node's first word
// rather than an XOR of both neighbors: XOR linking only pays for itself
// when a node must be unlinked from the middle of a bidirectionally
// walked list, and Unordered only ever pushes and pops from the front.
type Unordered struct {
	first    unsafe.Pointer
	nodeSize int
	capacity int
}

// NewUnordered creates an empty free list of the given node size.
func NewUnordered(nodeSize int) *Unordered {
	if nodeSize < MinElementSize {
		nodeSize = MinElementSize
	}
	return &Unordered{nodeSize: nodeSize}
}

// NewUnorderedFrom creates a free list of the given node size, pre-filled
// by chopping memory into node-sized pieces.
func NewUnorderedFrom(nodeSize int, memory unsafe.Pointer, size int) *Unordered {
	l := NewUnordered(nodeSize)
	l.Insert(memory, size)
	return l
}

// Insert chops memory into node-sized pieces and pushes each onto the
// free list.
func (l *Unordered) Insert(memory unsafe.Pointer, size int) {
	n := size / l.nodeSize
	for i := 0; i < n; i++ {
		node := unsafe.Add(memory, i*l.nodeSize)
		writeNext(node, l.first)
		l.first = node
	}
	l.capacity += n
}

// Allocate pops a single node from the free list, or returns nil if
// empty.
func (l *Unordered) Allocate() unsafe.Pointer {
	if l.first == nil {
		return nil
	}
	node := l.first
	l.first = readNext(node)
	l.capacity--
	return node
}

// AllocateN never allocates and always returns nil. Unordered has no
// address ordering, so it cannot find n contiguous nodes; callers needing
// contiguous array allocation must use [Ordered] instead. The method is
// kept only to satisfy the same shape as Ordered.AllocateN for generic
// code that is parametric over list flavor.
func (l *Unordered) AllocateN(int) unsafe.Pointer {
	return nil
}

// Deallocate pushes ptr back onto the front of the free list.
func (l *Unordered) Deallocate(ptr unsafe.Pointer) {
	writeNext(ptr, l.first)
	l.first = ptr
	l.capacity++
}

// DeallocateN pushes a run of n nodes starting at ptr back onto the free
// list individually.
func (l *Unordered) DeallocateN(ptr unsafe.Pointer, n int) {
	for i := 0; i < n; i++ {
		l.Deallocate(unsafe.Add(ptr, i*l.nodeSize))
	}
}

// NodeSize reports the size of nodes this list manages.
func (l *Unordered) NodeSize() int { return l.nodeSize }

// Capacity reports the number of free nodes currently available.
func (l *Unordered) Capacity() int { return l.capacity }

// Empty reports whether the free list has no nodes available.
func (l *Unordered) Empty() bool { return l.first == nil }
