package freelist

import (
	"unsafe"

	"github.com/flier/saltmem/pkg/memory"
	"github.com/flier/saltmem/pkg/memory/debugging"
)

// Ordered is an address-sorted singly-linked free list. Keeping nodes in
// address order lets allocate(n) find a run of n contiguous nodes (the
// basis of array allocation) and lets deallocate detect a double free by
// noticing the address is already present.
//
// It caches the position of the last deallocation
// (lastDealloc/afterLastDealloc) to keep repeated sequential frees - the
// common case when a pool is drained in roughly the order it was filled
// - close to O(1) instead of O(n).
type Ordered struct {
	first    unsafe.Pointer
	nodeSize int
	capacity int

	lastDealloc      unsafe.Pointer // the most recently deallocated node
	afterLastDealloc unsafe.Pointer
}

// NewOrdered creates an empty free list of the given node size.
func NewOrdered(nodeSize int) *Ordered {
	if nodeSize < MinElementSize {
		nodeSize = MinElementSize
	}
	return &Ordered{nodeSize: nodeSize}
}

// NewOrderedFrom creates a free list of the given node size, pre-filled
// by chopping memory into node-sized pieces.
func NewOrderedFrom(nodeSize int, memory unsafe.Pointer, size int) *Ordered {
	l := NewOrdered(nodeSize)
	l.Insert(memory, size)
	return l
}

// Insert chops memory into node-sized pieces and inserts each into the
// list at its address-sorted position. memory is assumed not to overlap
// any region already tracked by the list.
func (l *Ordered) Insert(memory unsafe.Pointer, size int) {
	n := size / l.nodeSize
	for i := n - 1; i >= 0; i-- {
		l.insertOne(unsafe.Add(memory, i*l.nodeSize))
	}
	l.capacity += n
	l.invalidateCache()
}

func (l *Ordered) insertOne(node unsafe.Pointer) {
	if l.first == nil || less(node, l.first) {
		writeNext(node, l.first)
		l.first = node
		return
	}

	cur := l.first
	for next := readNext(cur); next != nil && less(next, node); next = readNext(cur) {
		cur = next
	}
	writeNext(node, readNext(cur))
	writeNext(cur, node)
}

// Allocate pops the lowest-address node from the free list, or returns
// nil if empty.
func (l *Ordered) Allocate() unsafe.Pointer {
	if l.first == nil {
		return nil
	}
	node := l.first
	l.first = readNext(node)
	l.capacity--
	l.invalidateCache()
	return node
}

// AllocateN finds and removes a run of n address-contiguous nodes,
// returning a pointer to the lowest address in the run, or nil if no such
// run exists.
func (l *Ordered) AllocateN(n int) unsafe.Pointer {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return l.Allocate()
	}

	var prev unsafe.Pointer
	for cur := l.first; cur != nil; cur = readNext(cur) {
		if l.runFrom(cur, n) {
			next := l.afterRun(cur, n)
			if prev == nil {
				l.first = next
			} else {
				writeNext(prev, next)
			}
			l.capacity -= n
			l.invalidateCache()
			return cur
		}
		prev = cur
	}
	return nil
}

// runFrom reports whether a chain of n nodes starting at cur forms a
// contiguous, address-ascending run.
func (l *Ordered) runFrom(cur unsafe.Pointer, n int) bool {
	for i := 1; i < n; i++ {
		next := readNext(cur)
		if next == nil || uintptr(next) != uintptr(cur)+uintptr(l.nodeSize) {
			return false
		}
		cur = next
	}
	return true
}

// afterRun returns the link following the nth node of a run starting at
// cur, which runFrom(cur, n) has already verified is contiguous.
func (l *Ordered) afterRun(cur unsafe.Pointer, n int) unsafe.Pointer {
	for i := 1; i < n; i++ {
		cur = readNext(cur)
	}
	return readNext(cur)
}

// Deallocate inserts ptr back into the free list at its sorted position.
// When double-free detection is enabled it first scans the list for ptr
// and terminates the process if found.
func (l *Ordered) Deallocate(ptr unsafe.Pointer) {
	if debugging.DoubleFreeEnabled && l.contains(ptr) {
		debugging.HandleInvalidPointer(memory.AllocatorInfo{Name: "freelist.Ordered"}, ptr)
		return
	}

	if l.lastDealloc != nil && less(l.lastDealloc, ptr) && lessEqual(ptr, l.afterLastDealloc) {
		writeNext(ptr, readNext(l.lastDealloc))
		writeNext(l.lastDealloc, ptr)
	} else {
		l.insertOne(ptr)
	}

	l.capacity++
	l.lastDealloc = ptr
	l.afterLastDealloc = readNext(ptr)
}

// DeallocateN inserts a run of n contiguous nodes starting at ptr back
// into the free list, one node at a time through Deallocate, from the
// highest address down to ptr.
func (l *Ordered) DeallocateN(ptr unsafe.Pointer, n int) {
	for i := n - 1; i >= 0; i-- {
		l.Deallocate(unsafe.Add(ptr, i*l.nodeSize))
	}
}

func (l *Ordered) contains(ptr unsafe.Pointer) bool {
	for cur := l.first; cur != nil; cur = readNext(cur) {
		if cur == ptr {
			return true
		}
	}
	return false
}

func (l *Ordered) invalidateCache() {
	l.lastDealloc = nil
	l.afterLastDealloc = nil
}

// NodeSize reports the size of nodes this list manages.
func (l *Ordered) NodeSize() int { return l.nodeSize }

// Capacity reports the number of free nodes currently available.
func (l *Ordered) Capacity() int { return l.capacity }

// Empty reports whether the free list has no nodes available.
func (l *Ordered) Empty() bool { return l.capacity == 0 }
