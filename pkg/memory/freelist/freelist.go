// Package freelist implements the node-level free lists that pools and
// pool lists hand allocations out of: a singly-linked list for the
// unordered (fast) case, and an address-sorted list that additionally
// supports contiguous-run search (for array allocation) and double-free
// detection.
package freelist

import "unsafe"

// MinElementSize is the smallest node size a free list can manage: large
// enough to hold a next-node pointer.
const MinElementSize = int(unsafe.Sizeof(uintptr(0)))

// MinBlockSize returns the smallest memory region capable of holding n
// nodes of the given size once nodes are padded up to MinElementSize.
func MinBlockSize(nodeSize, n int) int {
	if nodeSize < MinElementSize {
		nodeSize = MinElementSize
	}
	return nodeSize * n
}

func readNext(node unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(node)
}

func writeNext(node unsafe.Pointer, next unsafe.Pointer) {
	*(*unsafe.Pointer)(node) = next
}

func addr(p unsafe.Pointer) uintptr { return uintptr(p) }

func less(a, b unsafe.Pointer) bool      { return addr(a) < addr(b) }
func lessEqual(a, b unsafe.Pointer) bool { return a == b || less(a, b) }

// List is the common shape of [Unordered] and [Ordered], letting pool code
// stay agnostic of which flavor it was handed.
type List interface {
	Insert(memory unsafe.Pointer, size int)
	Allocate() unsafe.Pointer
	AllocateN(n int) unsafe.Pointer
	Deallocate(ptr unsafe.Pointer)
	DeallocateN(ptr unsafe.Pointer, n int)
	NodeSize() int
	Capacity() int
	Empty() bool
}

var (
	_ List = (*Unordered)(nil)
	_ List = (*Ordered)(nil)
)

// NewArrayList creates the free list flavor used for array allocation,
// which always needs address ordering to find contiguous runs regardless
// of whether double-free detection is enabled.
func NewArrayList(nodeSize int) List {
	return NewOrdered(nodeSize)
}
