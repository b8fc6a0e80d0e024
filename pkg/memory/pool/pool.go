// Package pool implements a fixed-node-size allocator over blocks drawn
// from an arena, backed by either flavor of free list from
// [github.com/flier/saltmem/pkg/memory/freelist].
package pool

import (
	"unsafe"

	"github.com/dolthub/maphash"

	"github.com/flier/saltmem/pkg/memory"
	"github.com/flier/saltmem/pkg/memory/align"
	"github.com/flier/saltmem/pkg/memory/block"
	"github.com/flier/saltmem/pkg/memory/debugging"
	"github.com/flier/saltmem/pkg/memory/freelist"
)

// Flavor selects which free list flavor a Pool is built on.
type Flavor int

const (
	// NodePool serves single-node allocations and uses the cheaper
	// free list flavor where double-free detection allows it.
	NodePool Flavor = iota
	// ArrayPool serves both single-node and contiguous-run allocations,
	// and so always uses the address-ordered free list.
	ArrayPool
)

// Pool is a fixed-node-size allocator: a free list of the chosen flavor,
// replenished one block at a time from an arena.
type Pool struct {
	flavor    Flavor
	nodeSize  int
	blockSize int
	blocksOf  block.BlockAllocator
	list      freelist.List

	hasher maphash.Hasher[uintptr]
	blocks map[uint64]block.Block
}

var (
	_ memory.RawAllocator    = (*Pool)(nil)
	_ memory.Composable      = (*Pool)(nil)
	_ memory.ComposableArray = (*Pool)(nil)
)

// New creates a Pool serving nodes of nodeSize bytes, replenishing its
// free list one blockSize-byte block at a time from blockAlloc.
func New(flavor Flavor, nodeSize, blockSize int, blockAlloc block.BlockAllocator) *Pool {
	var list freelist.List
	if flavor == ArrayPool {
		list = freelist.NewArrayList(nodeSize)
	} else {
		list = freelist.NewNodeList(nodeSize)
	}

	return &Pool{
		flavor:    flavor,
		nodeSize:  nodeSize,
		blockSize: blockSize,
		blocksOf:  blockAlloc,
		list:      list,
		hasher:    maphash.NewHasher[uintptr](),
		blocks:    make(map[uint64]block.Block),
	}
}

// MinBlockSize returns the smallest block capable of holding count nodes
// of nodeSize bytes.
func MinBlockSize(nodeSize, count int) int {
	return freelist.MinBlockSize(nodeSize, count)
}

func (a *Pool) registerBlock(b block.Block) {
	a.blocks[a.hasher.Hash(uintptr(b.Memory))] = b
	a.list.Insert(b.Memory, b.Size)
}

// growBlock requests one more block from the arena and feeds it to the
// free list, returning false if the arena refused to grow.
func (a *Pool) growBlock() bool {
	b := a.blocksOf.Allocate()
	if b.Memory == nil {
		return false
	}
	a.registerBlock(b)
	return true
}

// belongsToLiveBlock reports whether ptr falls within any block this pool
// has drawn from the arena and not yet returned.
func (a *Pool) belongsToLiveBlock(ptr unsafe.Pointer) bool {
	for _, b := range a.blocks {
		if b.Contains(ptr) {
			return true
		}
	}
	return false
}

// AllocateNode pops a node from the free list, replenishing it from the
// arena first if empty. Arena refusal to grow is fatal.
func (a *Pool) AllocateNode(int, int) unsafe.Pointer {
	if a.list.Empty() && !a.growBlock() {
		panic("pool: arena refused to grow")
	}
	return a.list.Allocate()
}

// DeallocateNode returns ptr to the free list. When pointer-check
// debugging is enabled, a ptr outside every block this pool has drawn is
// reported to the invalid-pointer handler and not inserted.
func (a *Pool) DeallocateNode(ptr unsafe.Pointer, _, _ int) {
	if debugging.PointerCheckEnabled && !a.belongsToLiveBlock(ptr) {
		debugging.HandleInvalidPointer(memory.AllocatorInfo{Name: "pool.Pool", Instance: unsafe.Pointer(a)}, ptr)
		return
	}
	a.list.Deallocate(ptr)
}

// TryAllocateNode pops a node from the free list without ever triggering
// arena growth, reporting absence if the free list is currently empty.
func (a *Pool) TryAllocateNode(int, int) (unsafe.Pointer, bool) {
	if a.list.Empty() {
		return nil, false
	}
	return a.list.Allocate(), true
}

// TryDeallocateNode validates that ptr belongs to one of this pool's live
// blocks before inserting it back into the free list, reporting false
// without modifying the pool if it does not. When pointer-check debugging
// is disabled the check is skipped and ptr is always accepted.
func (a *Pool) TryDeallocateNode(ptr unsafe.Pointer, _, _ int) bool {
	if debugging.PointerCheckEnabled && !a.belongsToLiveBlock(ptr) {
		return false
	}
	a.list.Deallocate(ptr)
	return true
}

// AllocateArray finds a run of n contiguous nodes, growing the arena by
// one block and retrying once on failure. A second failure is fatal.
// Only meaningful for an [ArrayPool].
func (a *Pool) AllocateArray(n, _, _ int) unsafe.Pointer {
	if p := a.list.AllocateN(n); p != nil {
		return p
	}
	if !a.growBlock() {
		panic("pool: arena refused to grow")
	}
	if p := a.list.AllocateN(n); p != nil {
		return p
	}
	panic("pool: no contiguous run available after growth")
}

// DeallocateArray returns a run of n nodes starting at ptr to the free
// list.
func (a *Pool) DeallocateArray(ptr unsafe.Pointer, n, _, _ int) {
	a.list.DeallocateN(ptr, n)
}

// TryAllocateArray finds a run of n contiguous nodes without triggering
// arena growth.
func (a *Pool) TryAllocateArray(n, _, _ int) (unsafe.Pointer, bool) {
	if p := a.list.AllocateN(n); p != nil {
		return p, true
	}
	return nil, false
}

// TryDeallocateArray validates that ptr belongs to one of this pool's
// live blocks before splicing the run back into the free list.
func (a *Pool) TryDeallocateArray(ptr unsafe.Pointer, n, _, _ int) bool {
	if debugging.PointerCheckEnabled && !a.belongsToLiveBlock(ptr) {
		return false
	}
	a.list.DeallocateN(ptr, n)
	return true
}

// MaxNodeSize reports the node size this pool was constructed for.
func (a *Pool) MaxNodeSize() int { return a.nodeSize }

// MaxAlignment reports the alignment natural to nodes of this size.
func (a *Pool) MaxAlignment() int { return int(align.AlignmentFor(uintptr(a.nodeSize))) }

// Stateful reports true: a Pool holds a free list and live-block set.
func (a *Pool) Stateful() bool { return true }

// Capacity reports the number of free nodes currently available without
// drawing a new block from the arena.
func (a *Pool) Capacity() int { return a.list.Capacity() }
