// Package poollist implements a size-bucketed pool: one free list per
// node-size class, all replenished from a single shared arena, letting a
// caller allocate nodes of any size up to a configured maximum out of one
// allocator instance instead of constructing a separate [pool.Pool] per
// size.
package poollist

import (
	"unsafe"

	"github.com/flier/saltmem/pkg/memory"
	"github.com/flier/saltmem/pkg/memory/align"
	"github.com/flier/saltmem/pkg/memory/block"
	"github.com/flier/saltmem/pkg/memory/freelist"
)

// PoolList is a bucketed pool: a [freelist.Array] keyed by node size
// through an [freelist.AccessPolicy], with every bucket replenished one
// block at a time from a single shared arena.
type PoolList struct {
	array       *freelist.Array
	blocksOf    block.BlockAllocator
	maxNodeSize int
}

var (
	_ memory.RawAllocator    = (*PoolList)(nil)
	_ memory.ArrayAllocator  = (*PoolList)(nil)
	_ memory.Composable      = (*PoolList)(nil)
	_ memory.ComposableArray = (*PoolList)(nil)
)

// New creates a PoolList able to serve nodes up to maxNodeSize bytes,
// bucketed by policy, drawing replenishment blocks of blockSize bytes
// from blockAlloc. Array-capable buckets (able to satisfy
// [PoolList.AllocateArray]) always use the address-ordered free list,
// since contiguous-run search requires it regardless of policy.
func New(policy freelist.AccessPolicy, maxNodeSize, blockSize int, blockAlloc block.BlockAllocator) *PoolList {
	array := freelist.NewArray(policy, maxNodeSize, func(nodeSize int) freelist.List {
		return freelist.NewArrayList(nodeSize)
	})

	return &PoolList{
		array:       array,
		blocksOf:    blockAlloc,
		maxNodeSize: maxNodeSize,
	}
}

// Reserve pre-fills the bucket serving nodeSize-byte nodes with one
// block's worth of nodes, so the first AllocateNode call for that size
// doesn't need to draw a fresh block from the arena.
func (p *PoolList) Reserve(nodeSize, _ int) {
	p.growBucket(p.array.Get(nodeSize))
}

func (p *PoolList) growBucket(list freelist.List) bool {
	b := p.blocksOf.Allocate()
	if b.Memory == nil {
		return false
	}
	list.Insert(b.Memory, b.Size)
	return true
}

// AllocateNode routes the request to the bucket matching size, growing
// the shared arena by one block if that bucket's free list is currently
// empty. Arena refusal to grow is fatal.
func (p *PoolList) AllocateNode(size, _ int) unsafe.Pointer {
	list := p.array.Get(size)
	if list.Empty() && !p.growBucket(list) {
		panic("poollist: arena refused to grow")
	}
	return list.Allocate()
}

// TryAllocateNode is the non-fatal counterpart of AllocateNode: it never
// triggers arena growth, reporting absence if the matching bucket is
// empty.
func (p *PoolList) TryAllocateNode(size, _ int) (unsafe.Pointer, bool) {
	list := p.array.Get(size)
	if list.Empty() {
		return nil, false
	}
	return list.Allocate(), true
}

// DeallocateNode routes ptr back to the bucket matching size.
func (p *PoolList) DeallocateNode(ptr unsafe.Pointer, size, _ int) {
	p.array.Get(size).Deallocate(ptr)
}

// TryDeallocateNode routes ptr back to the bucket matching size,
// reporting true unconditionally - pointer-ownership validation across
// every bucket's live blocks is the pool-level (not pool-list-level)
// concern, since each [pool.Pool] already owns that check per size class.
func (p *PoolList) TryDeallocateNode(ptr unsafe.Pointer, size, _ int) bool {
	p.array.Get(size).Deallocate(ptr)
	return true
}

// AllocateArray finds n contiguous nodeSize-byte nodes in the bucket
// matching nodeSize, growing the arena by one block and retrying once on
// failure. A second failure is fatal.
func (p *PoolList) AllocateArray(n, nodeSize, _ int) unsafe.Pointer {
	list := p.array.Get(nodeSize)
	if ptr := list.AllocateN(n); ptr != nil {
		return ptr
	}
	if !p.growBucket(list) {
		panic("poollist: arena refused to grow")
	}
	if ptr := list.AllocateN(n); ptr != nil {
		return ptr
	}
	panic("poollist: no contiguous run available after growth")
}

// TryAllocateArray is the non-fatal counterpart of AllocateArray.
func (p *PoolList) TryAllocateArray(n, nodeSize, _ int) (unsafe.Pointer, bool) {
	list := p.array.Get(nodeSize)
	if ptr := list.AllocateN(n); ptr != nil {
		return ptr, true
	}
	return nil, false
}

// DeallocateArray returns a run of n nodes back to the bucket matching
// nodeSize.
func (p *PoolList) DeallocateArray(ptr unsafe.Pointer, n, nodeSize, _ int) {
	p.array.Get(nodeSize).DeallocateN(ptr, n)
}

// TryDeallocateArray returns a run of n nodes back to the bucket matching
// nodeSize, reporting true unconditionally.
func (p *PoolList) TryDeallocateArray(ptr unsafe.Pointer, n, nodeSize, _ int) bool {
	p.array.Get(nodeSize).DeallocateN(ptr, n)
	return true
}

// MaxNodeSize reports the largest node size this pool list was
// constructed to serve.
func (p *PoolList) MaxNodeSize() int { return p.maxNodeSize }

// MaxAlignment reports the strictest alignment this pool list guarantees
// without additional padding.
func (p *PoolList) MaxAlignment() int { return align.MaxAlignment }

// Stateful reports true: a PoolList holds a free-list array and an arena.
func (p *PoolList) Stateful() bool { return true }
