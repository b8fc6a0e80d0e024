// Package arena implements the growable block cache that every
// higher-level raw allocator (stacks, pools, pool lists) in this module
// draws its backing memory from.
//
// Grounded on pkg/arena (arena.go/recycle.go/alloc.go) as it stood before
// this module generalized its block-allocator/growth-factor/bounded-cache
// design. That Arena hands out individual byte pointers bump-allocator
// style and tracks GC liveness through a self-referential chunk shape
// (allocTraceable); this Arena instead hands out whole [block.Block]
// values to another allocator layer (stack, pool, pool list). GC
// liveness of each block is maintained the ordinary way: as long
// as the Block value (holding an unsafe.Pointer) stays reachable - here,
// in the used/cached slices - the backing memory cannot be collected.
package arena

import (
	"github.com/flier/saltmem/pkg/memory"
	"github.com/flier/saltmem/pkg/memory/align"
	"github.com/flier/saltmem/pkg/memory/block"
)

// DefaultGrowthFactor is the multiplier applied to the next block's size
// after each growth allocation, matching pkg/arena's a.cap*2 doubling.
const DefaultGrowthFactor = 2.0

// Arena is a [block.BlockAllocator] that draws from a [memory.RawAllocator]
// (typically one built on [github.com/flier/saltmem/pkg/memory/lowlevel]),
// growing the size of each successive block it requests by a fixed
// factor, and caching returned blocks up to a bound instead of releasing
// them immediately.
type Arena struct {
	raw          memory.RawAllocator
	align        int
	growthFactor float64
	maxCached    int
	minBlockSize int

	nextBlockSize int
	used          []block.Block
	cached        []block.Block
}

var _ block.BlockAllocator = (*Arena)(nil)

// New creates an Arena drawing blocks from raw, starting at
// initialBlockSize and growing by growthFactor (must be >= 1) on each
// block request that isn't served from the cache. maxCached bounds how
// many returned blocks are kept around for reuse before being released
// back to raw; zero means no caching at all.
func New(raw memory.RawAllocator, initialBlockSize int, growthFactor float64, maxCached int) *Arena {
	if growthFactor < 1 {
		growthFactor = 1
	}
	if initialBlockSize < 1 {
		initialBlockSize = 1
	}

	return &Arena{
		raw:           raw,
		align:         align.MaxAlignment,
		growthFactor:  growthFactor,
		maxCached:     maxCached,
		minBlockSize:  initialBlockSize,
		nextBlockSize: initialBlockSize,
	}
}

// Allocate returns a block ready for use: a previously cached block if
// one is available, otherwise a freshly requested one of
// [Arena.NextBlockSize] bytes, after which the next request size grows by
// the configured factor.
func (a *Arena) Allocate() block.Block {
	if n := len(a.cached); n > 0 {
		b := a.cached[n-1]
		a.cached = a.cached[:n-1]
		a.used = append(a.used, b)
		return b
	}

	size := a.nextBlockSize
	p := a.raw.AllocateNode(size, a.align)
	b := block.Block{Memory: p, Size: size}

	a.used = append(a.used, b)
	a.nextBlockSize = int(align.RoundUp(uintptr(float64(size)*a.growthFactor), uintptr(a.align)))
	return b
}

// Deallocate returns b: to the cache if there's room, otherwise straight
// back to the underlying raw allocator, in which case the next block
// request size shrinks by one reciprocal growth step.
func (a *Arena) Deallocate(b block.Block) {
	a.popUsed(b)

	if len(a.cached) < a.maxCached {
		a.cached = append(a.cached, b)
		return
	}

	a.raw.DeallocateNode(b.Memory, b.Size, a.align)
	shrunk := int(float64(a.nextBlockSize) / a.growthFactor)
	if shrunk < a.minBlockSize {
		shrunk = a.minBlockSize
	}
	a.nextBlockSize = shrunk
}

func (a *Arena) popUsed(b block.Block) {
	n := len(a.used)
	if n > 0 && a.used[n-1] == b {
		a.used = a.used[:n-1]
		return
	}
	for i := n - 1; i >= 0; i-- {
		if a.used[i] == b {
			a.used = append(a.used[:i], a.used[i+1:]...)
			return
		}
	}
}

// NextBlockSize reports the size, in bytes, of the next block a call to
// Allocate would request from the underlying raw allocator (ignoring any
// cached block that would be reused instead).
func (a *Arena) NextBlockSize() int { return a.nextBlockSize }

// CurrentBlock returns the most recently allocated, still-in-use block.
// It panics if no block has been allocated yet.
func (a *Arena) CurrentBlock() block.Block {
	if len(a.used) == 0 {
		panic("arena: no current block")
	}
	return a.used[len(a.used)-1]
}

// Size reports the total number of bytes held across every block
// currently in use.
func (a *Arena) Size() int {
	total := 0
	for _, b := range a.used {
		total += b.Size
	}
	return total
}

// ShrinkToFit releases every cached block back to the underlying raw
// allocator.
func (a *Arena) ShrinkToFit() {
	for _, b := range a.cached {
		a.raw.DeallocateNode(b.Memory, b.Size, a.align)
	}
	a.cached = nil
}
