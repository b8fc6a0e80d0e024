// Package block defines the contiguous region of memory that every block
// allocator in this module (arenas, pools, the static allocator) grows by.
package block

import "unsafe"

// Block is a contiguous region of memory handed out by a [BlockAllocator].
type Block struct {
	Memory unsafe.Pointer
	Size   int
}

// End returns the address immediately following the block.
func (b Block) End() unsafe.Pointer {
	return unsafe.Add(b.Memory, b.Size)
}

// Contains reports whether address falls within [Memory, Memory+Size).
func (b Block) Contains(address unsafe.Pointer) bool {
	begin := uintptr(b.Memory)
	ptr := uintptr(address)
	return ptr >= begin && ptr < begin+uintptr(b.Size)
}

// BlockAllocator grows and shrinks the block-level backing storage of an
// arena-like allocator. NextBlockSize reports the size the next call to
// Allocate will use, letting callers implement a growth-factor policy
// without calling Allocate speculatively.
type BlockAllocator interface {
	Allocate() Block
	Deallocate(b Block)
	NextBlockSize() int
}

// StaticBlockAllocator hands out sub-slices of a single fixed buffer
// supplied up front; it never grows and Deallocate is a no-op, since the
// whole buffer is reclaimed at once when the owner is done with it.
type StaticBlockAllocator struct {
	storage []byte
	offset  int
}

// NewStaticBlockAllocator creates a StaticBlockAllocator over storage. The
// caller retains ownership of storage and must keep it alive for as long
// as blocks handed out by Allocate are in use.
func NewStaticBlockAllocator(storage []byte) *StaticBlockAllocator {
	return &StaticBlockAllocator{storage: storage}
}

// Allocate returns the next unused block-sized region of storage, sized to
// whatever remains. It panics if the storage is already exhausted.
func (a *StaticBlockAllocator) Allocate() Block {
	if a.offset >= len(a.storage) {
		panic("block: static block allocator exhausted")
	}
	remaining := a.storage[a.offset:]
	a.offset = len(a.storage)
	return Block{Memory: unsafe.Pointer(&remaining[0]), Size: len(remaining)}
}

// Deallocate is a no-op: the backing storage is reclaimed as a whole by
// the owner of the StaticBlockAllocator, never block by block.
func (a *StaticBlockAllocator) Deallocate(Block) {}

// NextBlockSize reports how many bytes remain in storage.
func (a *StaticBlockAllocator) NextBlockSize() int {
	return len(a.storage) - a.offset
}
