package sysalloc

import "unsafe"

// MallocAllocator is the portable fallback provider: it satisfies
// allocations from the Go heap via make([]byte, n). Unlike its namesake
// in the source this module is modeled on, it never calls into libc; the
// name is kept because callers reason about it as "the allocator used
// when there's nothing more specific available for this platform", which
// is exactly the role Malloc_allocator plays there.
type MallocAllocator struct{}

var _ Provider = MallocAllocator{}

// Allocate returns a pointer to size freshly allocated bytes. The
// returned memory is tracked by the Go garbage collector for as long as
// the returned pointer, or anything derived from it, stays reachable;
// callers that instead keep only a bare uintptr must separately retain
// the memory (for example by keeping the enclosing block.Block alive).
func (MallocAllocator) Allocate(size, align int) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	buf := make([]byte, roundUp(size, align))
	return unsafe.Pointer(&buf[0])
}

// Deallocate is a no-op: the Go garbage collector reclaims the memory
// once nothing references it any longer.
func (MallocAllocator) Deallocate(unsafe.Pointer, int, int) {}

// MaxSize reports the largest single allocation Go's runtime can satisfy.
func (MallocAllocator) MaxSize() int {
	return int(^uint(0) >> 1)
}

func (MallocAllocator) Name() string { return "sysalloc.MallocAllocator" }

func roundUp(size, align int) int {
	if align <= 1 {
		return size
	}
	return (size + align - 1) &^ (align - 1)
}
