//go:build !windows

package sysalloc

// HeapAllocator is the default system allocator for this platform. Off
// Windows there is no distinct OS heap API worth wrapping separately, so
// it is defined in terms of MallocAllocator, exactly as
// Heap_allocator_impl resolves to Malloc_allocator on non-Windows builds
// without mimalloc.
type HeapAllocator = MallocAllocator
