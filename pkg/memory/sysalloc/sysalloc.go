// Package sysalloc provides the lowest-level memory providers that every
// block allocator in this module ultimately grows from: a Go-heap-backed
// allocator used on every platform, and a Win32 HeapAlloc-backed allocator
// used on Windows.
//
// Go has no raw malloc/free without cgo, so MallocAllocator allocates
// through the Go heap. HeapAllocator, the default provider, is a type
// alias: of MallocAllocator off Windows, and of Win32HeapAllocator on
// Windows.
package sysalloc

import "unsafe"

// Provider is the allocator_like contract that [lowlevel.LowLevel] adapts
// into a full [memory.RawAllocator]: Allocate/Deallocate/MaxSize.
type Provider interface {
	Allocate(size, align int) unsafe.Pointer
	Deallocate(p unsafe.Pointer, size, align int)
	MaxSize() int
}

// Name is the diagnostic name reported in this provider's AllocatorInfo.
type Name interface {
	Name() string
}
