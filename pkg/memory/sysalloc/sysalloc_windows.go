//go:build windows

package sysalloc

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32     = windows.NewLazySystemDLL("kernel32.dll")
	procHeapAlloc   = modkernel32.NewProc("HeapAlloc")
	procHeapFree    = modkernel32.NewProc("HeapFree")
	procGetProcHeap = modkernel32.NewProc("GetProcessHeap")

	processHeap     uintptr
	processHeapOnce sync.Once
)

func getProcessHeap() uintptr {
	processHeapOnce.Do(func() {
		h, _, _ := procGetProcHeap.Call()
		processHeap = h
	})
	return processHeap
}

// Win32HeapAllocator allocates from the default process heap via the
// Win32 HeapAlloc/HeapFree API.
type Win32HeapAllocator struct{}

var _ Provider = Win32HeapAllocator{}

// HeapAllocator is the default system allocator on Windows.
type HeapAllocator = Win32HeapAllocator

func (Win32HeapAllocator) Allocate(size, _ int) unsafe.Pointer {
	n := size
	if n == 0 {
		n = 1
	}
	p, _, _ := procHeapAlloc.Call(getProcessHeap(), 0, uintptr(n))
	if p == 0 {
		panic("sysalloc: Win32HeapAllocator: HeapAlloc failed")
	}
	return unsafe.Pointer(p)
}

func (Win32HeapAllocator) Deallocate(p unsafe.Pointer, _, _ int) {
	if p == nil {
		return
	}
	_, _, _ = procHeapFree.Call(getProcessHeap(), 0, uintptr(p))
}

func (Win32HeapAllocator) MaxSize() int {
	return int(^uint(0) >> 1)
}

func (Win32HeapAllocator) Name() string { return "sysalloc.Win32HeapAllocator" }
