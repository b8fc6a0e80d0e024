// Package debugging implements the debug fabric layered across every
// allocator in this module: fence bytes, magic fills, leak detection,
// invalid-pointer detection, double-free detection and handler
// installation.
//
// In release builds (the default; build with -tags debug to enable the
// checks) FillEnabled, PointerCheckEnabled, DoubleFreeEnabled and
// FenceSize are compile-time constants folded away by the compiler -
// see debug.go and release.go. Fill painting is not gated on FillEnabled.
package debugging

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/flier/saltmem/internal/debug"
	"github.com/flier/saltmem/pkg/memory"
)

// Magic is a single-byte sentinel value painted over regions of memory to
// help diagnose use-after-free, double-free and uninitialized-read bugs.
type Magic byte

const (
	// Internal marks memory currently in active use by an allocator.
	Internal Magic = 0xAB
	// InternalFreed marks internal memory not currently in use.
	InternalFreed Magic = 0xFB
	// New marks allocated, but not yet used, memory handed to a caller.
	New Magic = 0xCD
	// Freed marks memory returned to an allocator.
	Freed Magic = 0xDD
	// Alignment marks padding inserted to satisfy an alignment request.
	Alignment Magic = 0xED
	// Fence marks the padding bytes that bracket a live node, used to
	// detect buffer overflows.
	Fence Magic = 0xFD
)

// Kind enumerates the failure taxonomy of the allocators in this module.
// It exists only to give handlers and log messages a name for what went
// wrong - allocator operations never return these as Go errors, since
// every failure either terminates the process or is surfaced through the
// try_* family as a plain (pointer, ok) pair.
type Kind int

const (
	OutOfMemory Kind = iota
	ArenaExhausted
	InvalidPointer
	DoubleFree
	BufferOverflow
	Leak
	SizeCheckFailure
)

func (k Kind) String() string {
	switch k {
	case OutOfMemory:
		return "out of memory"
	case ArenaExhausted:
		return "arena exhausted"
	case InvalidPointer:
		return "invalid pointer"
	case DoubleFree:
		return "double free"
	case BufferOverflow:
		return "buffer overflow"
	case Leak:
		return "leak"
	case SizeCheckFailure:
		return "size check failure"
	default:
		return "unknown"
	}
}

// Fill paints region with the given magic byte.
func Fill(region unsafe.Pointer, size int, magic Magic) {
	if size == 0 {
		return
	}
	b := unsafe.Slice((*byte)(region), size)
	for i := range b {
		b[i] = byte(magic)
	}
}

// IsFilled reports whether every byte of region equals magic, returning a
// pointer to the first mismatching byte, or nil if region is entirely
// filled with magic.
func IsFilled(region unsafe.Pointer, size int, magic Magic) unsafe.Pointer {
	b := unsafe.Slice((*byte)(region), size)
	for i := range b {
		if b[i] != byte(magic) {
			return unsafe.Pointer(&b[i])
		}
	}
	return nil
}

// FillNew paints a freshly allocated region of nodeSize bytes plus
// surrounding fences, returning a pointer to the interior (payload) region.
// If fenceSize is zero, no fence padding is written and ptr is returned
// unchanged.
func FillNew(ptr unsafe.Pointer, nodeSize, fenceSize int) unsafe.Pointer {
	if fenceSize == 0 {
		Fill(ptr, nodeSize, New)
		return ptr
	}

	Fill(ptr, fenceSize, Fence)
	interior := unsafe.Add(ptr, fenceSize)
	Fill(interior, nodeSize, New)
	Fill(unsafe.Add(interior, nodeSize), fenceSize, Fence)
	return interior
}

// FillFree checks both fences surrounding a live node of nodeSize bytes,
// invoking the buffer-overflow handler on any mismatch, then paints the
// node with Freed and returns the outer (fence-start) pointer. If
// fenceSize is zero, no fence is checked and ptr is returned unchanged.
func FillFree(ptr unsafe.Pointer, nodeSize, fenceSize int) unsafe.Pointer {
	if fenceSize == 0 {
		Fill(ptr, nodeSize, Freed)
		return ptr
	}

	outer := unsafe.Add(ptr, -fenceSize)
	if bad := IsFilled(outer, fenceSize, Fence); bad != nil {
		invokeBufferOverflow(outer, nodeSize, bad)
	}
	after := unsafe.Add(ptr, nodeSize)
	if bad := IsFilled(after, fenceSize, Fence); bad != nil {
		invokeBufferOverflow(outer, nodeSize, bad)
	}

	Fill(ptr, nodeSize, Freed)
	return outer
}

// LeakHandler is invoked once per allocator at teardown if its net
// allocation counter (bytes allocated minus bytes deallocated) is
// non-zero. amount is positive for a leak, negative if more was
// deallocated than ever allocated.
type LeakHandler func(info memory.AllocatorInfo, amount int64)

// InvalidPointerHandler is invoked when Deallocate* receives a pointer
// that does not belong to the allocator.
type InvalidPointerHandler func(info memory.AllocatorInfo, ptr unsafe.Pointer)

// BufferOverflowHandler is invoked on a fence mismatch.
type BufferOverflowHandler func(block unsafe.Pointer, size int, violation unsafe.Pointer)

func defaultLeakHandler(info memory.AllocatorInfo, amount int64) {
	if amount > 0 {
		debug.Log(nil, "leak", "allocator %s (at %p) leaked %d bytes", info.Name, info.Instance, amount)
	} else {
		debug.Log(nil, "leak", "allocator %s (at %p) deallocated %d bytes more than ever allocated",
			info.Name, info.Instance, -amount)
	}
}

func defaultInvalidPointerHandler(info memory.AllocatorInfo, ptr unsafe.Pointer) {
	msg := fmt.Sprintf("deallocation function of allocator %s (at %p) received invalid pointer %p",
		info.Name, info.Instance, ptr)
	debug.Log(nil, "invalid-pointer", "%s", msg)
	terminate(msg)
}

func defaultBufferOverflowHandler(block unsafe.Pointer, size int, ptr unsafe.Pointer) {
	msg := fmt.Sprintf("buffer overflow at address %p detected, corresponding memory block %p has only size %d",
		ptr, block, size)
	debug.Log(nil, "buffer-overflow", "%s", msg)
	terminate(msg)
}

// Terminate is the process-termination hook invoked by the default
// invalid-pointer and buffer-overflow handlers. It stands in for the
// spec's external "terminate routine" collaborator. Tests may swap it out
// to observe termination without actually exiting the process.
var Terminate = func(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}

func terminate(msg string) { Terminate(msg) }

var (
	leakHandler           atomic.Pointer[LeakHandler]
	invalidPointerHandler atomic.Pointer[InvalidPointerHandler]
	bufferOverflowHandler atomic.Pointer[BufferOverflowHandler]
)

func init() {
	var lh LeakHandler = defaultLeakHandler
	leakHandler.Store(&lh)
	var iph InvalidPointerHandler = defaultInvalidPointerHandler
	invalidPointerHandler.Store(&iph)
	var boh BufferOverflowHandler = defaultBufferOverflowHandler
	bufferOverflowHandler.Store(&boh)
}

// SetLeakHandler atomically installs handler as the active leak handler,
// returning the previously installed one. A nil handler restores the
// default.
func SetLeakHandler(handler LeakHandler) LeakHandler {
	if handler == nil {
		handler = defaultLeakHandler
	}
	prev := leakHandler.Swap(&handler)
	return *prev
}

// LeakHandlerFunc returns the currently installed leak handler.
func LeakHandlerFunc() LeakHandler { return *leakHandler.Load() }

// SetInvalidPointerHandler atomically installs handler as the active
// invalid-pointer handler, returning the previously installed one. A nil
// handler restores the default.
func SetInvalidPointerHandler(handler InvalidPointerHandler) InvalidPointerHandler {
	if handler == nil {
		handler = defaultInvalidPointerHandler
	}
	prev := invalidPointerHandler.Swap(&handler)
	return *prev
}

// InvalidPointerHandlerFunc returns the currently installed invalid-pointer handler.
func InvalidPointerHandlerFunc() InvalidPointerHandler { return *invalidPointerHandler.Load() }

// SetBufferOverflowHandler atomically installs handler as the active
// buffer-overflow handler, returning the previously installed one. A nil
// handler restores the default.
func SetBufferOverflowHandler(handler BufferOverflowHandler) BufferOverflowHandler {
	if handler == nil {
		handler = defaultBufferOverflowHandler
	}
	prev := bufferOverflowHandler.Swap(&handler)
	return *prev
}

// BufferOverflowHandlerFunc returns the currently installed buffer-overflow handler.
func BufferOverflowHandlerFunc() BufferOverflowHandler { return *bufferOverflowHandler.Load() }

// HandleLeak invokes the currently installed leak handler.
func HandleLeak(info memory.AllocatorInfo, amount int64) {
	if !LeakEnabled || amount == 0 {
		return
	}
	LeakHandlerFunc()(info, amount)
}

// HandleInvalidPointer invokes the currently installed invalid-pointer handler.
func HandleInvalidPointer(info memory.AllocatorInfo, ptr unsafe.Pointer) {
	InvalidPointerHandlerFunc()(info, ptr)
}

func invokeBufferOverflow(block unsafe.Pointer, size int, violation unsafe.Pointer) {
	BufferOverflowHandlerFunc()(block, size, violation)
}
