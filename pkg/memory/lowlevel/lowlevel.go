// Package lowlevel adapts a [sysalloc.Provider] into a full
// [memory.RawAllocator]: it adds fence padding, fill painting and leak
// tracking around whatever raw allocate/deallocate pair the provider
// implements.
package lowlevel

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/flier/saltmem/pkg/memory"
	"github.com/flier/saltmem/pkg/memory/align"
	"github.com/flier/saltmem/pkg/memory/debugging"
	"github.com/flier/saltmem/pkg/memory/sysalloc"
)

// LowLevel wraps a [sysalloc.Provider] P, presenting it as a stateless
// [memory.RawAllocator]. Every instance tracks its own net-bytes-allocated
// counter; Close reports it to the leak handler if non-zero.
//
// The source this module is modeled on aggregates leak accounting
// globally per Allocator type and checks it once at static-destruction
// time; Go has no equivalent teardown hook, so each LowLevel instance
// owns its counter and callers that want the check performed call Close
// explicitly when they are done with the allocator.
type LowLevel[P sysalloc.Provider] struct {
	provider P
	leaked   atomic.Int64
}

// New creates a LowLevel allocator around provider.
func New[P sysalloc.Provider](provider P) *LowLevel[P] {
	return &LowLevel[P]{provider: provider}
}

var _ memory.RawAllocator = (*LowLevel[sysalloc.MallocAllocator])(nil)

func (a *LowLevel[P]) info() memory.AllocatorInfo {
	name := fmt.Sprintf("%T", a.provider)
	if n, ok := any(a.provider).(sysalloc.Name); ok {
		name = n.Name()
	}
	return memory.AllocatorInfo{Name: name, Instance: unsafe.Pointer(a)}
}

// AllocateNode allocates size bytes aligned to align, padded with
// debugging.FenceSize bytes of fence on either side when fencing is
// enabled.
func (a *LowLevel[P]) AllocateNode(size, alignment int) unsafe.Pointer {
	actual := size
	if debugging.FenceSize != 0 {
		actual += 2 * debugging.FenceSize
	}

	mem := a.provider.Allocate(actual, alignment)
	a.leaked.Add(int64(actual))

	return debugging.FillNew(mem, size, debugging.FenceSize)
}

// DeallocateNode releases memory previously returned by AllocateNode.
func (a *LowLevel[P]) DeallocateNode(p unsafe.Pointer, size, alignment int) {
	actual := size
	if debugging.FenceSize != 0 {
		actual += 2 * debugging.FenceSize
	}

	base := debugging.FillFree(p, size, debugging.FenceSize)
	a.provider.Deallocate(base, actual, alignment)
	a.leaked.Add(-int64(actual))
}

// MaxNodeSize reports the largest allocation the underlying provider can
// satisfy.
func (a *LowLevel[P]) MaxNodeSize() int {
	return a.provider.MaxSize()
}

// MaxAlignment reports the strictest alignment this module guarantees.
func (a *LowLevel[P]) MaxAlignment() int {
	return align.MaxAlignment
}

// Stateful reports false: every instance of the same provider type is
// interchangeable.
func (a *LowLevel[P]) Stateful() bool { return false }

// Close reports any outstanding net allocation to the leak handler. It is
// safe, but unnecessary, to call Close more than once.
func (a *LowLevel[P]) Close() {
	if amount := a.leaked.Load(); amount != 0 {
		debugging.HandleLeak(a.info(), amount)
	}
}
