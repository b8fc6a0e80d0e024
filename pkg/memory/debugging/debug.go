//go:build debug

package debugging

// These constants mirror the SALT_MEMORY_DEBUG_* preprocessor knobs of the
// library this module is modeled on. Building with -tags debug sets them
// all; the default (release) build folds them all to false/0, so code
// gated on them compiles away.
const (
	// FillEnabled reports that magic-byte painting of new, freed and
	// internal memory is on. Fill, FillNew, FillFree and the allocators
	// that call them do not consult it: they paint in release builds too.
	FillEnabled = true

	// FenceSize is the number of fence bytes placed on either side of each
	// node to catch buffer overflows. Zero disables fencing.
	FenceSize = 8

	// LeakEnabled enables leak-handler invocation at allocator teardown.
	LeakEnabled = true

	// PointerCheckEnabled enables validation that a pointer passed to
	// pool.Pool's DeallocateNode, TryDeallocateNode or TryDeallocateArray
	// belongs to one of the pool's blocks. Pool.DeallocateArray and the
	// other allocators do not check.
	PointerCheckEnabled = true

	// DoubleFreeEnabled enables double-free detection in free lists, at
	// the cost of using the ordered (address-sorted) free list even where
	// an unordered one would otherwise suffice.
	DoubleFreeEnabled = true

	// CheckAllocationSize marks the allocation-size check mode. No
	// allocator in this module consults it: deallocation sizes are not
	// compared with the size originally requested.
	CheckAllocationSize = true
)
