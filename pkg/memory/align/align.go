// Package align implements the alignment arithmetic every allocator in
// this module is built on: power-of-two checks, log2, and the offset
// needed to bring an address up to a given alignment boundary.
package align

import "math/bits"

// MaxAlignment is the strictest scalar alignment this platform's allocator
// guarantees without additional padding - Go never requires more than a
// pointer's worth of alignment for any built-in scalar type.
const MaxAlignment = 8

// IsPow2 reports whether n is a power of two. Zero is not a power of two.
func IsPow2(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// ILog2 returns floor(log2(n)) for n >= 1.
func ILog2(n uintptr) int {
	if n == 0 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}

// ILog2Ceil returns ceil(log2(n)) for n >= 1.
func ILog2Ceil(n uintptr) int {
	log := ILog2(n)
	if !IsPow2(n) {
		log++
	}
	return log
}

// AlignOffset returns the number of bytes that must be added to addr to
// bring it up to a multiple of alignment, which must be a power of two.
func AlignOffset(addr uintptr, alignment uintptr) uintptr {
	misaligned := addr & (alignment - 1)
	if misaligned != 0 {
		return alignment - misaligned
	}
	return 0
}

// IsAligned reports whether addr is already a multiple of alignment.
func IsAligned(addr uintptr, alignment uintptr) bool {
	return addr%alignment == 0
}

// AlignmentFor returns the natural alignment of a node of the given size:
// the largest power of two not exceeding size, capped at MaxAlignment.
func AlignmentFor(size uintptr) uintptr {
	if size >= MaxAlignment {
		return MaxAlignment
	}
	if size == 0 {
		return 1
	}
	return uintptr(1) << ILog2(size)
}

// RoundUp rounds v up to the nearest multiple of align, which must be a
// power of two.
func RoundUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}
