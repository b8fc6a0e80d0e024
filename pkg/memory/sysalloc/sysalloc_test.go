package sysalloc_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory/sysalloc"
)

func TestMallocAllocator(t *testing.T) {
	var a sysalloc.MallocAllocator

	p := a.Allocate(64, 8)
	require.NotNil(t, p)

	b := unsafe.Slice((*byte)(p), 64)
	for i := range b {
		b[i] = byte(i)
	}
	for i := range b {
		require.Equal(t, byte(i), b[i])
	}

	a.Deallocate(p, 64, 8)
}

func TestMallocAllocatorZeroSize(t *testing.T) {
	var a sysalloc.MallocAllocator
	require.Nil(t, a.Allocate(0, 8))
}

func TestHeapAllocatorSatisfiesProvider(t *testing.T) {
	var _ sysalloc.Provider = sysalloc.HeapAllocator{}
}
