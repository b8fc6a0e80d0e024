package static_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory/align"
	"github.com/flier/saltmem/pkg/memory/static"
)

func TestAllocateAligned(t *testing.T) {
	buf := make([]byte, 1024)
	s := static.New(buf)

	p := s.AllocateNode(1, 1)
	require.NotNil(t, p)
	require.True(t, align.IsAligned(uintptr(p), 1))

	p2 := s.AllocateNode(16, align.MaxAlignment)
	require.NotNil(t, p2)
	require.True(t, align.IsAligned(uintptr(p2), align.MaxAlignment))
}

func TestAllocateNeverOverlaps(t *testing.T) {
	buf := make([]byte, 1024)
	s := static.New(buf)

	var ptrs []unsafe.Pointer
	for i := 0; i < 10; i++ {
		ptrs = append(ptrs, s.AllocateNode(16, 8))
	}
	for i := range ptrs {
		for j := range ptrs {
			if i != j {
				require.NotEqual(t, ptrs[i], ptrs[j])
			}
		}
	}
}

func TestDeallocateIsNoop(t *testing.T) {
	buf := make([]byte, 128)
	s := static.New(buf)

	p := s.AllocateNode(16, 8)
	before := s.MaxNodeSize()
	s.DeallocateNode(p, 16, 8)
	require.Equal(t, before, s.MaxNodeSize())
}

func TestExhaustionPanics(t *testing.T) {
	buf := make([]byte, 8)
	s := static.New(buf)

	require.Panics(t, func() {
		s.AllocateNode(64, 8)
	})
}
