package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory/arena"
	"github.com/flier/saltmem/pkg/memory/lowlevel"
	"github.com/flier/saltmem/pkg/memory/sysalloc"
)

func newArena(t *testing.T, initial int, growth float64, maxCached int) *arena.Arena {
	t.Helper()
	raw := lowlevel.New(sysalloc.MallocAllocator{})
	t.Cleanup(raw.Close)
	return arena.New(raw, initial, growth, maxCached)
}

func TestAllocateGrowsBlockSize(t *testing.T) {
	a := newArena(t, 16, 2, 0)

	require.Equal(t, 16, a.NextBlockSize())

	b1 := a.Allocate()
	require.Equal(t, 16, b1.Size)
	require.Equal(t, 32, a.NextBlockSize())

	b2 := a.Allocate()
	require.Equal(t, 32, b2.Size)
	require.Equal(t, 64, a.NextBlockSize())

	require.Equal(t, b1.Size+b2.Size, a.Size())
	require.Equal(t, b2, a.CurrentBlock())
}

func TestDeallocateReusesFromCache(t *testing.T) {
	a := newArena(t, 16, 2, 4)

	b1 := a.Allocate()
	a.Deallocate(b1)

	b2 := a.Allocate()
	require.Equal(t, b1, b2)
	// Growth only happens on a fresh allocation, not a cache hit.
	require.Equal(t, 32, a.NextBlockSize())
}

func TestShrinkToFitDrainsCache(t *testing.T) {
	a := newArena(t, 16, 2, 4)

	b := a.Allocate()
	a.Deallocate(b)

	a.ShrinkToFit()

	fresh := a.Allocate()
	require.NotEqual(t, b, fresh)
}

func TestDeallocateBeyondCacheReleasesAndShrinks(t *testing.T) {
	a := newArena(t, 16, 2, 0)

	b := a.Allocate()
	require.Equal(t, 32, a.NextBlockSize())

	a.Deallocate(b)
	require.Equal(t, 16, a.NextBlockSize())
}
