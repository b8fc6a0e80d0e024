package poollist_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory/arena"
	"github.com/flier/saltmem/pkg/memory/freelist"
	"github.com/flier/saltmem/pkg/memory/lowlevel"
	"github.com/flier/saltmem/pkg/memory/poollist"
	"github.com/flier/saltmem/pkg/memory/sysalloc"
)

func newPoolList(t *testing.T, policy freelist.AccessPolicy, maxNodeSize, blockSize int) *poollist.PoolList {
	t.Helper()
	raw := lowlevel.New(sysalloc.MallocAllocator{})
	t.Cleanup(raw.Close)
	a := arena.New(raw, blockSize, 2, 4)
	return poollist.New(policy, maxNodeSize, blockSize, a)
}

func TestBucketedAllocateDeallocateRoundTrip(t *testing.T) {
	pl := newPoolList(t, freelist.Log2Policy{}, 16, 4000)

	small := pl.AllocateNode(1, 1)
	big := pl.AllocateNode(8, 8)
	require.NotNil(t, small)
	require.NotNil(t, big)
	require.NotEqual(t, small, big)

	pl.DeallocateNode(small, 1, 1)
	again := pl.AllocateNode(1, 1)
	require.Equal(t, small, again)
}

func TestBucketsAreIndependent(t *testing.T) {
	pl := newPoolList(t, freelist.Log2Policy{}, 16, 4000)

	var smallNodes, bigNodes []uintptr
	for i := 0; i < 5; i++ {
		smallNodes = append(smallNodes, ptrAddr(pl.AllocateNode(1, 1)))
		bigNodes = append(bigNodes, ptrAddr(pl.AllocateNode(16, 8)))
	}

	require.Len(t, smallNodes, 5)
	require.Len(t, bigNodes, 5)
	for _, s := range smallNodes {
		for _, b := range bigNodes {
			require.NotEqual(t, s, b)
		}
	}
}

func TestIdentityPolicyIsolatesExactSizes(t *testing.T) {
	pl := newPoolList(t, freelist.IdentityPolicy{}, 32, 4000)

	n8 := pl.AllocateNode(8, 8)
	n16 := pl.AllocateNode(16, 8)
	require.NotNil(t, n8)
	require.NotNil(t, n16)
}

func TestReservePrefillsBucket(t *testing.T) {
	pl := newPoolList(t, freelist.Log2Policy{}, 16, 4000)

	pl.Reserve(8, 5)
	n, ok := pl.TryAllocateNode(8, 8)
	require.True(t, ok)
	require.NotNil(t, n)
}

func TestMaxNodeSizeAndAlignment(t *testing.T) {
	pl := newPoolList(t, freelist.Log2Policy{}, 16, 4000)
	require.Equal(t, 16, pl.MaxNodeSize())
	require.Equal(t, 8, pl.MaxAlignment())
}

func ptrAddr(p unsafe.Pointer) uintptr {
	return uintptr(p)
}
