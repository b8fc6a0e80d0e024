package storage_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory/arena"
	"github.com/flier/saltmem/pkg/memory/lowlevel"
	"github.com/flier/saltmem/pkg/memory/pool"
	"github.com/flier/saltmem/pkg/memory/storage"
	"github.com/flier/saltmem/pkg/memory/sysalloc"
)

func newPool(t *testing.T) *pool.Pool {
	t.Helper()
	raw := lowlevel.New(sysalloc.MallocAllocator{})
	t.Cleanup(raw.Close)
	a := arena.New(raw, pool.MinBlockSize(16, 8), 2, 4)
	return pool.New(pool.NodePool, 16, pool.MinBlockSize(16, 8), a)
}

func TestAnyReferenceWrapsRawAllocator(t *testing.T) {
	p := newPool(t)
	ref := storage.NewAnyReference(p)

	n := ref.AllocateNode(16, 8)
	require.NotNil(t, n)
	require.True(t, ref.Stateful())
	require.True(t, ref.IsComposable())

	_, ok := ref.TryAllocateNode(16, 8)
	require.True(t, ok)
}

type stdLikeMallocator struct{}

func (stdLikeMallocator) Alloc(size int) unsafe.Pointer {
	buf := make([]byte, size)
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Pointer(&buf[0])
}

func (stdLikeMallocator) Dealloc(unsafe.Pointer, int) {}

func TestAnyReferenceWrapsStdLike(t *testing.T) {
	ref := storage.NewAnyReference(stdLikeMallocator{})

	p := ref.AllocateNode(32, 8)
	require.NotNil(t, p)
	require.True(t, ref.Stateful())
	require.False(t, ref.IsComposable())

	require.Panics(t, func() { ref.TryAllocateNode(32, 8) })
}

func TestAnyReferencePanicsOnUnsupportedType(t *testing.T) {
	require.Panics(t, func() { storage.NewAnyReference(42) })
}
