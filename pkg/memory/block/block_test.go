package block_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory/block"
)

func TestBlockContains(t *testing.T) {
	buf := make([]byte, 16)
	b := block.Block{Memory: unsafe.Pointer(&buf[0]), Size: len(buf)}

	require.True(t, b.Contains(unsafe.Pointer(&buf[0])))
	require.True(t, b.Contains(unsafe.Pointer(&buf[15])))
	require.False(t, b.Contains(b.End()))

	var outside byte
	require.False(t, b.Contains(unsafe.Pointer(&outside)))
}

func TestStaticBlockAllocator(t *testing.T) {
	storage := make([]byte, 64)
	a := block.NewStaticBlockAllocator(storage)

	require.Equal(t, 64, a.NextBlockSize())

	b := a.Allocate()
	require.Equal(t, 64, b.Size)
	require.Equal(t, 0, a.NextBlockSize())

	require.Panics(t, func() { a.Allocate() })

	a.Deallocate(b) // no-op, must not panic
}
