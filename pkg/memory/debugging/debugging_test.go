package debugging_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory"
	"github.com/flier/saltmem/pkg/memory/debugging"
)

func TestFillAndIsFilled(t *testing.T) {
	buf := make([]byte, 16)
	ptr := unsafe.Pointer(&buf[0])

	debugging.Fill(ptr, len(buf), debugging.New)
	require.Nil(t, debugging.IsFilled(ptr, len(buf), debugging.New))

	buf[7] = 0
	bad := debugging.IsFilled(ptr, len(buf), debugging.New)
	require.NotNil(t, bad)
	require.Equal(t, unsafe.Pointer(&buf[7]), bad)
}

func TestFillNewWithoutFence(t *testing.T) {
	buf := make([]byte, 8)
	interior := debugging.FillNew(unsafe.Pointer(&buf[0]), len(buf), 0)
	require.Equal(t, unsafe.Pointer(&buf[0]), interior)
	require.Nil(t, debugging.IsFilled(interior, len(buf), debugging.New))
}

func TestFillFreeWithoutFence(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	outer := debugging.FillFree(unsafe.Pointer(&buf[0]), len(buf), 0)
	require.Equal(t, unsafe.Pointer(&buf[0]), outer)
	require.Nil(t, debugging.IsFilled(outer, len(buf), debugging.Freed))
}

func TestFillNewFillFreeRoundTripWithFence(t *testing.T) {
	const fence = 4
	const nodeSize = 8

	buf := make([]byte, fence+nodeSize+fence)
	base := unsafe.Pointer(&buf[0])

	interior := debugging.FillNew(base, nodeSize, fence)
	require.Equal(t, unsafe.Add(base, fence), interior)
	require.Nil(t, debugging.IsFilled(base, fence, debugging.Fence))
	require.Nil(t, debugging.IsFilled(interior, nodeSize, debugging.New))
	require.Nil(t, debugging.IsFilled(unsafe.Add(interior, nodeSize), fence, debugging.Fence))

	outer := debugging.FillFree(interior, nodeSize, fence)
	require.Equal(t, base, outer)
	require.Nil(t, debugging.IsFilled(interior, nodeSize, debugging.Freed))
}

func TestLeakHandlerInstallAndRestore(t *testing.T) {
	var got memory.AllocatorInfo
	var amount int64

	prev := debugging.SetLeakHandler(func(info memory.AllocatorInfo, a int64) {
		got = info
		amount = a
	})
	t.Cleanup(func() { debugging.SetLeakHandler(prev) })

	info := memory.AllocatorInfo{Name: "test-allocator"}
	debugging.HandleLeak(info, 128)

	if debugging.LeakEnabled {
		require.Equal(t, info, got)
		require.EqualValues(t, 128, amount)
	}
}

func TestSetLeakHandlerNilRestoresDefault(t *testing.T) {
	custom := debugging.SetLeakHandler(func(memory.AllocatorInfo, int64) {})
	defer debugging.SetLeakHandler(custom)

	restored := debugging.SetLeakHandler(nil)
	require.NotNil(t, restored)
}

func TestInvalidPointerHandlerInstall(t *testing.T) {
	var called bool
	prev := debugging.SetInvalidPointerHandler(func(memory.AllocatorInfo, unsafe.Pointer) {
		called = true
	})
	defer debugging.SetInvalidPointerHandler(prev)

	debugging.HandleInvalidPointer(memory.AllocatorInfo{Name: "x"}, nil)
	require.True(t, called)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "out of memory", debugging.OutOfMemory.String())
	require.Equal(t, "double free", debugging.DoubleFree.String())
	require.Equal(t, "unknown", debugging.Kind(999).String())
}
