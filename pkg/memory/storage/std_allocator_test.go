package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory/lowlevel"
	"github.com/flier/saltmem/pkg/memory/stack"
	"github.com/flier/saltmem/pkg/memory/storage"
	"github.com/flier/saltmem/pkg/memory/sysalloc"
)

type point struct{ X, Y int64 }

func TestStdAllocatorAllocateDeallocate(t *testing.T) {
	s := newStack(t)
	alloc := storage.NewStdAllocator[point, *stack.Stack](s)

	p := alloc.Allocate(1)
	require.NotNil(t, p)
	p.X, p.Y = 1, 2
	require.Equal(t, int64(1), p.X)

	alloc.Deallocate(p, 1)
}

func TestStdAllocatorPropagationFlags(t *testing.T) {
	s := newStack(t)
	alloc := storage.NewStdAllocator[point, *stack.Stack](s)

	require.False(t, alloc.PropagateOnCopy(), "stack is stateful, so copies should keep the same instance")
	require.False(t, alloc.PropagateOnMove())
	require.False(t, alloc.PropagateOnSwap())
}

func TestStdAllocatorEqualByInstanceIdentity(t *testing.T) {
	s1 := newStack(t)
	s2 := newStack(t)

	a1 := storage.NewStdAllocator[point, *stack.Stack](s1)
	a1Again := storage.NewStdAllocator[point, *stack.Stack](s1)
	a2 := storage.NewStdAllocator[point, *stack.Stack](s2)

	require.True(t, a1.Equal(a1Again))
	require.False(t, a1.Equal(a2))
}

func TestStdAllocatorStatelessAlwaysEqual(t *testing.T) {
	raw1 := lowlevel.New(sysalloc.MallocAllocator{})
	t.Cleanup(raw1.Close)
	raw2 := lowlevel.New(sysalloc.MallocAllocator{})
	t.Cleanup(raw2.Close)

	a1 := storage.NewStdAllocator[point, *lowlevel.LowLevel[sysalloc.MallocAllocator]](raw1)
	a2 := storage.NewStdAllocator[point, *lowlevel.LowLevel[sysalloc.MallocAllocator]](raw2)

	require.True(t, a1.Equal(a2), "stateless allocators of the same type are interchangeable")
	require.True(t, a1.PropagateOnCopy())
}

func TestRebindSharesUnderlyingAllocator(t *testing.T) {
	s := newStack(t)
	alloc := storage.NewStdAllocator[point, *stack.Stack](s)

	rebound := storage.Rebind[int64](alloc)
	p := rebound.Allocate(4)
	require.NotNil(t, p)
}
