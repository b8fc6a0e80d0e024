package lock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory/arena"
	"github.com/flier/saltmem/pkg/memory/lock"
	"github.com/flier/saltmem/pkg/memory/lowlevel"
	"github.com/flier/saltmem/pkg/memory/stack"
	"github.com/flier/saltmem/pkg/memory/sysalloc"
)

func newStack(t *testing.T) *stack.Stack {
	t.Helper()
	raw := lowlevel.New(sysalloc.MallocAllocator{})
	t.Cleanup(raw.Close)
	a := arena.New(raw, 4096, 2, 4)
	return stack.New(a)
}

func TestLockedDelegatesAllocations(t *testing.T) {
	s := newStack(t)
	l := lock.New[*stack.Stack](s, &sync.Mutex{})

	p1 := l.AllocateNode(16, 8)
	p2 := l.AllocateNode(16, 8)
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	require.NotEqual(t, p1, p2)
}

func TestLockedWithNoopMutex(t *testing.T) {
	s := newStack(t)
	l := lock.New[*stack.Stack](s, lock.NoopMutex{})

	require.NotNil(t, l.AllocateNode(8, 8))
}

func TestLockedNilLockerDefaultsToNoop(t *testing.T) {
	s := newStack(t)
	l := lock.New[*stack.Stack](s, nil)

	require.NotNil(t, l.AllocateNode(8, 8))
}

func TestLockedStatefulAlwaysTrue(t *testing.T) {
	s := newStack(t)
	l := lock.New[*stack.Stack](s, lock.NoopMutex{})
	require.True(t, l.Stateful())
}

func TestLockedSerializesConcurrentCallers(t *testing.T) {
	s := newStack(t)
	l := lock.New[*stack.Stack](s, &sync.Mutex{})

	var wg sync.WaitGroup
	results := make(chan bool, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.AllocateNode(8, 8) != nil
		}()
	}
	wg.Wait()
	close(results)

	for ok := range results {
		require.True(t, ok)
	}
}
