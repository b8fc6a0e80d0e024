package temp_test

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/flier/saltmem/pkg/memory/temp"
)

func TestAutoOnDemandLazilyConstructs(t *testing.T) {
	temp.SetMode(temp.AutoOnDemand)
	t.Cleanup(func() { temp.SetMode(temp.AutoOnDemand) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		s := temp.Get()
		require.NotNil(t, s)
		p := s.AllocateNode(16, 8)
		require.NotNil(t, p)
	}()
	<-done
}

func TestNeverAutoPanicsWithoutInit(t *testing.T) {
	temp.SetMode(temp.NeverAuto)
	t.Cleanup(func() { temp.SetMode(temp.AutoOnDemand) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		require.Panics(t, func() { temp.Get() })
	}()
	<-done
}

func TestNeverAutoWorksAfterInit(t *testing.T) {
	temp.SetMode(temp.NeverAuto)
	t.Cleanup(func() { temp.SetMode(temp.AutoOnDemand) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		temp.Init()
		require.NotNil(t, temp.Get().AllocateNode(8, 8))
	}()
	<-done
}

func TestInitializerOnlyRestoresPreviousOnClose(t *testing.T) {
	temp.SetMode(temp.InitializerOnly)
	t.Cleanup(func() { temp.SetMode(temp.AutoOnDemand) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		require.Panics(t, func() { temp.Get() })

		init := temp.NewInitializer()
		require.NotNil(t, temp.Get())
		init.Close()

		require.Panics(t, func() { temp.Get() })
	}()
	<-done
}

func TestScopeUnwindsOnClose(t *testing.T) {
	temp.SetMode(temp.AutoOnDemand)
	t.Cleanup(func() { temp.SetMode(temp.AutoOnDemand) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		s := temp.Get()
		before := s.Top()

		func() {
			scope := temp.NewScope()
			defer scope.Close()
			s.AllocateNode(32, 8)
			s.AllocateNode(32, 8)
		}()

		require.Equal(t, before, s.Top())
	}()
	<-done
}

func TestEachGoroutineGetsItsOwnStack(t *testing.T) {
	temp.SetMode(temp.AutoOnDemand)
	t.Cleanup(func() { temp.SetMode(temp.AutoOnDemand) })

	var wg sync.WaitGroup
	ptrs := make(chan uintptr, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := temp.Get()
			ptrs <- uintptr(unsafe.Pointer(s.AllocateNode(8, 8)))
		}()
	}
	wg.Wait()
	close(ptrs)

	seen := map[uintptr]bool{}
	for p := range ptrs {
		require.False(t, seen[p], "two goroutines' temporary stacks returned the same address")
		seen[p] = true
	}
}
