// Package temp implements the per-goroutine temporary allocator: a
// growing memory stack a caller borrows for the lifetime of a single
// [Scope], unwinding everything allocated within it in one step when the
// scope closes.
//
// "Per-thread" is realised as per-goroutine, via
// github.com/timandy/routine.ThreadLocal - the same goroutine-as-OS-thread
// analogue internal/debug/testing.go already relies on for its own
// per-goroutine testing-hook slot.
package temp

import (
	"sync/atomic"

	"github.com/timandy/routine"

	"github.com/flier/saltmem/pkg/memory/arena"
	"github.com/flier/saltmem/pkg/memory/block"
	"github.com/flier/saltmem/pkg/memory/lowlevel"
	"github.com/flier/saltmem/pkg/memory/stack"
	"github.com/flier/saltmem/pkg/memory/sysalloc"
)

// Mode selects how a goroutine's temporary stack comes into existence.
type Mode int

const (
	// AutoOnDemand lazily constructs the stack on first access from a
	// goroutine that has never used the temporary allocator before. This
	// is the default.
	AutoOnDemand Mode = iota
	// InitializerOnly requires the caller to construct a [Initializer]
	// before [Get] is usable on a goroutine; Get panics otherwise.
	InitializerOnly
	// NeverAuto requires the caller to call [Init] explicitly on each
	// goroutine before [Get] is usable; Get panics otherwise.
	NeverAuto
)

// DefaultBlockSize is the initial block size of a lazily constructed
// temporary stack.
const DefaultBlockSize = 4096

var currentMode atomic.Int32

// SetMode changes how new goroutines obtain their temporary stack.
// Goroutines that already have a stack are unaffected.
func SetMode(m Mode) { currentMode.Store(int32(m)) }

// CurrentMode reports the mode most recently installed by [SetMode].
func CurrentMode() Mode { return Mode(currentMode.Load()) }

var tls = routine.NewThreadLocal[*stack.Stack]()

func newDefaultStack() *stack.Stack {
	raw := lowlevel.New(sysalloc.MallocAllocator{})
	a := arena.New(raw, DefaultBlockSize, arena.DefaultGrowthFactor, 4)
	return stack.New(a)
}

// Get returns the calling goroutine's temporary stack, per the currently
// installed [Mode]: constructing one on demand under [AutoOnDemand], or
// panicking if none has been installed yet under [InitializerOnly] or
// [NeverAuto].
func Get() *stack.Stack {
	if s := tls.Get(); s != nil {
		return s
	}

	if CurrentMode() != AutoOnDemand {
		panic("temp: no temporary stack installed on this goroutine; call Init or construct an Initializer first")
	}

	s := newDefaultStack()
	tls.Set(s)
	return s
}

// Init explicitly installs a fresh temporary stack on the calling
// goroutine, for use under [NeverAuto] where no automatic construction
// ever happens. There is no matching teardown call: the stack is simply
// abandoned (and garbage collected) when the goroutine exits, or
// replaced by a later Init call.
func Init() { tls.Set(newDefaultStack()) }

// Initializer is the RAII-style construct/destroy guard for
// [InitializerOnly] mode: it installs a fresh stack for the calling
// goroutine on construction and restores whatever was installed before it
// (typically nil) on [Initializer.Close].
type Initializer struct {
	prev *stack.Stack
}

// NewInitializer installs a fresh temporary stack on the calling
// goroutine and returns a guard that restores the previous one (if any)
// when closed.
func NewInitializer() *Initializer {
	prev := tls.Get()
	tls.Set(newDefaultStack())
	return &Initializer{prev: prev}
}

// Close restores whatever temporary stack was installed on this goroutine
// before the Initializer was constructed.
func (i *Initializer) Close() { tls.Set(i.prev) }

// Scope captures the calling goroutine's temporary stack marker on
// construction and unwinds the stack back to it on [Scope.Close],
// releasing everything allocated through [Get] in between as one step.
type Scope struct {
	stack  *stack.Stack
	marker stack.Marker
}

// NewScope opens a temporary allocation scope on the calling goroutine's
// stack (obtained via [Get]).
func NewScope() Scope {
	s := Get()
	return Scope{stack: s, marker: s.Top()}
}

// Close unwinds the scope's stack back to the marker captured by
// [NewScope].
func (s Scope) Close() { s.stack.Unwind(s.marker) }
