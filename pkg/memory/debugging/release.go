//go:build !debug

package debugging

const (
	FillEnabled         = false
	FenceSize           = 0
	LeakEnabled         = false
	PointerCheckEnabled = false
	DoubleFreeEnabled   = false
	CheckAllocationSize = false
)
