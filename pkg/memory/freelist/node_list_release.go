//go:build !debug

package freelist

// NewNodeList creates the free list flavor used for single-node
// allocation. Without double-free detection, the cheaper unordered list
// suffices.
func NewNodeList(nodeSize int) List {
	return NewUnordered(nodeSize)
}
