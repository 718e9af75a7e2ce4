package skiplist

import (
	"unsafe"

	"skipmap/internal/arena"
)

const (
	nodeAlignment = uint32(unsafe.Sizeof(uint32(0)))
	nodeSize      = uint32(unsafe.Sizeof(node{}))
	linkSize      = uint32(unsafe.Sizeof(uint32(0)))
)

// node is the arena-resident header of one entry. The key bytes follow the
// header in the same allocation, then the value bytes.
type node struct {
	// Immutable fields
	keyOffset uint32
	keySize   uint32
	height    uint32

	// The value slot is rewritten in place on upsert when the new value
	// fits, and replaced by a fresh arena allocation when it does not.
	valOffset uint32
	valSize   uint32
	valCap    uint32

	// Most nodes do not need the full height of the tower, since the
	// probability of each successive level halves. The trailing elements are
	// never accessed, so the allocation is deliberately truncated to height
	// links. The tower must therefore stay the final field of the struct.
	//
	// A link holds the arena offset of the successor at that level, or zero
	// when the node has no successor there.
	tower [MaxHeight]uint32
}

func (n *node) getKey(a *arena.Arena) []byte {
	return a.GetBytes(n.keyOffset, n.keySize)
}

func (n *node) getValue(a *arena.Arena) []byte {
	return a.GetBytes(n.valOffset, n.valSize)
}
