//go:build 386 || arm

package arch

import "math"

// MaxArenaSize bounds the arena buffer. A single allocation cannot exceed
// the signed address range on 32-bit platforms.
const MaxArenaSize = math.MaxInt32
