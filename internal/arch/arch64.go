//go:build amd64 || arm64

package arch

import "math"

// MaxArenaSize bounds the arena buffer so that every byte stays addressable
// by a 32-bit link offset.
const MaxArenaSize = math.MaxUint32
