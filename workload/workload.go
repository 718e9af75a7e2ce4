// Package workload generates key streams for exercising the skip list.
// Generators draw ranks in [0, n); Key and SequentialKey turn a rank into a
// byte-slice key.
package workload

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// Generator yields key ranks in [0, n).
type Generator interface {
	Next() int
	N() int
	// Entropy returns the Shannon entropy of the rank distribution in bits.
	Entropy() float64
}

// Key maps a rank to an 8-byte key scrambled across the key space, so that a
// rank-ordered stream does not degenerate into sorted inserts. Distinct
// ranks collide only with the probability of a 64-bit hash collision.
func Key(rank int) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(rank))
	binary.BigEndian.PutUint64(buf[:], murmur3.Sum64(buf[:]))
	return buf[:]
}

// SequentialKey maps a rank to its 8-byte big-endian encoding, so key order
// follows rank order.
func SequentialKey(rank int) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(rank))
	return buf[:]
}
