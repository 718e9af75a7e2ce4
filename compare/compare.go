// Package compare defines the key ordering used by the skip list.
package compare

import (
	"bytes"

	"github.com/facette/natsort"
)

// Compare returns a negative number when a sorts before b, zero when the
// keys are equal, and a positive number when a sorts after b. The function
// must define a total order over all keys handed to a list.
type Compare func(a, b []byte) int

// Bytes is lexicographic byte order.
func Bytes(a, b []byte) int {
	return bytes.Compare(a, b)
}

// Natural orders keys as natural-sort strings, so "key2" sorts before
// "key10".
func Natural(a, b []byte) int {
	sa, sb := string(a), string(b)
	if sa == sb {
		return 0
	}
	if natsort.Compare(sa, sb) {
		return -1
	}
	return 1
}

// Reverse inverts the order defined by cmp.
func Reverse(cmp Compare) Compare {
	return func(a, b []byte) int {
		return cmp(b, a)
	}
}
