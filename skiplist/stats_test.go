package skiplist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelCounts(t *testing.T) {
	s := New(WithSeed(61))
	defer s.Close()

	const n = 2000
	for i := 0; i < n; i++ {
		require.NoError(t, s.Insert(key(i), val(i)))
	}

	counts := s.LevelCounts()
	require.Len(t, counts, s.Height())
	require.Equal(t, n, counts[0])
	for level := 1; level < len(counts); level++ {
		assert.LessOrEqual(t, counts[level], counts[level-1])
	}
	// The top level in use has at least one participant.
	require.Greater(t, counts[len(counts)-1], 0)
}

func TestLevelCountsEmpty(t *testing.T) {
	s := New(WithSeed(67))
	defer s.Close()

	counts := s.LevelCounts()
	require.Equal(t, []int{0}, counts)
}

func TestSearchSteps(t *testing.T) {
	s := New(WithSeed(71))
	defer s.Close()

	require.Equal(t, 0, s.SearchSteps(key(1)))

	const n = 4096
	for i := 0; i < n; i++ {
		require.NoError(t, s.Insert(key(i), val(i)))
	}

	total := 0
	for i := 0; i < n; i += 64 {
		steps := s.SearchSteps(key(i))
		require.Greater(t, steps, 0)
		total += steps
	}
	// Expected cost is O(log n); anything near a linear scan means the
	// levels are not being used.
	assert.Less(t, float64(total)/float64(n/64), 64.0)
}
