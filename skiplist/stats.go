package skiplist

// LevelCounts reports how many entries participate at each level, from
// level 0 up to the highest level in use. An entry of height h is counted at
// levels 0 through h-1, so counts[0] equals Len and the counts are
// non-increasing.
func (s *SkipList) LevelCounts() []int {
	counts := make([]int, s.height)
	if s.closed {
		return counts
	}
	for nd := s.getNext(s.head, 0); nd != nil; nd = s.getNext(nd, 0) {
		for level := 0; level < int(nd.height); level++ {
			counts[level]++
		}
	}
	return counts
}

// SearchSteps returns the number of key comparisons a lookup for key
// performs. It runs the same top-down descent as a lookup without touching
// the list.
func (s *SkipList) SearchSteps(key []byte) int {
	if s.closed {
		return 0
	}
	steps := 0
	prev := s.head
	for level := s.height - 1; level >= 0; level-- {
		for {
			next := s.getNext(prev, level)
			if next == nil {
				break
			}
			steps++
			if s.cmp(next.getKey(s.arena), key) >= 0 {
				break
			}
			prev = next
		}
	}
	return steps
}
