package skiplist

import "skipmap/compare"

// Option configures a SkipList at construction time.
type Option func(*SkipList)

// WithArenaSize sets the size in bytes of the arena backing the list. Every
// node, key, and value must fit in this buffer; once it is exhausted,
// Insert returns ErrArenaFull. Sizes of zero are ignored.
func WithArenaSize(size uint32) Option {
	return func(s *SkipList) {
		if size > 0 {
			s.arenaSize = size
		}
	}
}

// WithComparator replaces the default lexicographic byte order with cmp.
func WithComparator(cmp compare.Compare) Option {
	return func(s *SkipList) {
		if cmp != nil {
			s.cmp = cmp
		}
	}
}

// WithSeed fixes the seed of the height generator, making tower heights
// reproducible across runs.
func WithSeed(seed int64) Option {
	return func(s *SkipList) {
		s.seed = seed
		s.seeded = true
	}
}

// WithFullTowers allocates every node with a full MaxHeight tower instead of
// truncating the allocation to the drawn height. Towers average a height of
// 2, so this costs roughly 10x more link memory; in exchange every node
// shares one fixed layout.
func WithFullTowers() Option {
	return func(s *SkipList) {
		s.fullTowers = true
	}
}
