// Package skiplist implements an in-memory ordered map as a probabilistic
// skip list. All node storage lives in a single arena; nodes reference each
// other through stable 32-bit arena offsets, and each node's tower of
// forward links is allocated exactly as tall as its randomly drawn height.
//
// A list is owned by a single goroutine. It provides no internal
// synchronization and must be protected by an external lock to be shared.
package skiplist

import (
	"errors"
	"math"
	"math/rand"
	"unsafe"

	"skipmap/compare"
	"skipmap/internal/arena"
)

const (
	// MaxHeight caps node towers. With p = 1/2 the expected tower height is
	// 2, so 20 levels comfortably cover hundreds of millions of entries.
	MaxHeight = 20

	pValue = 0.5

	// DefaultArenaSize is the backing buffer size used when no
	// WithArenaSize option is given.
	DefaultArenaSize = 16 << 20
)

var probabilities [MaxHeight]uint32

func init() {
	// Precompute the level thresholds so that a height draw costs a single
	// random number.
	p := 1.0
	for i := 0; i < MaxHeight; i++ {
		probabilities[i] = uint32(float64(math.MaxUint32) * p)
		p *= pValue
	}
}

var (
	// ErrArenaFull is returned by Insert when the arena cannot hold the new
	// node. The list itself is left unchanged.
	ErrArenaFull = arena.ErrArenaFull

	// ErrSizeOverflow is returned when a key/value pair is so large that the
	// node layout computation overflows the arena's offset arithmetic.
	ErrSizeOverflow = errors.New("skipmap: key/value size overflows node layout")

	// ErrClosed is returned by Insert after Close.
	ErrClosed = errors.New("skipmap: skiplist closed")
)

// SkipList is an ordered map from byte-slice keys to byte-slice values with
// expected O(log n) lookup and insert. Keys are unique; inserting an
// existing key overwrites its value. Deletion is not supported.
type SkipList struct {
	arena *arena.Arena
	head  *node
	cmp   compare.Compare
	rng   *rand.Rand

	// height is the highest level currently in use by any real node. It
	// starts at 1 and only grows, when an inserted node draws a greater
	// height.
	height int
	size   int

	fullTowers bool
	closed     bool

	arenaSize uint32
	seed      int64
	seeded    bool
}

// New constructs an empty list. It panics only if the configured arena is
// too small to hold the head sentinel.
func New(opts ...Option) *SkipList {
	s := &SkipList{
		cmp:       compare.Bytes,
		arenaSize: DefaultArenaSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.seeded {
		s.rng = rand.New(rand.NewSource(rand.Int63()))
	} else {
		s.rng = rand.New(rand.NewSource(s.seed))
	}
	s.arena = arena.WithOverflow(s.arenaSize, nodeSize)
	s.Reset()
	return s
}

// Reset empties the list and recycles its arena. Offsets and value slices
// obtained before the reset must not be used afterwards.
func (s *SkipList) Reset() {
	if s.closed {
		return
	}
	s.arena.Reset()

	head, err := s.newRawNode(MaxHeight, 0, 0)
	if err != nil {
		panic("skipmap: arena is not large enough to hold the head node")
	}
	// The head is a sentinel: full-height tower, no key, no value.
	head.keyOffset = 0
	head.valOffset = 0

	s.head = head
	s.height = 1
	s.size = 0
}

// Insert adds key with value, overwriting the value in place when the key is
// already present. An overwrite never changes the node's tower or the list
// size. Insert fails loudly with ErrArenaFull when node storage cannot be
// obtained; a failed insert leaves the list unchanged.
func (s *SkipList) Insert(key, value []byte) error {
	if s.closed {
		return ErrClosed
	}

	var spl [MaxHeight]*node
	if nd := s.findSplice(key, &spl); nd != nil && s.cmp(nd.getKey(s.arena), key) == 0 {
		return s.setValue(nd, value)
	}

	height := s.randomHeight()
	nd, err := s.newNode(key, value, uint32(height))
	if err != nil {
		return err
	}

	if height > s.height {
		// No real node participates above the old height yet, so the head
		// is the predecessor on every new level.
		for level := s.height; level < height; level++ {
			spl[level] = s.head
		}
		s.height = height
	}

	// Splice bottom-up. Linking level 0 first keeps every already-linked
	// level a fully connected chain while the upper levels are pending.
	ndOffset := s.arena.GetPointerOffset(unsafe.Pointer(nd))
	for level := 0; level < height; level++ {
		nd.tower[level] = spl[level].tower[level]
		spl[level].tower[level] = ndOffset
	}

	s.size++
	return nil
}

// Get returns the value stored for key. The returned slice aliases the
// list's internal storage and must be treated as read-only; it is valid
// until the next Reset or Close.
func (s *SkipList) Get(key []byte) ([]byte, bool) {
	nd := s.seek(key)
	if nd == nil {
		return nil, false
	}
	return nd.getValue(s.arena), true
}

// GetMut returns the value stored for key. Unlike Get, the caller may
// modify the returned bytes in place; the change is visible to subsequent
// lookups. The slice is valid until the next Reset or Close.
func (s *SkipList) GetMut(key []byte) ([]byte, bool) {
	nd := s.seek(key)
	if nd == nil {
		return nil, false
	}
	return nd.getValue(s.arena), true
}

// Len returns the number of entries in the list.
func (s *SkipList) Len() int {
	return s.size
}

// Height returns the highest level currently in use by any entry.
func (s *SkipList) Height() int {
	return s.height
}

// Size returns the number of arena bytes consumed so far.
func (s *SkipList) Size() uint32 {
	return s.arena.Len()
}

// Cap returns the number of arena bytes available to this list.
func (s *SkipList) Cap() uint32 {
	return s.arena.Cap()
}

// Close releases every node at once by unmapping the backing arena. The
// level-0 chain reaches each node exactly once, but no walk is needed: the
// arena owns all node storage outright. After Close, Insert returns
// ErrClosed and lookups report absence. Close is idempotent.
func (s *SkipList) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.head = nil
	return s.arena.Close()
}

func (s *SkipList) seek(key []byte) *node {
	if s.closed {
		return nil
	}
	var spl [MaxHeight]*node
	nd := s.findSplice(key, &spl)
	if nd == nil || s.cmp(nd.getKey(s.arena), key) != 0 {
		return nil
	}
	return nd
}

// findSplice returns the first node whose key is >= key, or nil if there is
// none, filling spl with the last node strictly before key at every level in
// use. The descent never restarts from the head: each level resumes from the
// predecessor found one level above.
func (s *SkipList) findSplice(key []byte, spl *[MaxHeight]*node) *node {
	prev := s.head
	for level := s.height - 1; level >= 0; level-- {
		prev = s.findSpliceForLevel(key, level, prev)
		spl[level] = prev
	}
	return s.getNext(prev, 0)
}

// findSpliceForLevel advances along one level while the next key is still
// strictly less than key.
func (s *SkipList) findSpliceForLevel(key []byte, level int, start *node) *node {
	prev := start
	for {
		next := s.getNext(prev, level)
		if next == nil {
			break
		}
		if s.cmp(next.getKey(s.arena), key) >= 0 {
			break
		}
		prev = next
	}
	return prev
}

func (s *SkipList) getNext(nd *node, level int) *node {
	offset := nd.tower[level]
	if offset == 0 {
		return nil
	}
	return (*node)(s.arena.GetPointer(offset))
}

// randomHeight draws a tower height in [1, MaxHeight]. Each level is
// reached with half the probability of the one below, so
// P(height >= k) = 2^-(k-1), for an expected height of 2.
func (s *SkipList) randomHeight() int {
	rnd := s.rng.Uint32()
	height := 1
	for height < MaxHeight && rnd <= probabilities[height] {
		height++
	}
	return height
}

// newNode allocates a node sized exactly for its drawn height plus the key
// and value bytes, and copies both in.
func (s *SkipList) newNode(key, value []byte, height uint32) (*node, error) {
	nd, err := s.newRawNode(height, len(key), len(value))
	if err != nil {
		return nil, err
	}
	copy(nd.getKey(s.arena), key)
	copy(nd.getValue(s.arena), value)
	return nd, nil
}

func (s *SkipList) newRawNode(height uint32, keySize, valSize int) (*node, error) {
	// Truncate the allocation to drop the tower links above height. The
	// WithFullTowers option trades that saving for a single fixed layout.
	truncated := nodeSize
	if !s.fullTowers {
		truncated -= (MaxHeight - height) * linkSize
	}
	total := uint64(truncated) + uint64(keySize) + uint64(valSize)
	if total > math.MaxUint32 {
		return nil, ErrSizeOverflow
	}

	offset, err := s.arena.Allocate(uint32(total), nodeAlignment)
	if err != nil {
		return nil, err
	}

	nd := (*node)(s.arena.GetPointer(offset))
	nd.keyOffset = offset + truncated
	nd.keySize = uint32(keySize)
	nd.valOffset = nd.keyOffset + uint32(keySize)
	nd.valSize = uint32(valSize)
	nd.valCap = uint32(valSize)
	nd.height = height
	// The arena is recycled by Reset, so the links must be cleared
	// explicitly rather than relying on zeroed memory.
	for level := uint32(0); level < height; level++ {
		nd.tower[level] = 0
	}
	return nd, nil
}

// setValue overwrites an existing node's value. The new bytes reuse the
// node's value slot when they fit; otherwise a fresh region is allocated and
// the old bytes stay unreachable until Reset or Close.
func (s *SkipList) setValue(nd *node, value []byte) error {
	if uint64(len(value)) <= uint64(nd.valCap) {
		copy(s.arena.GetBytes(nd.valOffset, nd.valCap), value)
		nd.valSize = uint32(len(value))
		return nil
	}
	if uint64(len(value)) > math.MaxUint32 {
		return ErrSizeOverflow
	}
	offset, err := s.arena.Allocate(uint32(len(value)), 1)
	if err != nil {
		return err
	}
	copy(s.arena.GetBytes(offset, uint32(len(value))), value)
	nd.valOffset = offset
	nd.valSize = uint32(len(value))
	nd.valCap = uint32(len(value))
	return nil
}
