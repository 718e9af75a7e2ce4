package arena

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/edsrzf/mmap-go"

	"skipmap/internal/arch"
)

var (
	// ErrArenaFull is returned when an allocation does not fit in the
	// remaining buffer space.
	ErrArenaFull = errors.New("skipmap: allocation failed because arena is full")

	// ErrOffsetOverflow is returned when the requested allocation would push
	// the bump position past what a 32-bit link offset can address.
	ErrOffsetOverflow = errors.New("skipmap: allocation size overflows arena offsets")
)

// Arena is a single-owner bump allocator. It hands out 32-bit offsets into a
// contiguous buffer; offset 0 is reserved as the arena's nil reference. The
// arena never frees individual allocations. All storage is reclaimed at once
// by Reset or Close.
type Arena struct {
	position uint32
	buffer   []byte
	overflow uint32
	mapping  mmap.MMap
	closed   sync.Once
}

// New allocates an arena backed by an anonymous memory mapping, falling back
// to a heap slice when the mapping cannot be created.
func New(size uint32) *Arena {
	if uint64(size) > uint64(arch.MaxArenaSize) {
		size = uint32(arch.MaxArenaSize)
	}

	a := &Arena{}

	// Position/offset 0 is reserved as the arena's nil reference.
	a.position = 1

	m, err := mmap.MapRegion(nil, int(size), mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		a.buffer = make([]byte, size)
		return a
	}
	a.mapping = m
	a.buffer = m

	return a
}

// WithOverflow provides extra slack at the end of the buffer so that a
// pointer cast to a struct type whose tail was truncated at allocation time
// cannot read out of bounds of the backing slice.
func WithOverflow(size, overflow uint32) *Arena {
	if size > ^uint32(0)-overflow {
		size = ^uint32(0) - overflow
	}
	a := New(size + overflow)
	a.overflow = overflow
	return a
}

// Allocate reserves size bytes at the requested alignment and returns the
// offset of the allocation. Alignment must be a power of two.
func (a *Arena) Allocate(size, alignment uint32) (offset uint32, err error) {
	position := uint64(a.position)

	// Pad the allocation with enough bytes to ensure the requested alignment.
	padded := uint64(size) + uint64(alignment) - 1

	if position+padded > uint64(arch.MaxArenaSize) {
		return 0, ErrOffsetOverflow
	}
	if position+padded > uint64(len(a.buffer))-uint64(a.overflow) {
		return 0, ErrArenaFull
	}

	a.position = uint32(position + padded)

	// Return the aligned offset.
	offset = uint32((position + uint64(alignment) - 1) &^ (uint64(alignment) - 1))
	return offset, nil
}

// GetBytes returns the allocation at offset as a byte slice. The capacity is
// clamped to size so the caller cannot overwrite past the allocation.
func (a *Arena) GetBytes(offset uint32, size uint32) []byte {
	if offset == 0 {
		return nil
	}
	return a.buffer[offset : offset+size : offset+size]
}

func (a *Arena) GetPointer(offset uint32) unsafe.Pointer {
	if offset == 0 {
		return nil
	}
	return unsafe.Pointer(&a.buffer[offset])
}

func (a *Arena) GetPointerOffset(ptr unsafe.Pointer) uint32 {
	if ptr == nil {
		return 0
	}
	return uint32(uintptr(ptr) - uintptr(unsafe.Pointer(&a.buffer[0])))
}

// Len returns the number of bytes handed out so far, padding included.
func (a *Arena) Len() uint32 {
	return a.position - 1
}

func (a *Arena) Cap() uint32 {
	if a.buffer == nil {
		return 0
	}
	return uint32(len(a.buffer)) - a.overflow - 1
}

// Reset discards every allocation. Previously returned offsets and slices
// must not be used afterwards.
func (a *Arena) Reset() {
	a.position = 1
}

// Close unmaps the backing buffer. Safe to call more than once.
func (a *Arena) Close() error {
	var err error
	a.closed.Do(func() {
		if a.mapping != nil {
			err = a.mapping.Unmap()
			a.mapping = nil
		}
		a.buffer = nil
	})
	return err
}
