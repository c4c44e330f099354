// Package guestkit provides the guest side of the boundary protocol: the
// buffer arena the host reserves through, and helpers to decode arguments
// from and encode results into guest linear memory.
package guestkit

import (
	"fmt"
	"math"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
	"github.com/andrei-cloud/go_binio/pkg/abi"
)

// PageSize is the WebAssembly page size.
const PageSize = 65536

// reservedPrefix keeps offset 0 unused so a valid buffer never starts at the null address.
const reservedPrefix = 8

// Heap is the guest's view of its own linear memory.
type Heap interface {
	// Allocate returns the offset of a fresh region of at least size bytes.
	Allocate(size uint32) (uint32, error)
	// View returns the bytes at [ptr, ptr+length) for the given access.
	View(op abi.Op, ptr, length uint32) ([]byte, error)
}

// FlatHeap simulates a linear memory as a growable byte slice with an
// 8-byte aligned bump allocator. Growing replaces the backing slice, so views
// taken before a growth stop observing later writes, exactly like views into a
// real guest memory.
type FlatHeap struct {
	mem      []byte
	next     uint32
	maxPages uint32
}

// NewFlatHeap returns a heap of pages pages that may grow up to maxPages.
func NewFlatHeap(pages, maxPages uint32) *FlatHeap {
	if maxPages < pages {
		maxPages = pages
	}
	return &FlatHeap{
		mem:      make([]byte, uint64(pages)*PageSize),
		next:     reservedPrefix,
		maxPages: maxPages,
	}
}

// Allocate carves an aligned region, growing the memory when needed.
func (h *FlatHeap) Allocate(size uint32) (uint32, error) {
	aligned, err := alignUp(size)
	if err != nil {
		return 0, err
	}

	ptr := h.next
	end := uint64(ptr) + uint64(aligned)
	if end > uint64(len(h.mem)) {
		if err := h.grow(end); err != nil {
			return 0, err
		}
	}
	h.next = uint32(end)

	return ptr, nil
}

// View returns a bounds-checked slice of the memory.
func (h *FlatHeap) View(op abi.Op, ptr, length uint32) ([]byte, error) {
	if err := abi.CheckRange(op, ptr, length, h.Extent()); err != nil {
		return nil, err
	}
	end := ptr + length
	return h.mem[ptr:end:end], nil
}

// Extent returns the current memory size in bytes.
func (h *FlatHeap) Extent() uint64 {
	return uint64(len(h.mem))
}

// Pages returns the current memory size in pages.
func (h *FlatHeap) Pages() uint32 {
	return uint32(len(h.mem) / PageSize)
}

func (h *FlatHeap) grow(end uint64) error {
	pages := (end + PageSize - 1) / PageSize
	if pages > uint64(h.maxPages) {
		return fmt.Errorf("%w: need %d pages, limit %d", errorcodes.ErrReservation, pages, h.maxPages)
	}
	grown := make([]byte, pages*PageSize)
	copy(grown, h.mem)
	h.mem = grown

	return nil
}

// alignUp rounds n up to the next multiple of 8.
func alignUp(n uint32) (uint32, error) {
	if n > math.MaxUint32-7 {
		return 0, fmt.Errorf("%w: size %d cannot be aligned", errorcodes.ErrReservation, n)
	}
	return (n + 7) &^ 7, nil
}
