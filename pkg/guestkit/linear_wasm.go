//go:build wasm

package guestkit

import (
	"unsafe"

	"github.com/andrei-cloud/go_binio/pkg/abi"
)

// LinearHeap hands out Go-allocated buffers addressed by their offset in the
// module's linear memory. Only the most recent buffer is pinned; earlier ones
// become garbage once the arena moves past them.
type LinearHeap struct {
	pinned []byte
	base   uint32
}

// NewLinearHeap returns an empty heap.
func NewLinearHeap() *LinearHeap {
	return &LinearHeap{}
}

// Allocate pins a new buffer of size bytes and returns its address.
func (h *LinearHeap) Allocate(size uint32) (uint32, error) {
	aligned, err := alignUp(max(size, 1))
	if err != nil {
		return 0, err
	}

	buf := make([]byte, aligned)
	h.pinned = buf
	//nolint:gosec // linear memory offsets fit in 32 bits on wasm32.
	h.base = uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))

	return h.base, nil
}

// View returns the part of the pinned buffer at [ptr, ptr+length).
func (h *LinearHeap) View(op abi.Op, ptr, length uint32) ([]byte, error) {
	region := abi.Handle{Ptr: h.base, Len: uint32(len(h.pinned))}
	if err := abi.CheckWithin(op, abi.Handle{Ptr: ptr, Len: length}, region); err != nil {
		return nil, err
	}
	off := ptr - h.base
	return h.pinned[off : off+length : off+length], nil
}
