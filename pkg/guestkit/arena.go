package guestkit

import (
	"fmt"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
	"github.com/andrei-cloud/go_binio/pkg/abi"
)

// minSlot is the smallest region the arena asks the heap for, so that even a
// zero-length reservation has a real address.
const minSlot = 8

// Arena is the guest buffer allocator. It keeps a single active slot that is
// overwritten, never freed, by each reservation: the argument buffer of a call
// is reused for its result once the arguments have been decoded.
//
// The slot only ever grows. A heap that cannot reclaim memory (FlatHeap) leaks
// every slot that was outgrown.
type Arena struct {
	heap     Heap
	slot     abi.Handle
	capacity uint32
	reserved bool
}

// NewArena returns an arena backed by heap.
func NewArena(heap Heap) *Arena {
	return &Arena{heap: heap}
}

// Reserve makes a region of size bytes the active slot and returns its packed
// address. The returned length always equals size.
func (a *Arena) Reserve(size int32) (int64, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: negative size %d", errorcodes.ErrReservation, size)
	}

	n := uint32(size)
	if !a.reserved || n > a.capacity {
		want := max(n, minSlot)
		ptr, err := a.heap.Allocate(want)
		if err != nil {
			return 0, err
		}
		a.slot.Ptr = ptr
		a.capacity = want
	}
	a.slot.Len = n
	a.reserved = true

	return a.slot.Pack(), nil
}

// Active returns the active slot.
func (a *Arena) Active() abi.Handle {
	return a.slot
}

// Capacity returns how many bytes the active slot can hold without moving.
func (a *Arena) Capacity() uint32 {
	return a.capacity
}

// Claim returns the bytes of the active slot. ptr and length must describe
// the active slot exactly; anything else would read memory the host never wrote.
func (a *Arena) Claim(ptr, length uint32) ([]byte, error) {
	if !a.reserved || ptr != a.slot.Ptr || length != a.slot.Len {
		return nil, &abi.BoundsError{Op: abi.OpRead, Ptr: ptr, Len: length, Extent: a.slot.End()}
	}
	return a.heap.View(abi.OpRead, ptr, length)
}

// Fill writes data into h, which must be the active slot and exactly as long as data.
func (a *Arena) Fill(h abi.Handle, data []byte) error {
	if !a.reserved || h != a.slot || uint64(len(data)) != uint64(h.Len) {
		return &abi.BoundsError{Op: abi.OpWrite, Ptr: h.Ptr, Len: uint32(len(data)), Extent: a.slot.End()}
	}
	dst, err := a.heap.View(abi.OpWrite, h.Ptr, h.Len)
	if err != nil {
		return err
	}
	copy(dst, data)

	return nil
}
