package abi

import (
	"fmt"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
)

// Op identifies the direction of a memory access.
type Op uint8

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// BoundsError reports an access that would leave the addressable extent.
type BoundsError struct {
	Op     Op
	Ptr    uint32
	Len    uint32
	Extent uint64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s of %d bytes at %d exceeds extent %d", e.Op, e.Len, e.Ptr, e.Extent)
}

// Unwrap maps the access direction to its protocol error kind.
func (e *BoundsError) Unwrap() error {
	if e.Op == OpWrite {
		return errorcodes.ErrMemoryWrite
	}
	return errorcodes.ErrMemoryRead
}

// CheckRange verifies that [ptr, ptr+length) lies within [0, extent).
// The sum is computed in 64 bits so a huge length can never wrap around.
func CheckRange(op Op, ptr, length uint32, extent uint64) error {
	if uint64(ptr)+uint64(length) > extent {
		return &BoundsError{Op: op, Ptr: ptr, Len: length, Extent: extent}
	}
	return nil
}

// CheckWithin verifies that h lies entirely inside the region.
func CheckWithin(op Op, h, region Handle) error {
	if h.Ptr < region.Ptr || h.End() > region.End() {
		return &BoundsError{Op: op, Ptr: h.Ptr, Len: h.Len, Extent: region.End()}
	}
	return nil
}
