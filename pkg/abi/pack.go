// Package abi defines how buffer handles cross the scalar-only WASM call boundary.
//
// WebAssembly exports can only take and return i32/i64/f32/f64 values, so a
// (pointer, length) pair describing a region of linear memory has to be folded
// into scalars. The default convention packs both halves into one i64:
//
//	packed = pointer<<32 | length&0xffffffff
//
// Both sides of the boundary use the same functions, so the guest and the host
// never disagree about signed and unsigned interpretations of the low word.
package abi

import (
	"fmt"
	"math"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
)

const lowMask = 0x00000000ffffffff

// Handle describes a contiguous region of guest linear memory.
type Handle struct {
	Ptr uint32
	Len uint32
}

// Pack combines a pointer and a length into a single packed address.
func Pack(ptr, length uint32) int64 {
	return int64(uint64(ptr)<<32 | uint64(length)&lowMask)
}

// Unpack splits a packed address into its pointer and length.
func Unpack(v int64) (ptr, length uint32) {
	u := uint64(v)
	return uint32(u >> 32), uint32(u & lowMask)
}

// PackChecked packs ptr and length after verifying both fit in 32 bits.
func PackChecked(ptr, length int64) (int64, error) {
	if ptr < 0 || ptr > math.MaxUint32 {
		return 0, &PackingOverflowError{Field: "pointer", Value: ptr}
	}
	if length < 0 || length > math.MaxUint32 {
		return 0, &PackingOverflowError{Field: "length", Value: length}
	}

	return Pack(uint32(ptr), uint32(length)), nil
}

// UnpackHandle is Unpack returning a Handle.
func UnpackHandle(v int64) Handle {
	ptr, length := Unpack(v)
	return Handle{Ptr: ptr, Len: length}
}

// Pack returns the packed address of h.
func (h Handle) Pack() int64 {
	return Pack(h.Ptr, h.Len)
}

// End returns the offset one past the last byte of h, computed without wrapping.
func (h Handle) End() uint64 {
	return uint64(h.Ptr) + uint64(h.Len)
}

func (h Handle) String() string {
	return fmt.Sprintf("%d[%d]", h.Ptr, h.Len)
}

// PackingOverflowError reports a pointer or length outside the 32-bit domain.
type PackingOverflowError struct {
	Field string
	Value int64
}

func (e *PackingOverflowError) Error() string {
	return fmt.Sprintf("%s %d does not fit in 32 bits", e.Field, e.Value)
}

func (e *PackingOverflowError) Unwrap() error {
	return errorcodes.ErrPackingOverflow
}
