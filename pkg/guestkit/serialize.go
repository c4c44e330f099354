package guestkit

import (
	"math"

	"github.com/andrei-cloud/go_binio/pkg/abi"
	"github.com/andrei-cloud/go_binio/pkg/binio"
)

// Serialize encodes v straight into a fresh reservation of exactly its
// encoded size and returns the packed address of the result.
func Serialize(a *Arena, v binio.Value) (int64, error) {
	size := binio.EncodedSize(v)
	if size > math.MaxInt32 {
		return 0, &abi.PackingOverflowError{Field: "length", Value: int64(size)}
	}

	packed, err := a.Reserve(int32(size))
	if err != nil {
		return 0, err
	}
	h := abi.UnpackHandle(packed)

	dst, err := a.heap.View(abi.OpWrite, h.Ptr, h.Len)
	if err != nil {
		return 0, err
	}
	// dst has no spare capacity, so a correct encoder writes in place.
	if _, err := binio.EncodeTo(dst[:0], v); err != nil {
		return 0, err
	}

	return packed, nil
}

// Deserialize decodes the active slot described by ptr and length into v.
func Deserialize(a *Arena, ptr, length uint32, v binio.Value) error {
	src, err := a.Claim(ptr, length)
	if err != nil {
		return err
	}
	return binio.DecodeInto(src, v)
}
