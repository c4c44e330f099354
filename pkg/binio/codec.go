// Package binio converts plain data values to and from the flat byte sequences
// exchanged across the WASM boundary.
//
// Values use a deterministic, platform independent encoding: fixed-width
// little-endian fields in declaration order with no padding. The encoded size of
// a value is known before encoding, which lets the host reserve a guest buffer of
// exactly the right length.
package binio

import (
	"fmt"

	ssz "github.com/ferranbt/fastssz"
)

// Value is a plain data aggregate with a fixed-width binary encoding.
type Value interface {
	ssz.Marshaler
	ssz.Unmarshaler
}

// EncodedSize returns the exact number of bytes Encode produces for v.
func EncodedSize(v Value) int {
	return v.SizeSSZ()
}

// Encode returns the binary encoding of v.
func Encode(v Value) ([]byte, error) {
	return EncodeTo(make([]byte, 0, v.SizeSSZ()), v)
}

// EncodeTo appends the binary encoding of v to dst.
func EncodeTo(dst []byte, v Value) ([]byte, error) {
	want := v.SizeSSZ()
	start := len(dst)

	out, err := v.MarshalSSZTo(dst)
	if err != nil {
		return nil, &EncodeError{Type: typeName(v), Want: want, Got: -1, Err: err}
	}
	if got := len(out) - start; got != want {
		return nil, &EncodeError{Type: typeName(v), Want: want, Got: got, Err: ssz.ErrSize}
	}

	return out, nil
}

// Decode decodes buf into a new value of type T.
func Decode[T any, PT interface {
	*T
	Value
}](buf []byte) (T, error) {
	var v T
	if err := DecodeInto(buf, PT(&v)); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// DecodeInto decodes buf into v. The length of buf must match the encoded size
// of v exactly. DecodeInto never panics on malformed input.
func DecodeInto(buf []byte, v Value) (err error) {
	want := v.SizeSSZ()
	if len(buf) != want {
		return &DecodeError{Type: typeName(v), Want: want, Got: len(buf), Err: ssz.ErrSize}
	}

	defer func() {
		if r := recover(); r != nil {
			err = &DecodeError{Type: typeName(v), Want: want, Got: len(buf), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if uerr := v.UnmarshalSSZ(buf); uerr != nil {
		return &DecodeError{Type: typeName(v), Want: want, Got: len(buf), Err: uerr}
	}

	return nil
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
