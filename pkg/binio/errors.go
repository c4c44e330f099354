package binio

import (
	"fmt"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
)

// EncodeError is returned when a value cannot produce its declared encoding.
type EncodeError struct {
	// Type is the Go type of the value.
	Type string
	// Want is the size the value reported; Got is the size it produced,
	// or -1 if marshaling failed outright.
	Want, Got int
	Err       error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: want %d bytes, got %d: %v", e.Type, e.Want, e.Got, e.Err)
}

func (e *EncodeError) Unwrap() []error {
	return []error{errorcodes.ErrEncode, e.Err}
}

// DecodeError is returned when a byte sequence is inconsistent with the
// expected value shape: truncated, oversized or malformed.
type DecodeError struct {
	Type      string
	Want, Got int
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: want %d bytes, got %d: %v", e.Type, e.Want, e.Got, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{errorcodes.ErrDecode, e.Err}
}
