package abi

import (
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
)

// Scalar is a wire-level value kind of a WASM function result.
type Scalar uint8

const (
	I32 Scalar = iota
	I64
)

func (s Scalar) String() string {
	if s == I64 {
		return "i64"
	}
	return "i32"
}

// Convention describes how a Handle is returned across the scalar boundary.
// Swapping conventions never affects the codec.
type Convention interface {
	// Name is the configuration name of the convention.
	Name() string
	// Results lists the result kinds a conforming export returns.
	Results() []Scalar
	// Lower turns a handle into raw result values.
	Lower(h Handle) []uint64
	// Lift turns raw result values into a handle.
	Lift(results []uint64) (Handle, error)
}

// Packed64 returns a handle as one packed i64.
type Packed64 struct{}

func (Packed64) Name() string      { return "packed64" }
func (Packed64) Results() []Scalar { return []Scalar{I64} }

func (Packed64) Lower(h Handle) []uint64 {
	return []uint64{uint64(h.Pack())}
}

func (Packed64) Lift(results []uint64) (Handle, error) {
	if len(results) != 1 {
		return Handle{}, fmt.Errorf("%w: packed64 expects 1 result, got %d",
			errorcodes.ErrExport, len(results))
	}
	return UnpackHandle(int64(results[0])), nil
}

// MultiValue returns a handle as two i32 results: pointer, then length.
type MultiValue struct{}

func (MultiValue) Name() string      { return "multivalue" }
func (MultiValue) Results() []Scalar { return []Scalar{I32, I32} }

func (MultiValue) Lower(h Handle) []uint64 {
	return []uint64{uint64(h.Ptr), uint64(h.Len)}
}

func (MultiValue) Lift(results []uint64) (Handle, error) {
	if len(results) != 2 {
		return Handle{}, fmt.Errorf("%w: multivalue expects 2 results, got %d",
			errorcodes.ErrExport, len(results))
	}
	return Handle{Ptr: uint32(results[0]), Len: uint32(results[1])}, nil
}

// ConventionByName resolves a configured convention name.
func ConventionByName(name string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "packed64":
		return Packed64{}, nil
	case "multivalue":
		return MultiValue{}, nil
	default:
		return nil, fmt.Errorf("unknown convention %q", name)
	}
}
