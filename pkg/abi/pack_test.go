package abi

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
)

// TestPackUnpack verifies that Unpack inverts Pack across the edges of the 32-bit domain.
func TestPackUnpack(t *testing.T) {
	t.Parallel()

	edges := []uint32{0, 1, 7, 8, 0x7FFFFFFF, 0x80000000, 0xDEADBEEF, 0xFEEDFACE, math.MaxUint32 - 1, math.MaxUint32}
	for _, ptr := range edges {
		for _, length := range edges {
			p, l := Unpack(Pack(ptr, length))
			if p != ptr || l != length {
				t.Errorf("Pack(0x%X, 0x%X): got ptr=0x%X len=0x%X", ptr, length, p, l)
			}
		}
	}
}

// TestPackUnpackRandom samples the full domain.
func TestPackUnpackRandom(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100000; i++ {
		ptr, length := rng.Uint32(), rng.Uint32()
		h := UnpackHandle(Pack(ptr, length))
		require.Equal(t, Handle{Ptr: ptr, Len: length}, h)
	}
}

// TestPackLayout checks the bit layout and that a high-bit length never bleeds into the pointer.
func TestPackLayout(t *testing.T) {
	t.Parallel()

	v := Pack(0x00000400, 0xFFFFFFFF)
	assert.Equal(t, int64(0x00000400FFFFFFFF), v)

	v = Pack(0xFFFFFFFF, 0x10)
	assert.Less(t, v, int64(0), "pointer high bit sets the sign of the packed value")
	ptr, length := Unpack(v)
	assert.Equal(t, uint32(0xFFFFFFFF), ptr)
	assert.Equal(t, uint32(0x10), length)
}

func TestPackChecked(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		ptr    int64
		length int64
		field  string
	}{
		{name: "in range", ptr: 1024, length: 16},
		{name: "max values", ptr: math.MaxUint32, length: math.MaxUint32},
		{name: "pointer too large", ptr: math.MaxUint32 + 1, length: 1, field: "pointer"},
		{name: "negative pointer", ptr: -1, length: 1, field: "pointer"},
		{name: "length too large", ptr: 0, length: 1 << 33, field: "length"},
		{name: "negative length", ptr: 0, length: -8, field: "length"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v, err := PackChecked(tc.ptr, tc.length)
			if tc.field == "" {
				require.NoError(t, err)
				ptr, length := Unpack(v)
				assert.Equal(t, uint32(tc.ptr), ptr)
				assert.Equal(t, uint32(tc.length), length)
				return
			}

			var overflow *PackingOverflowError
			require.ErrorAs(t, err, &overflow)
			assert.Equal(t, tc.field, overflow.Field)
			assert.True(t, errors.Is(err, errorcodes.ErrPackingOverflow))
		})
	}
}

func TestHandle(t *testing.T) {
	t.Parallel()

	h := Handle{Ptr: math.MaxUint32, Len: 2}
	assert.Equal(t, uint64(math.MaxUint32)+2, h.End())
	assert.Equal(t, h, UnpackHandle(h.Pack()))
	assert.Equal(t, "4294967295[2]", h.String())
}
