package abi

import (
	"errors"
	"math"
	"testing"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRange(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		op      Op
		ptr     uint32
		length  uint32
		extent  uint64
		wantErr error
	}{
		{name: "empty at start", op: OpRead, ptr: 0, length: 0, extent: 0},
		{name: "empty at end", op: OpRead, ptr: 65536, length: 0, extent: 65536},
		{name: "exact fit", op: OpWrite, ptr: 1024, length: 64512, extent: 65536},
		{name: "one past end read", op: OpRead, ptr: 1024, length: 64513, extent: 65536, wantErr: errorcodes.ErrMemoryRead},
		{name: "one past end write", op: OpWrite, ptr: 65536, length: 1, extent: 65536, wantErr: errorcodes.ErrMemoryWrite},
		{name: "wrapping sum", op: OpRead, ptr: math.MaxUint32, length: 2, extent: 65536, wantErr: errorcodes.ErrMemoryRead},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := CheckRange(tc.op, tc.ptr, tc.length, tc.extent)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)

			var be *BoundsError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tc.ptr, be.Ptr)
			assert.Equal(t, tc.length, be.Len)
			assert.Equal(t, tc.extent, be.Extent)
		})
	}
}

func TestCheckWithin(t *testing.T) {
	t.Parallel()

	region := Handle{Ptr: 1024, Len: 16}
	assert.NoError(t, CheckWithin(OpRead, Handle{Ptr: 1024, Len: 16}, region))
	assert.NoError(t, CheckWithin(OpRead, Handle{Ptr: 1032, Len: 8}, region))
	assert.ErrorIs(t, CheckWithin(OpRead, Handle{Ptr: 1024, Len: 17}, region), errorcodes.ErrMemoryRead)
	assert.ErrorIs(t, CheckWithin(OpWrite, Handle{Ptr: 1016, Len: 8}, region), errorcodes.ErrMemoryWrite)
}
