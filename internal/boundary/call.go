package boundary

import (
	"context"

	"github.com/google/uuid"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
	"github.com/andrei-cloud/go_binio/pkg/binio"
)

// Call runs the full call sequence: it reserves a guest buffer sized for arg,
// writes arg into it, runs the compute export and decodes its result as R.
// Nothing is retried and no partial result is returned. A failed call leaves
// the caller Idle unless the failure poisoned it.
func Call[R any, PR interface {
	*R
	binio.Value
}](ctx context.Context, c *Caller, compute string, arg binio.Value) (_ R, err error) {
	var zero R

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if err != nil && c.poison == nil {
			c.state = Idle
		}
	}()

	logger := c.logger.With().
		Str("call_id", uuid.NewString()).
		Str("export", compute).
		Logger()

	size := binio.EncodedSize(arg)
	h, err := c.reserve(ctx, int64(size))
	if err != nil {
		return zero, err
	}

	scratch := c.pool.Get(size)
	defer c.pool.Put(scratch)

	data, err := binio.EncodeTo(scratch[:0], arg)
	if err != nil {
		return zero, &CallError{Kind: errorcodes.ErrEncode, Step: StepEncode, Export: compute, Size: int64(size), Err: err}
	}
	if err = c.write(h, data); err != nil {
		return zero, err
	}

	out, err := c.invoke(ctx, compute, h)
	if err != nil {
		return zero, err
	}
	raw, err := c.read(out)
	if err != nil {
		return zero, err
	}

	var r R
	if derr := binio.DecodeInto(raw, PR(&r)); derr != nil {
		return zero, &CallError{
			Kind: errorcodes.ErrDecode, Step: StepDecode, Export: compute,
			Ptr: out.Ptr, Len: out.Len, Err: derr,
		}
	}
	c.state = Idle

	logger.Debug().
		Str("event", "call").
		Uint32("ptr", out.Ptr).
		Uint32("len", out.Len).
		Msg("boundary call completed")

	return r, nil
}
